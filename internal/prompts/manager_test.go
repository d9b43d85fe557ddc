package prompts

import (
	"strings"
	"testing"
)

func TestPromptManagerBuildPrompt(t *testing.T) {
	pm, err := NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager error: %v", err)
	}

	data := ErrorData{
		Message:  "';' expected",
		CodeLine: "const x = 1",
	}
	prompt, err := pm.BuildPrompt(ModeExplain, VariantDetail, data)
	if err != nil {
		t.Fatalf("BuildPrompt error: %v", err)
	}

	if len(prompt) == 0 || !containsAll(prompt, []string{"';' expected", "const x = 1", "1000 to 1100"}) {
		t.Fatalf("prompt did not contain expected values: %s", prompt)
	}

	voice, err := pm.BuildPrompt(ModeExplain, VariantVoice, data)
	if err != nil {
		t.Fatalf("BuildPrompt voice error: %v", err)
	}
	if voice == prompt || !strings.Contains(voice, "read aloud") {
		t.Fatalf("voice prompt should differ from detail prompt: %s", voice)
	}

	if _, err := pm.BuildPrompt("unknown", VariantDetail, data); err == nil {
		t.Fatalf("expected error for unknown mode")
	}

	if _, err := pm.BuildPrompt(ModeExplain, "missing", data); err == nil {
		t.Fatalf("expected error for missing variant")
	}
}

func TestBuildPromptEmptyCodeLine(t *testing.T) {
	pm, err := NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager error: %v", err)
	}

	prompt, err := pm.BuildPrompt(ModeExplain, VariantDetail, ErrorData{Message: "boom"})
	if err != nil {
		t.Fatalf("BuildPrompt error: %v", err)
	}
	if !strings.Contains(prompt, `Code line: ""`) {
		t.Fatalf("expected empty code line to render, got %s", prompt)
	}
}

func TestGetTemplates(t *testing.T) {
	pm, err := NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager error: %v", err)
	}

	got := pm.GetTemplates()
	want := []string{"explain/detail", "explain/voice"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func containsAll(haystack string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}
