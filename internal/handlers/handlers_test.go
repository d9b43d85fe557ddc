package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"errorhelper/internal/backend"
	"errorhelper/internal/bridge"
	"errorhelper/internal/chat"
	"errorhelper/internal/diagnostics"
	"errorhelper/internal/explain"
	"errorhelper/internal/export"
	"errorhelper/internal/models"
	"errorhelper/internal/tts"
	"errorhelper/internal/voice"
)

type mockProvider struct {
	mu                sync.Mutex
	calls             int
	generateContentFn func(ctx context.Context, prompt string, requestID string) (*models.GenerationResponse, error)
	getProviderNameFn func() string
}

func (m *mockProvider) GenerateContent(ctx context.Context, prompt string, requestID string) (*models.GenerationResponse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.generateContentFn == nil {
		return &models.GenerationResponse{Content: "Add the missing semicolon.", RequestID: requestID}, nil
	}
	return m.generateContentFn(ctx, prompt, requestID)
}

func (m *mockProvider) GetProviderName() string {
	if m.getProviderNameFn == nil {
		return "mock"
	}
	return m.getProviderNameFn()
}

func (m *mockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockSynthesizer struct {
	synthesizeFn func(ctx context.Context, req tts.Request) (*tts.Result, error)
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, req tts.Request) (*tts.Result, error) {
	if m.synthesizeFn == nil {
		return &tts.Result{AudioURL: "https://audio.example/clip.mp3"}, nil
	}
	return m.synthesizeFn(ctx, req)
}

func (m *mockSynthesizer) GetProviderName() string { return "mock" }

type mockPromptManager struct {
	buildPromptFn  func(mode, variant string, data any) (string, error)
	getTemplatesFn func() []string
}

func (m *mockPromptManager) BuildPrompt(mode, variant string, data any) (string, error) {
	if m.buildPromptFn == nil {
		return "mock prompt", nil
	}
	return m.buildPromptFn(mode, variant, data)
}

func (m *mockPromptManager) GetTemplates() []string {
	if m.getTemplatesFn == nil {
		return []string{"explain/detail", "explain/voice"}
	}
	return m.getTemplatesFn()
}

type mockPinger struct{ err error }

func (m mockPinger) PingContext(context.Context) error { return m.err }

// fixture wires the diagnostics core the same way the server does.
type fixture struct {
	workspace *diagnostics.Workspace
	cache     *diagnostics.Cache
	watcher   *diagnostics.Watcher
	provider  *mockProvider
	synth     *mockSynthesizer
	explain   *explain.Coordinator
	voice     *voice.Coordinator
	bridge    *bridge.Bridge
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	f := &fixture{
		workspace: diagnostics.NewWorkspace(),
		cache:     diagnostics.NewCache(),
		provider:  &mockProvider{},
		synth:     &mockSynthesizer{},
	}
	f.watcher = diagnostics.NewWatcher(f.workspace, f.cache, logger)
	f.explain = explain.NewCoordinator(f.cache, f.provider, &mockPromptManager{}, time.Second, logger)
	f.voice = voice.NewCoordinator(f.synth, "en-US-natalie", "Conversational", time.Second, logger)
	f.bridge = bridge.New(f.cache, chat.NewCoordinator(f.provider, time.Second, logger), f.voice, export.NewFileExporter(t.TempDir()), logger)
	f.explain.SetDetailView(f.bridge)
	f.cache.OnChange(f.bridge.RenderTree)
	t.Cleanup(func() {
		f.explain.Wait()
		f.bridge.Wait()
	})
	return f
}

// seed publishes one error on line 0 and returns its record.
func (f *fixture) seed(t *testing.T) diagnostics.ErrorRecord {
	t.Helper()
	f.workspace.SetActive("file:///main.go", []string{"fmt.Println(x"}, []diagnostics.Diagnostic{{
		Message:  "missing ')'",
		Range:    diagnostics.Range{StartLine: 0, EndLine: 0, EndCharacter: 13},
		Severity: diagnostics.SeverityError,
	}})
	records := f.watcher.Refresh()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	return records[0]
}

func addURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func backendDown() error {
	return &backend.Error{Backend: "mock", Code: backend.ErrCodeServiceDown, Message: "unavailable"}
}
