package diagnostics

import (
	"fmt"
	"sync"
)

// Workspace is the in-memory Source fed by the editor shim.
type Workspace struct {
	mu          sync.RWMutex
	active      *TextDocument
	diagnostics map[string][]Diagnostic
}

func NewWorkspace() *Workspace {
	return &Workspace{diagnostics: make(map[string][]Diagnostic)}
}

// SetActive replaces the active document and its diagnostics.
func (w *Workspace) SetActive(uri string, lines []string, diags []Diagnostic) {
	doc := &TextDocument{uri: uri, lines: append([]string(nil), lines...)}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = doc
	w.diagnostics[uri] = append([]Diagnostic(nil), diags...)
}

// ClearActive records that no editor is focused.
func (w *Workspace) ClearActive() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = nil
}

func (w *Workspace) ActiveDocument() (Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.active == nil {
		return nil, false
	}
	return w.active, true
}

func (w *Workspace) Diagnostics(uri string) []Diagnostic {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]Diagnostic(nil), w.diagnostics[uri]...)
}

// TextDocument is an immutable snapshot of a document's lines.
type TextDocument struct {
	uri   string
	lines []string
}

func NewTextDocument(uri string, lines []string) *TextDocument {
	return &TextDocument{uri: uri, lines: append([]string(nil), lines...)}
}

func (d *TextDocument) URI() string { return d.uri }

func (d *TextDocument) LineAt(line int) (string, error) {
	if line < 0 || line >= len(d.lines) {
		return "", fmt.Errorf("line %d out of range for %s (%d lines)", line, d.uri, len(d.lines))
	}
	return d.lines[line], nil
}
