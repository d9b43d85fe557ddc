package diagnostics

import (
	"sync"

	"go.uber.org/zap"
)

// Source supplies the active document and its diagnostics.
type Source interface {
	ActiveDocument() (Document, bool)
	Diagnostics(uri string) []Diagnostic
}

// Merge computes the new record set from the latest raw diagnostics of doc.
// Only error-severity diagnostics are kept. A record whose fingerprint is still present
// keeps its solution if one was ever requested; records whose fingerprint vanished are
// dropped together with their solution. A nil doc yields an empty set.
func Merge(doc Document, raw []Diagnostic, existing []ErrorRecord) []ErrorRecord {
	if doc == nil {
		return []ErrorRecord{}
	}

	solutions := make(map[Fingerprint]SolutionState, len(existing))
	for _, rec := range existing {
		if rec.Solution.HasSolution() {
			solutions[rec.Fingerprint] = rec.Solution
		}
	}

	seen := make(map[Fingerprint]struct{}, len(raw))
	out := make([]ErrorRecord, 0, len(raw))
	for _, d := range raw {
		if d.Severity != SeverityError {
			continue
		}
		fp := FingerprintOf(d)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}

		solution, ok := solutions[fp]
		if !ok {
			solution = Unrequested()
		}
		out = append(out, ErrorRecord{
			Fingerprint: fp,
			Diagnostic:  d,
			Document:    doc,
			Solution:    solution,
		})
	}
	return out
}

// Watcher recomputes the error set whenever diagnostics or the active editor change.
type Watcher struct {
	source Source
	cache  *Cache
	logger *zap.Logger

	mu        sync.Mutex
	onRefresh []func(records []ErrorRecord)
}

func NewWatcher(source Source, cache *Cache, logger *zap.Logger) *Watcher {
	return &Watcher{source: source, cache: cache, logger: logger}
}

// OnRefresh registers a callback fired after every refresh.
func (w *Watcher) OnRefresh(fn func(records []ErrorRecord)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onRefresh = append(w.onRefresh, fn)
}

func (w *Watcher) Refresh() []ErrorRecord {
	var (
		doc Document
		raw []Diagnostic
	)
	if active, ok := w.source.ActiveDocument(); ok {
		doc = active
		raw = w.source.Diagnostics(active.URI())
	}

	records := w.cache.Reconcile(doc, raw)

	uri := ""
	if doc != nil {
		uri = doc.URI()
	}
	w.logger.Debug("diagnostics refreshed",
		zap.String("uri", uri),
		zap.Int("diagnostics", len(raw)),
		zap.Int("errors", len(records)))

	w.mu.Lock()
	callbacks := append([]func([]ErrorRecord){}, w.onRefresh...)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn(records)
	}
	return records
}
