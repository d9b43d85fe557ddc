package diagnostics

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func errDiag(msg string, line int) Diagnostic {
	return Diagnostic{Message: msg, Range: Range{StartLine: line}, Severity: SeverityError}
}

func TestFingerprint(t *testing.T) {
	d := errDiag("undefined: x", 4)
	fp := FingerprintOf(d)
	if fp.String() != "undefined: x|4" {
		t.Fatalf("unexpected fingerprint string %q", fp.String())
	}
	if fp.ID() != FingerprintOf(errDiag("undefined: x", 4)).ID() {
		t.Fatal("expected stable id")
	}
	if fp.ID() == FingerprintOf(errDiag("undefined: x", 5)).ID() {
		t.Fatal("expected different lines to produce different ids")
	}
	if len(fp.ID()) != 16 {
		t.Fatalf("expected 16 hex chars, got %q", fp.ID())
	}
}

func TestSolutionTransitions(t *testing.T) {
	cases := []struct {
		from SolutionStatus
		to   SolutionStatus
		ok   bool
	}{
		{StatusUnrequested, StatusPending, true},
		{StatusUnrequested, StatusReady, false},
		{StatusPending, StatusReady, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusPending, false},
		{StatusReady, StatusPending, true},
		{StatusReady, StatusFailed, false},
		{StatusFailed, StatusPending, true},
		{StatusFailed, StatusUnrequested, false},
	}
	for _, tc := range cases {
		got := SolutionState{Status: tc.from}.CanTransition(tc.to)
		if got != tc.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestMergeCarriesForwardAndDrops(t *testing.T) {
	doc := NewTextDocument("file:///a.go", []string{"a", "b"})
	a := errDiag("A", 0)
	b := errDiag("B", 1)

	existing := []ErrorRecord{{
		Fingerprint: FingerprintOf(a),
		Diagnostic:  a,
		Document:    doc,
		Solution:    Ready("foo", "req-1"),
	}}

	merged := Merge(doc, []Diagnostic{a, b}, existing)
	if len(merged) != 2 {
		t.Fatalf("expected 2 records, got %d", len(merged))
	}
	if merged[0].Solution.Status != StatusReady || merged[0].Solution.Text != "foo" {
		t.Fatalf("expected A to keep Ready(foo), got %+v", merged[0].Solution)
	}
	if merged[1].Fingerprint != FingerprintOf(b) || merged[1].Solution.Status != StatusUnrequested {
		t.Fatalf("expected B to start unrequested, got %+v", merged[1])
	}

	merged = Merge(doc, []Diagnostic{b}, existing)
	if len(merged) != 1 || merged[0].Fingerprint != FingerprintOf(b) {
		t.Fatalf("expected only B, got %+v", merged)
	}
	if merged[0].Solution.Status != StatusUnrequested {
		t.Fatalf("expected B unrequested, got %s", merged[0].Solution.Status)
	}
}

func TestMergeFiltersAndCollapses(t *testing.T) {
	doc := NewTextDocument("file:///a.go", nil)
	warn := Diagnostic{Message: "unused", Severity: SeverityWarning}
	a := errDiag("A", 3)
	dup := errDiag("A", 3)
	dup.Range.StartCharacter = 9

	merged := Merge(doc, []Diagnostic{warn, a, dup}, nil)
	if len(merged) != 1 {
		t.Fatalf("expected warnings filtered and duplicates collapsed, got %d records", len(merged))
	}
	if merged[0].Diagnostic.Range.StartCharacter != 0 {
		t.Fatal("expected the first diagnostic of a collision to win")
	}

	if got := Merge(nil, []Diagnostic{a}, nil); len(got) != 0 {
		t.Fatalf("expected no records without an active document, got %d", len(got))
	}
}

func TestCacheBeginCompleteAndDedup(t *testing.T) {
	doc := NewTextDocument("file:///a.go", []string{"x"})
	cache := NewCache()
	cache.Reconcile(doc, []Diagnostic{errDiag("A", 0)})
	fp := Fingerprint{Message: "A", Line: 0}

	token, rec, err := cache.Begin(fp, "loading", "req-1")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if rec.Solution.Status != StatusPending || rec.Solution.Text != "loading" {
		t.Fatalf("expected pending placeholder, got %+v", rec.Solution)
	}

	if _, _, err := cache.Begin(fp, "loading", "req-2"); !errors.Is(err, ErrAlreadyPending) {
		t.Fatalf("expected ErrAlreadyPending, got %v", err)
	}

	if err := cache.Complete(fp, token+1, Ready("nope", "req-x")); !errors.Is(err, ErrStaleTarget) {
		t.Fatalf("expected wrong token to be stale, got %v", err)
	}
	if err := cache.Complete(fp, token, Ready("done", "req-1")); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	got, _ := cache.Get(fp)
	if got.Solution.Status != StatusReady || got.Solution.Text != "done" {
		t.Fatalf("expected Ready(done), got %+v", got.Solution)
	}

	if err := cache.Complete(fp, token, Failed("late")); !errors.Is(err, ErrStaleTarget) {
		t.Fatalf("expected completion of a non-pending record to be stale, got %v", err)
	}
	if err := cache.Complete(fp, token, Unrequested()); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}

	if _, _, err := cache.Begin(Fingerprint{Message: "missing"}, "", ""); !errors.Is(err, ErrUnknownFingerprint) {
		t.Fatalf("expected ErrUnknownFingerprint, got %v", err)
	}
}

func TestCacheDropsResultForRecreatedRecord(t *testing.T) {
	doc := NewTextDocument("file:///a.go", []string{"x"})
	cache := NewCache()
	a := errDiag("A", 0)
	fp := FingerprintOf(a)

	cache.Reconcile(doc, []Diagnostic{a})
	oldToken, _, _ := cache.Begin(fp, "loading", "req-1")

	// error disappears and comes back while the first request is in flight
	cache.Reconcile(doc, nil)
	cache.Reconcile(doc, []Diagnostic{a})
	newToken, _, err := cache.Begin(fp, "loading", "req-2")
	if err != nil {
		t.Fatalf("Begin after re-creation returned error: %v", err)
	}

	if err := cache.Complete(fp, oldToken, Ready("stale", "req-1")); !errors.Is(err, ErrStaleTarget) {
		t.Fatalf("expected stale result to be dropped, got %v", err)
	}
	if err := cache.Complete(fp, newToken, Ready("fresh", "req-2")); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	got, _ := cache.Get(fp)
	if got.Solution.Text != "fresh" {
		t.Fatalf("expected fresh result, got %q", got.Solution.Text)
	}
}

func TestCachePublishesSnapshots(t *testing.T) {
	doc := NewTextDocument("file:///a.go", []string{"x"})
	cache := NewCache()
	var statuses []SolutionStatus
	cache.OnChange(func(records []ErrorRecord) {
		if len(records) == 1 {
			statuses = append(statuses, records[0].Solution.Status)
		}
	})

	a := errDiag("A", 0)
	cache.Reconcile(doc, []Diagnostic{a})
	token, _, _ := cache.Begin(FingerprintOf(a), "loading", "r")
	_ = cache.Complete(FingerprintOf(a), token, Failed("boom"))

	want := []SolutionStatus{StatusUnrequested, StatusPending, StatusFailed}
	if len(statuses) != len(want) {
		t.Fatalf("expected %d publications, got %v", len(want), statuses)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("publication %d: expected %s, got %s", i, want[i], statuses[i])
		}
	}

	rec, ok := cache.Lookup(FingerprintOf(a).ID())
	if !ok || rec.Fingerprint != FingerprintOf(a) {
		t.Fatal("expected Lookup by id to find the record")
	}
}

func TestWatcherRefresh(t *testing.T) {
	ws := NewWorkspace()
	cache := NewCache()
	watcher := NewWatcher(ws, cache, zap.NewNop())

	var refreshed int
	watcher.OnRefresh(func(records []ErrorRecord) { refreshed++ })

	if got := watcher.Refresh(); len(got) != 0 {
		t.Fatalf("expected empty set without an active document, got %d", len(got))
	}

	ws.SetActive("file:///main.go", []string{"package main", "x := y"}, []Diagnostic{
		errDiag("undefined: y", 1),
		{Message: "unused", Severity: SeverityHint},
	})
	records := watcher.Refresh()
	if len(records) != 1 || cache.Len() != 1 {
		t.Fatalf("expected one error record, got %d", len(records))
	}
	line, err := records[0].Document.LineAt(records[0].Fingerprint.Line)
	if err != nil || line != "x := y" {
		t.Fatalf("expected source line, got %q (%v)", line, err)
	}

	ws.ClearActive()
	if got := watcher.Refresh(); len(got) != 0 {
		t.Fatalf("expected records dropped when editor closes, got %d", len(got))
	}
	if refreshed != 3 {
		t.Fatalf("expected 3 refresh notifications, got %d", refreshed)
	}
}

func TestTextDocumentLineAt(t *testing.T) {
	doc := NewTextDocument("file:///a", []string{"one"})
	if _, err := doc.LineAt(1); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := doc.LineAt(-1); err == nil {
		t.Fatal("expected negative line error")
	}
}
