package diagnostics

import "sync"

// Listener receives a full snapshot of the cache after every change.
// Listeners must not mutate the cache synchronously.
type Listener func(records []ErrorRecord)

// Cache maps fingerprints to error records, in diagnostic order.
// It is written only by the watcher (Reconcile) and the explanation
// coordinator (Begin/Complete).
type Cache struct {
	mu      sync.Mutex
	order   []Fingerprint
	records map[Fingerprint]*ErrorRecord
	tokens  uint64
	version uint64

	pubMu     sync.Mutex
	published uint64
	listeners []Listener
}

func NewCache() *Cache {
	return &Cache{records: make(map[Fingerprint]*ErrorRecord)}
}

// OnChange registers a listener for published snapshots.
func (c *Cache) OnChange(fn Listener) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Cache) Records() []ErrorRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

func (c *Cache) Get(fp Fingerprint) (ErrorRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[fp]
	if !ok {
		return ErrorRecord{}, false
	}
	return *rec, true
}

// Lookup finds a record by Fingerprint.ID.
func (c *Cache) Lookup(id string) (ErrorRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, fp := range c.order {
		if fp.ID() == id {
			return *c.records[fp], true
		}
	}
	return ErrorRecord{}, false
}

// Reconcile merges the latest diagnostics of doc into the cache and publishes the result.
func (c *Cache) Reconcile(doc Document, raw []Diagnostic) []ErrorRecord {
	c.mu.Lock()
	merged := Merge(doc, raw, c.snapshotLocked())
	c.order = make([]Fingerprint, 0, len(merged))
	c.records = make(map[Fingerprint]*ErrorRecord, len(merged))
	for i := range merged {
		rec := merged[i]
		c.order = append(c.order, rec.Fingerprint)
		c.records[rec.Fingerprint] = &rec
	}
	version, snap := c.bumpLocked()
	c.mu.Unlock()

	c.publish(version, snap)
	return merged
}

// Begin moves the record to Pending and returns the token that Complete must present.
// A record that is already pending is left untouched.
func (c *Cache) Begin(fp Fingerprint, placeholder, requestID string) (uint64, ErrorRecord, error) {
	c.mu.Lock()
	rec, ok := c.records[fp]
	if !ok {
		c.mu.Unlock()
		return 0, ErrorRecord{}, ErrUnknownFingerprint
	}
	if rec.Solution.Status == StatusPending {
		out := *rec
		c.mu.Unlock()
		return 0, out, ErrAlreadyPending
	}
	if !rec.Solution.CanTransition(StatusPending) {
		c.mu.Unlock()
		return 0, ErrorRecord{}, ErrIllegalTransition
	}
	c.tokens++
	token := c.tokens
	rec.Solution = pending(placeholder, requestID, token)
	out := *rec
	version, snap := c.bumpLocked()
	c.mu.Unlock()

	c.publish(version, snap)
	return token, out, nil
}

// Complete applies a Ready or Failed state produced by the request holding token.
// Results for records that vanished or were re-requested since are dropped.
func (c *Cache) Complete(fp Fingerprint, token uint64, next SolutionState) error {
	if next.Status != StatusReady && next.Status != StatusFailed {
		return ErrIllegalTransition
	}

	c.mu.Lock()
	rec, ok := c.records[fp]
	if !ok || rec.Solution.Status != StatusPending || rec.Solution.token != token {
		c.mu.Unlock()
		return ErrStaleTarget
	}
	next.token = 0
	rec.Solution = next
	version, snap := c.bumpLocked()
	c.mu.Unlock()

	c.publish(version, snap)
	return nil
}

func (c *Cache) snapshotLocked() []ErrorRecord {
	out := make([]ErrorRecord, 0, len(c.order))
	for _, fp := range c.order {
		out = append(out, *c.records[fp])
	}
	return out
}

func (c *Cache) bumpLocked() (uint64, []ErrorRecord) {
	c.version++
	return c.version, c.snapshotLocked()
}

// publish delivers snapshots in mutation order; one overtaken by a newer
// snapshot is skipped.
func (c *Cache) publish(version uint64, snap []ErrorRecord) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if version <= c.published {
		return
	}
	c.published = version
	for _, fn := range c.listeners {
		fn(snap)
	}
}
