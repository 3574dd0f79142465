package deconz

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// result is what a pending request resolves with: either a decoded
// payload or an error (ProtocolError, ErrTimeout, ErrClosed).
type result struct {
	payload []byte
	err     error
}

// pendingEntry is a single outstanding request: a completion channel with
// exactly-once resolution semantics (spec.md §4.5, invariant "single
// resolution").
type pendingEntry struct {
	ch       chan result
	resolved bool
}

func newPendingEntry() *pendingEntry {
	return &pendingEntry{ch: make(chan result, 1)}
}

// resolve delivers r exactly once; a second call is a no-op rather than a
// panic, since forced eviction and a late device response can race
// harmlessly (the device's late response is logged and dropped, per
// spec.md §5 cancellation semantics).
func (p *pendingEntry) resolve(r result) {
	if p.resolved {
		return
	}
	p.resolved = true
	p.ch <- r
}

// sequenceTable owns the 8-bit rolling sequence counter and the
// process-wide pending-request map (spec.md §4.5). All mutation happens
// under mu — the connection's single ingest goroutine and the
// request-submission path both go through it.
type sequenceTable struct {
	mu      sync.Mutex
	seq     uint8
	pending map[uint8]*pendingEntry
}

func newSequenceTable() *sequenceTable {
	return &sequenceTable{pending: make(map[uint8]*pendingEntry)}
}

// allocate increments the sequence counter (wrapping modulo 256), evicts
// and times out a colliding prior entry if one exists, installs a fresh
// pendingEntry for the new id, and returns both.
func (t *sequenceTable) allocate() (uint8, *pendingEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	seq := t.seq

	if prev, ok := t.pending[seq]; ok {
		log.Error().Uint8("seq", seq).Msg("sequence id collision, evicting stale pending request")
		prev.resolve(result{err: ErrTimeout})
	}

	entry := newPendingEntry()
	t.pending[seq] = entry
	return seq, entry
}

// resolve looks up seq and, if present, resolves and removes it. It
// reports whether an entry was found — callers log a "response for
// unknown sequence id" warning on false (the entry may have already been
// evicted or timed out).
func (t *sequenceTable) resolve(seq uint8, r result) bool {
	t.mu.Lock()
	entry, ok := t.pending[seq]
	if ok {
		delete(t.pending, seq)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	entry.resolve(r)
	return true
}

// evict removes seq without a response ever arriving and resolves its
// entry with err (caller-initiated cancellation, a deadline timer, a failed
// send, or a fire-and-forget request).
func (t *sequenceTable) evict(seq uint8, err error) {
	t.mu.Lock()
	entry, ok := t.pending[seq]
	if ok {
		delete(t.pending, seq)
	}
	t.mu.Unlock()

	if ok {
		entry.resolve(result{err: err})
	}
}

// closeAll resolves every outstanding entry with err and empties the
// table (spec.md §4.10, connection_lost / transport-down).
func (t *sequenceTable) closeAll(err error) {
	t.mu.Lock()
	entries := t.pending
	t.pending = make(map[uint8]*pendingEntry)
	t.mu.Unlock()

	for _, entry := range entries {
		entry.resolve(result{err: err})
	}
}

// count returns the number of outstanding requests (used by the ops
// status surface).
func (t *sequenceTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
