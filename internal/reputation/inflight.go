package reputation

import (
	"errors"
	"sync"
	"time"
)

// InflightMaxAge is the defensive cutoff for stale in-flight slots. Normal
// completion always removes its own slot; the sweep is a safety net only.
const InflightMaxAge = 30 * time.Second

// errLookupAbandoned settles a stale in-flight slot so waiters are released
// instead of blocking forever.
var errLookupAbandoned = errors.New("reputation: in-flight lookup abandoned")

// inflightCall is the single shared future for one outstanding lookup.
// done is closed exactly once, after result and err are set.
type inflightCall struct {
	done      chan struct{}
	result    Result
	err       error
	once      sync.Once
	startedAt time.Time
}

func (c *inflightCall) settle(res Result, err error) {
	c.once.Do(func() {
		c.result = res
		c.err = err
		close(c.done)
	})
}

// inflightRegistry guarantees at most one outstanding oracle call per
// address. Inspection and insertion happen under a single lock so two
// callers can never both observe "no in-flight call" and both start one.
type inflightRegistry struct {
	mu    sync.Mutex
	calls map[string]*inflightCall
	now   func() time.Time
}

func newInflightRegistry(now func() time.Time) *inflightRegistry {
	return &inflightRegistry{
		calls: make(map[string]*inflightCall),
		now:   now,
	}
}

// begin returns the call slot for address and whether the caller owns it.
// The owner must perform the lookup and call finish; joiners wait on done.
func (r *inflightRegistry) begin(address string) (*inflightCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if call, ok := r.calls[address]; ok {
		return call, false
	}
	call := &inflightCall{done: make(chan struct{}), startedAt: r.now()}
	r.calls[address] = call
	return call, true
}

// finish publishes the result to all waiters and removes the slot
// unconditionally, success or failure. A failed call is never left in the
// registry, so later callers start fresh instead of inheriting the error.
func (r *inflightRegistry) finish(address string, call *inflightCall, res Result, err error) {
	call.settle(res, err)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls[address] == call {
		delete(r.calls, address)
	}
}

// sweep evicts slots older than maxAge, settling them with an abandonment
// error so any remaining waiters are released.
func (r *inflightRegistry) sweep(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	now := r.now()
	for address, call := range r.calls {
		if now.Sub(call.startedAt) >= maxAge {
			call.settle(Result{Address: address, Tier: TierUnclassified, Err: errLookupAbandoned}, errLookupAbandoned)
			delete(r.calls, address)
			removed++
		}
	}
	return removed
}

func (r *inflightRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
