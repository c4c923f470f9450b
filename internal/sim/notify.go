package sim

import (
	"context"
	"sync"
)

// removalNotifier implements the per-steppable wait/notify protocol.
//
// Each steppable gets its own independent signal channel, keyed by interface
// identity. Signaling one steppable's removal never wakes threads waiting on
// a different steppable. A channel is closed exactly once per registration
// and then discarded, so a subsequent registration of the same steppable
// starts a fresh wait cycle.
//
// Steppables are compared by interface identity; implementations must be
// comparable (pointer receivers are the norm).
type removalNotifier struct {
	mu      sync.Mutex
	waiters map[Steppable]chan struct{}
}

func newRemovalNotifier() *removalNotifier {
	return &removalNotifier{
		waiters: make(map[Steppable]chan struct{}),
	}
}

// channelFor returns the signal channel for s, creating it if absent.
// Callers that enqueue-then-wait should grab the channel before enqueuing so
// a removal on the very next tick cannot be missed.
func (n *removalNotifier) channelFor(s Steppable) <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch, ok := n.waiters[s]
	if !ok {
		ch = make(chan struct{})
		n.waiters[s] = ch
	}
	return ch
}

// signal marks s as removed, waking every current waiter for it. The entry
// is discarded after the close so the wake fires at most once per
// registration. No-op if nobody armed a channel for s.
func (n *removalNotifier) signal(s Steppable) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ch, ok := n.waiters[s]; ok {
		close(ch)
		delete(n.waiters, s)
	}
}

// wait blocks until ch is signaled or ctx is cancelled.
//
// On cancellation the steppable's registration state is unknown to the
// caller: the scheduler does not unregister it, and its eventual removal
// signal is discarded if nobody else is waiting.
func waitRemoval(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
