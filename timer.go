package thread

import (
	"sync"
	"time"
)

// carrierTimer is the per-carrier one-shot interval timer. It is
// armed before every thread install and stopped on return; stopping is
// idempotent. Built on [time.AfterFunc].
type carrierTimer struct {
	mu      sync.Mutex
	t       *time.Timer
	handler func()
}

func newCarrierTimer() *carrierTimer {
	return &carrierTimer{}
}

// set installs the handler invoked on expiry; it does not itself arm
// the timer.
func (ct *carrierTimer) set(handler func()) {
	ct.mu.Lock()
	ct.handler = handler
	ct.mu.Unlock()
}

// start arms the timer for d. Any previously armed, not-yet-fired timer
// is stopped first.
func (ct *carrierTimer) start(d time.Duration) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.t != nil {
		ct.t.Stop()
	}
	if d <= 0 {
		ct.t = nil
		return
	}
	h := ct.handler
	ct.t = time.AfterFunc(d, func() {
		if h != nil {
			h()
		}
	})
}

// stop cancels a pending fire; safe to call when nothing is armed.
func (ct *carrierTimer) stop() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.t != nil {
		ct.t.Stop()
		ct.t = nil
	}
}
