package thread

// fiberContext is the Go-native substitute for a ucontext-style
// save-and-jump pair over saved register contexts: a rendezvous of two unbuffered
// channels handing control between a carrier's dispatcher loop and a
// many-many thread's dedicated goroutine. Every many-many [Thread] gets
// its own goroutine for life, parked here whenever it is not installed;
// the channel handoff preserves the entire Go call stack across a
// suspend/resume, which is the effect save_and_jump achieves over a
// raw register/stack-pointer context without requiring cgo or per-arch
// assembly.
type fiberContext struct {
	resume  chan struct{} // dispatcher -> fiber: run
	suspend chan struct{} // fiber -> dispatcher: parked or exited
}

func newFiberContext() *fiberContext {
	return &fiberContext{
		resume:  make(chan struct{}),
		suspend: make(chan struct{}),
	}
}

// install is the dispatcher-side "save_and_jump(return_ctx, main_ctx)":
// hand control to the fiber and block until it suspends.
func (f *fiberContext) install() {
	f.resume <- struct{}{}
	<-f.suspend
}

// park is the fiber-side suspend point: signal the dispatcher that
// we've yielded, then block until re-installed.
func (f *fiberContext) park() {
	f.suspend <- struct{}{}
	<-f.resume
}

// start blocks the newly spawned fiber goroutine until its first
// install; the entry function runs only once the dispatcher first
// jumps to it.
func (f *fiberContext) start() {
	<-f.resume
}

// finished is the fiber-side natural-exit signal: it parks one final
// time without expecting ever to be resumed again.
func (f *fiberContext) finished() {
	f.suspend <- struct{}{}
}
