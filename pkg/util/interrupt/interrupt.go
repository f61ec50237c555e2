// Package interrupt allows the workflow to register cleanup work, such as
// removing a running container, that must happen even when the operator
// interrupts the process.
package interrupt

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// terminationSignals are signals that cause the program to exit in the
// supported platforms (linux, darwin, windows).
var terminationSignals = []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}

// Handler guarantees execution of notifications after a critical section
// (the function passed to a Run method), even in the presence of process
// termination. It guarantees exactly once invocation of the provided notify
// functions.
type Handler struct {
	notify []func()
	final  func(os.Signal)
	once   sync.Once
}

// New creates a new handler that guarantees all notify functions are run
// after the critical section exits (or is interrupted by an OS signal), with
// final invoked after all notifications are delivered. final will directly
// call os.Exit(2) when it is nil.
func New(final func(os.Signal), notify ...func()) *Handler {
	return &Handler{
		final:  final,
		notify: notify,
	}
}

// Run ensures that any notifications are invoked after the provided fn
// exits (even if the process is interrupted by an OS termination signal).
// Notifications are only invoked once per Handler instance, so calling Run
// more than once will not behave as the user expects.
func (h *Handler) Run(fn func() error) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, terminationSignals...)
	defer func() {
		signal.Stop(ch)
		close(ch)
	}()
	go func() {
		sig, ok := <-ch
		if !ok {
			return
		}
		h.signal(sig)
	}()
	defer h.close()
	return fn()
}

func (h *Handler) close() {
	h.once.Do(func() {
		for _, fn := range h.notify {
			fn()
		}
	})
}

func (h *Handler) signal(s os.Signal) {
	h.once.Do(func() {
		for _, fn := range h.notify {
			fn()
		}
		if h.final == nil {
			os.Exit(2)
		}
		h.final(s)
	})
}
