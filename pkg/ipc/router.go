package ipc

import (
	"log/slog"
	"sync"

	shellquote "github.com/kballard/go-shellquote"
)

// Router turns forwarded command lines into pending argument lists. It is a
// single-slot mailbox: the latest forwarded command wins, so a hyperactive
// user mashing the launcher does not queue a backlog of stale commands.
type Router struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending []string
	has     bool
	notify  chan struct{}
}

// NewRouter returns an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		logger: logger.With("component", "router"),
		notify: make(chan struct{}, 1),
	}
}

// Deliver accepts one forwarded command line from the platform adapter. The
// line is tokenized with the same POSIX quoting rules Send joins with, the
// leading argv[0] is dropped, and the rest replaces any pending arguments.
// Unparsable lines are logged and discarded.
func (r *Router) Deliver(line string) {
	args, err := shellquote.Split(line)
	if err != nil {
		r.logger.Warn("dropping malformed command line", "line", line, "error", err)
		return
	}
	if len(args) > 0 {
		args = args[1:]
	}
	r.logger.Debug("command received", "args", args)

	r.mu.Lock()
	r.pending = args
	r.has = true
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Take consumes the pending argument list, if any.
func (r *Router) Take() ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.has {
		return nil, false
	}
	args := r.pending
	r.pending = nil
	r.has = false
	return args, true
}

// Notify signals after each delivery. The channel is buffered and coalescing;
// a receiver drains pending state with Take.
func (r *Router) Notify() <-chan struct{} {
	return r.notify
}
