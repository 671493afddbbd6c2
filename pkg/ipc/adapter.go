// Package ipc impersonates the Client's single-instance protocol and layers
// the supervisor's own locking and command forwarding on top of it.
//
// The Client advertises itself through OS primitives: a PID record plus a
// command mailbox (a named FIFO on POSIX, a named kernel event with a registry
// string on Windows). Whoever owns those primitives is, as far as secondary
// invocations can tell, the Client. The supervisor claims them while the real
// Client is down, so launch attempts are forwarded here instead of starting a
// second Client while config files are being rewritten.
package ipc

import "log/slog"

// Adapter is the platform face of the single-instance protocol. A process
// uses one adapter; adapters hold the OS handles for the locks they acquire.
type Adapter interface {
	// IsClientPIDValid reports whether the published Client PID refers to
	// a live process. Absent or unparsable records read as false.
	IsClientPIDValid() bool

	// SetClientPID publishes this process's PID as the Client PID.
	SetClientPID() error

	// Connect attaches to a live listener's command mailbox for writing.
	// Success means someone (Client or supervisor peer) is listening.
	Connect() bool

	// Listen claims the command mailbox and delivers each forwarded
	// command line to handler from a background reader.
	Listen(handler func(line string)) error

	// Send writes one command line to the mailbox opened by Connect or
	// Listen. Arguments are joined with POSIX shell quoting so the
	// receiver's tokenization round-trips.
	Send(args []string) error

	// Unlock releases the Client single-instance slot: stops and joins
	// the reader, closes the mailbox. Idempotent.
	Unlock()

	// AcquireInstanceLock takes the supervisor's own singleton. Returns
	// false when a peer supervisor holds it. Idempotent while held.
	AcquireInstanceLock() (bool, error)

	// ReleaseInstanceLock drops the singleton. Idempotent.
	ReleaseInstanceLock()

	// WaitForClientExit blocks until the process behind the published
	// Client PID is gone. Returns immediately when none is running.
	WaitForClientExit()
}

// Config carries the host-specific locations of the protocol state. The
// Windows adapter uses fixed registry/object names and ignores the paths.
type Config struct {
	// PIDFile is the Client's PID record (~/.steam/steam.pid on POSIX).
	PIDFile string
	// PipeFile is the command FIFO (~/.steam/steam.pipe on POSIX).
	PipeFile string
	// LockFile is the acolyte singleton lock (<root>/acolyte/acolyte.lock
	// on POSIX).
	LockFile string

	Logger *slog.Logger
}

// New returns the adapter for the running platform.
func New(cfg Config) Adapter {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return newAdapter(cfg)
}
