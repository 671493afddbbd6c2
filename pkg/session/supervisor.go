// Package session orchestrates one switch-and-launch cycle: rewrite the
// login config, hand the single-instance slot to the real Client, supervise
// the session, then take the slot back and capture whatever credentials the
// Client refreshed.
package session

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"acolyte.sh/internal/errx"
	"acolyte.sh/pkg/logging"
)

// Locker is the lock manager surface the supervisor drives.
// Satisfied by *ipc.Manager.
type Locker interface {
	WaitForLock() error
	Unlock()
	HasClientLock() bool
	SendCommand(args []string) error
}

// CookieStore is the credential-snapshot surface the supervisor drives.
// Satisfied by *steam.Steam.
type CookieStore interface {
	SwitchUser(username string) (bool, error)
	StoreLoginCookie() (bool, error)
}

// Supervisor runs Client sessions while keeping the locking invariants:
// config is only touched with the Client lock held, and the lock is released
// for exactly the lifetime of the spawned Client.
type Supervisor struct {
	store   CookieStore
	locks   Locker
	emitter *logging.Emitter
	logger  *slog.Logger

	exe string
	// defaultArgs are passed to every spawn, merged before per-session
	// extras.
	defaultArgs []string

	// Output receives the Client's stdout/stderr. Defaults to the
	// supervisor's own streams.
	Output io.Writer

	// runClient performs the actual spawn-and-wait. Overridable in tests.
	runClient func(args []string) (int, error)
}

// New wires a supervisor. A nil emitter disables event logging.
func New(store CookieStore, locks Locker, exe string, defaultArgs []string,
	emitter *logging.Emitter, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Supervisor{
		store:       store,
		locks:       locks,
		emitter:     emitter,
		logger:      logger.With("component", "session"),
		exe:         exe,
		defaultArgs: defaultArgs,
	}
	s.runClient = s.spawn
	return s
}

// Switch rewrites the login config for username without launching anything.
// Requires the Client lock. Returns ErrNoCookie when the user has no stored
// cookie; the config is left untouched in that case.
func (s *Supervisor) Switch(username string) error {
	if !s.locks.HasClientLock() {
		return ErrLockRequired
	}
	ok, err := s.store.SwitchUser(username)
	if err != nil {
		return err
	}
	if !ok {
		return errx.Wrapf(ErrNoCookie, nil, "%q", username)
	}
	_ = s.emitter.Emit(logging.EventUserSwitched, "switched login config", username,
		&logging.SwitchData{CookieRestored: username != ""})
	return nil
}

// Store captures the current login cookie. Requires the Client lock.
func (s *Supervisor) Store() error {
	if !s.locks.HasClientLock() {
		return ErrLockRequired
	}
	stored, err := s.store.StoreLoginCookie()
	if err != nil {
		return err
	}
	if stored {
		_ = s.emitter.Emit(logging.EventCookieStored, "captured login cookie", "", nil)
	}
	return nil
}

// Start runs one full cycle: switch to username, release the Client lock,
// spawn the Client with the default and extra args, wait for it to exit,
// retake the lock and capture the refreshed cookie.
//
// The Client is never terminated from here; the session ends when the user
// closes it (or a peer forwards -shutdown to it).
func (s *Supervisor) Start(username string, extraArgs []string) error {
	if err := s.Switch(username); err != nil {
		return err
	}

	s.locks.Unlock()
	_ = s.emitter.Emit(logging.EventLockReleased, "released client lock for session", username, nil)

	args := append(append([]string(nil), s.defaultArgs...), extraArgs...)
	s.logger.Info("starting client", "user", username, "args", args)
	_ = s.emitter.Emit(logging.EventSessionStart, "client started", username, nil)

	began := time.Now()
	code, err := s.runClient(args)
	if err != nil {
		// The lock must be retaken even when the spawn failed, or the
		// supervisor is left unable to touch config again.
		if lockErr := s.locks.WaitForLock(); lockErr != nil {
			s.logger.Error("relock after failed spawn", "error", lockErr)
		}
		return errx.Wrap(ErrSpawnClient, err)
	}
	_ = s.emitter.Emit(logging.EventSessionExit, "client exited", username,
		&logging.SessionExitData{ExitCode: code, DurationMS: time.Since(began).Milliseconds()})
	s.logger.Info("client exited", "user", username, "code", code)

	if err := s.locks.WaitForLock(); err != nil {
		return err
	}
	_ = s.emitter.Emit(logging.EventLockAcquired, "client lock reacquired", "", nil)

	stored, err := s.store.StoreLoginCookie()
	if err != nil {
		return err
	}
	if stored {
		_ = s.emitter.Emit(logging.EventCookieStored, "captured login cookie", username, nil)
	}
	return nil
}

// Stop asks a running Client to exit by forwarding -shutdown through the
// command channel. Works without holding the Client lock; returns
// ipc.ErrNoListener (via the Locker) when nothing is running.
func (s *Supervisor) Stop() error {
	return s.locks.SendCommand([]string{"-shutdown"})
}

// spawn launches the Client and waits for it. The exit status of the Client
// is reported, not treated as the supervisor's own failure.
func (s *Supervisor) spawn(args []string) (int, error) {
	cmd := exec.Command(s.exe, args...)
	out := s.Output
	if out == nil {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = out
		cmd.Stderr = out
	}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}
