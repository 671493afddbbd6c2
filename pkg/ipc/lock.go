package ipc

import (
	"log/slog"
	"time"
)

// Interval between retries of the acquire/listen race in Lock.
const lockRetryInterval = 50 * time.Millisecond

// Manager is the platform-independent locking state machine. It tracks the
// two locks a supervisor process can hold: its own singleton (the acolyte
// lock) and the Client single-instance slot. All in-process lock state lives
// here; the OS primitives stay authoritative, so a fresh process can always
// recover the true picture from the filesystem or registry.
type Manager struct {
	adapter Adapter
	router  *Router
	logger  *slog.Logger

	// exe is prepended to forwarded argument lists as argv[0], mirroring
	// what the Client's own secondary invocations send.
	exe string

	instanceHeld bool
	clientHeld   bool
}

// NewManager wires the adapter, the command router and the launcher path.
func NewManager(adapter Adapter, router *Router, exe string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		adapter: adapter,
		router:  router,
		exe:     exe,
		logger:  logger.With("component", "lock"),
	}
}

// Lock attempts to take both locks. It returns whether this process is the
// first acolyte instance and whether it now holds the Client lock.
//
// When a live Client (or a listening peer) is found, forward is delivered to
// it through the command channel and the Client lock is not taken. A nil
// forward sends nothing.
//
// The retry loop covers one window: a peer that holds the acolyte singleton
// but has not yet published its listener. Concluding "no Client, lock is
// ours" in that window would race the peer, so we sleep until the peer's
// pipe/event shows up or the singleton frees.
func (m *Manager) Lock(forward []string) (first, acquired bool, err error) {
	for {
		first, err = m.adapter.AcquireInstanceLock()
		if err != nil {
			return false, false, err
		}
		m.instanceHeld = m.instanceHeld || first

		if m.adapter.IsClientPIDValid() && m.adapter.Connect() {
			if forward != nil {
				if err := m.adapter.Send(append([]string{m.exe}, forward...)); err != nil {
					return first, false, err
				}
				m.logger.Debug("forwarded args to running instance", "args", forward)
			}
			return first, false, nil
		}

		if first {
			if err := m.adapter.SetClientPID(); err != nil {
				return true, false, err
			}
			if err := m.adapter.Listen(m.router.Deliver); err != nil {
				return true, false, err
			}
			m.clientHeld = true
			m.logger.Debug("client lock acquired")
			return true, true, nil
		}

		time.Sleep(lockRetryInterval)
	}
}

// WaitForLock blocks until the Client lock is held. Precondition: this
// process is the first acolyte instance but the Client was running when it
// started. Each failed attempt releases whatever partial state the attempt
// accumulated, then waits out the running Client.
func (m *Manager) WaitForLock() error {
	for {
		_, acquired, err := m.Lock(nil)
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}
		// The attempt may have opened the read side without also winning
		// the PID slot; drop it before blocking.
		m.Unlock()
		m.adapter.WaitForClientExit()
	}
}

// Unlock releases the Client lock only; the acolyte singleton stays held.
// Idempotent.
func (m *Manager) Unlock() {
	m.adapter.Unlock()
	if m.clientHeld {
		m.logger.Debug("client lock released")
	}
	m.clientHeld = false
}

// ReleaseInstanceLock drops the acolyte singleton. Called once at process
// exit.
func (m *Manager) ReleaseInstanceLock() {
	m.adapter.ReleaseInstanceLock()
	m.instanceHeld = false
}

// HasClientLock reports whether this process currently owns the Client
// single-instance slot.
func (m *Manager) HasClientLock() bool {
	return m.clientHeld
}

// HasInstanceLock reports whether this process owns the acolyte singleton.
func (m *Manager) HasInstanceLock() bool {
	return m.instanceHeld
}

// SendCommand delivers args to whichever process is listening on the command
// channel, without taking any lock. Used for dispatching -shutdown to a
// running Client. Returns ErrNoListener when nobody is listening.
func (m *Manager) SendCommand(args []string) error {
	if !m.adapter.Connect() {
		return ErrNoListener
	}
	return m.adapter.Send(append([]string{m.exe}, args...))
}
