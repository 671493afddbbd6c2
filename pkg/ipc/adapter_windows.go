//go:build windows

package ipc

import (
	"log/slog"
	"os"

	shellquote "github.com/kballard/go-shellquote"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"acolyte.sh/internal/errx"
)

const (
	// The Client's single-instance state lives under the 32-bit view of
	// HKLM: a DWORD PID slot and a string mailbox for command lines.
	clientStateKey = `SOFTWARE\WOW6432Node\Valve\Steam`
	pidValueName   = "SteamPID"
	cmdValueName   = "TempAppCmdLine"

	// Auto-reset kernel event the Client waits on; signalling it makes the
	// listener read and clear the mailbox.
	ipcEventName = `Global\Valve_SteamIPC_Class`

	// The supervisor's own singleton, independent of the Client's state.
	instanceMutexName = `acolyte-instance-lock-{4F0BE4F0-7A4B-4E6B-93D2-1C4B37E1C0D9}`
)

type windowsAdapter struct {
	logger *slog.Logger

	event      windows.Handle // command event, from Listen or Connect
	stopEvent  windows.Handle
	mutex      windows.Handle
	readerDone chan struct{}
}

func newAdapter(cfg Config) Adapter {
	return &windowsAdapter{logger: cfg.Logger.With("component", "ipc")}
}

func (a *windowsAdapter) IsClientPIDValid() bool {
	pid := a.readClientPID()
	if pid == 0 {
		return false
	}
	handle, err := windows.OpenProcess(windows.SYNCHRONIZE, false, pid)
	if err != nil {
		return false
	}
	defer windows.CloseHandle(handle)
	event, err := windows.WaitForSingleObject(handle, 0)
	return err == nil && event == uint32(windows.WAIT_TIMEOUT)
}

func (a *windowsAdapter) readClientPID() uint32 {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, clientStateKey, registry.QUERY_VALUE)
	if err != nil {
		return 0
	}
	defer key.Close()
	pid, _, err := key.GetIntegerValue(pidValueName)
	if err != nil {
		return 0
	}
	return uint32(pid)
}

func (a *windowsAdapter) SetClientPID() error {
	return a.writeClientPID(uint32(os.Getpid()))
}

func (a *windowsAdapter) writeClientPID(pid uint32) error {
	key, _, err := registry.CreateKey(registry.LOCAL_MACHINE, clientStateKey, registry.SET_VALUE)
	if err != nil {
		return errx.Wrap(ErrWritePIDFile, err)
	}
	defer key.Close()
	if err := key.SetDWordValue(pidValueName, pid); err != nil {
		return errx.Wrap(ErrWritePIDFile, err)
	}
	return nil
}

// Connect opens the named command event for signalling. The event exists only
// while a listener (Client or supervisor peer) has created it.
func (a *windowsAdapter) Connect() bool {
	name, err := windows.UTF16PtrFromString(ipcEventName)
	if err != nil {
		return false
	}
	handle, err := windows.OpenEvent(windows.EVENT_MODIFY_STATE, false, name)
	if err != nil {
		return false
	}
	a.event = handle
	return true
}

// Listen creates the auto-reset command event and starts a waiter that drains
// the registry mailbox each time the event fires. Cancellation goes through a
// private stop event so the waiter never holds a closed handle.
func (a *windowsAdapter) Listen(handler func(line string)) error {
	name, err := windows.UTF16PtrFromString(ipcEventName)
	if err != nil {
		return errx.Wrap(ErrCreateEvent, err)
	}
	event, err := windows.CreateEvent(nil, 0, 0, name)
	if err != nil {
		return errx.Wrap(ErrCreateEvent, err)
	}
	stop, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		windows.CloseHandle(event)
		return errx.Wrap(ErrCreateEvent, err)
	}
	a.event = event
	a.stopEvent = stop
	a.readerDone = make(chan struct{})
	go a.waitLoop(handler)
	return nil
}

func (a *windowsAdapter) waitLoop(handler func(line string)) {
	defer close(a.readerDone)
	handles := []windows.Handle{a.event, a.stopEvent}
	for {
		event, err := windows.WaitForMultipleObjects(handles, false, windows.INFINITE)
		if err != nil || event != windows.WAIT_OBJECT_0 {
			return
		}
		line, err := a.takeCommandLine()
		if err != nil {
			a.logger.Warn("read command mailbox", "error", err)
			continue
		}
		if line != "" {
			handler(line)
		}
	}
}

// takeCommandLine reads and clears the mailbox value.
func (a *windowsAdapter) takeCommandLine() (string, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, clientStateKey,
		registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return "", errx.Wrap(ErrRegistryValue, err)
	}
	defer key.Close()
	line, _, err := key.GetStringValue(cmdValueName)
	if err != nil {
		if err == registry.ErrNotExist {
			return "", nil
		}
		return "", errx.Wrap(ErrRegistryValue, err)
	}
	if err := key.SetStringValue(cmdValueName, ""); err != nil {
		return "", errx.Wrap(ErrRegistryValue, err)
	}
	return line, nil
}

// Send writes the joined command line to the mailbox, then signals the event.
// The write happens-before the signal, so the listener always finds the line.
func (a *windowsAdapter) Send(args []string) error {
	if a.event == 0 {
		return ErrNotConnected
	}
	key, _, err := registry.CreateKey(registry.LOCAL_MACHINE, clientStateKey, registry.SET_VALUE)
	if err != nil {
		return errx.Wrap(ErrSend, err)
	}
	defer key.Close()
	if err := key.SetStringValue(cmdValueName, shellquote.Join(args...)); err != nil {
		return errx.Wrap(ErrSend, err)
	}
	if err := windows.SetEvent(a.event); err != nil {
		return errx.Wrap(ErrSend, err)
	}
	return nil
}

func (a *windowsAdapter) Unlock() {
	if a.stopEvent != 0 {
		windows.SetEvent(a.stopEvent)
		<-a.readerDone
		windows.CloseHandle(a.stopEvent)
		a.stopEvent = 0
		a.readerDone = nil
		if err := a.writeClientPID(0); err != nil {
			a.logger.Warn("clear client pid", "error", err)
		}
	}
	if a.event != 0 {
		windows.CloseHandle(a.event)
		a.event = 0
	}
}

func (a *windowsAdapter) AcquireInstanceLock() (bool, error) {
	if a.mutex != 0 {
		return true, nil
	}
	name, err := windows.UTF16PtrFromString(instanceMutexName)
	if err != nil {
		return false, errx.Wrap(ErrOpenLockFile, err)
	}
	handle, err := windows.CreateMutex(nil, false, name)
	if err == windows.ERROR_ALREADY_EXISTS {
		windows.CloseHandle(handle)
		return false, nil
	}
	if err != nil {
		return false, errx.Wrap(ErrOpenLockFile, err)
	}
	a.mutex = handle
	return true, nil
}

func (a *windowsAdapter) ReleaseInstanceLock() {
	if a.mutex != 0 {
		windows.CloseHandle(a.mutex)
		a.mutex = 0
	}
}

func (a *windowsAdapter) WaitForClientExit() {
	pid := a.readClientPID()
	if pid == 0 {
		return
	}
	handle, err := windows.OpenProcess(windows.SYNCHRONIZE, false, pid)
	if err != nil {
		return
	}
	defer windows.CloseHandle(handle)
	windows.WaitForSingleObject(handle, windows.INFINITE)
}
