//go:build unix

package ipc

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	shellquote "github.com/kballard/go-shellquote"
	"golang.org/x/sys/unix"

	"acolyte.sh/internal/errx"
)

const exitPollInterval = 10 * time.Millisecond

type unixAdapter struct {
	cfg    Config
	logger *slog.Logger

	lockFD int
	pipeFD int
	reader *pipeReader
}

func newAdapter(cfg Config) Adapter {
	return &unixAdapter{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "ipc"),
		lockFD: -1,
		pipeFD: -1,
	}
}

func (a *unixAdapter) IsClientPIDValid() bool {
	return processRunning(a.readClientPID())
}

// readClientPID parses the PID record. Returns 0 for absent or garbage
// content; no PID 0 process can be probed, so 0 doubles as "none".
func (a *unixAdapter) readClientPID() int {
	data, err := os.ReadFile(a.cfg.PIDFile)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

func (a *unixAdapter) SetClientPID() error {
	pid := strconv.Itoa(os.Getpid())
	if err := os.MkdirAll(filepath.Dir(a.cfg.PIDFile), 0o755); err != nil {
		return errx.Wrap(ErrWritePIDFile, err)
	}
	if err := os.WriteFile(a.cfg.PIDFile, []byte(pid), 0o644); err != nil {
		return errx.Wrap(ErrWritePIDFile, err)
	}
	return nil
}

// Connect opens the FIFO write-side without blocking. The open only succeeds
// while a reader has the FIFO open, so success doubles as liveness proof for
// the listener.
func (a *unixAdapter) Connect() bool {
	fd, err := unix.Open(a.cfg.PipeFile, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return false
	}
	a.pipeFD = fd
	return true
}

// Listen creates the FIFO if needed and claims its read side.
//
// The FIFO is opened O_RDWR on purpose. O_RDONLY would block the open until a
// writer appears, and O_RDONLY|O_NONBLOCK leaves the descriptor permanently
// readable with empty reads. O_RDWR opens immediately, blocks properly in
// read, and lets the owner write a wakeup record into its own FIFO to release
// the reader. This is documented behavior, not an accident.
func (a *unixAdapter) Listen(handler func(line string)) error {
	if err := os.MkdirAll(filepath.Dir(a.cfg.PipeFile), 0o755); err != nil {
		return errx.Wrap(ErrCreatePipe, err)
	}
	if err := unix.Mkfifo(a.cfg.PipeFile, 0o644); err != nil && err != unix.EEXIST {
		return errx.Wrap(ErrCreatePipe, err)
	}
	fd, err := unix.Open(a.cfg.PipeFile, unix.O_RDWR, 0)
	if err != nil {
		return errx.Wrap(ErrOpenPipe, err)
	}
	a.pipeFD = fd

	reader, err := newPipeReader(fd, a.logger)
	if err != nil {
		unix.Close(fd)
		a.pipeFD = -1
		return errx.Wrap(ErrOpenPipe, err)
	}
	a.reader = reader
	go reader.run(handler)
	return nil
}

func (a *unixAdapter) Send(args []string) error {
	if a.pipeFD == -1 {
		return ErrNotConnected
	}
	line := shellquote.Join(args...) + "\n"
	if _, err := unix.Write(a.pipeFD, []byte(line)); err != nil {
		return errx.Wrap(ErrSend, err)
	}
	return nil
}

func (a *unixAdapter) Unlock() {
	if a.reader != nil {
		a.reader.stop(a.pipeFD)
		a.reader = nil
	}
	if a.pipeFD != -1 {
		unix.Close(a.pipeFD)
		a.pipeFD = -1
	}
}

// AcquireInstanceLock takes an fcntl advisory exclusive lock on the lock
// file. The lock dies with the descriptor, so a crashed supervisor never
// leaves a stale singleton behind.
func (a *unixAdapter) AcquireInstanceLock() (bool, error) {
	if a.lockFD != -1 {
		return true, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.LockFile), 0o755); err != nil {
		return false, errx.Wrap(ErrOpenLockFile, err)
	}
	fd, err := unix.Open(a.cfg.LockFile, unix.O_WRONLY|unix.O_CREAT, 0o644)
	if err != nil {
		return false, errx.Wrap(ErrOpenLockFile, err)
	}
	flock := unix.Flock_t{Type: unix.F_WRLCK, Whence: int16(unix.SEEK_SET)}
	if err := unix.FcntlFlock(uintptr(fd), unix.F_SETLK, &flock); err != nil {
		unix.Close(fd)
		return false, nil
	}
	a.lockFD = fd
	return true, nil
}

func (a *unixAdapter) ReleaseInstanceLock() {
	if a.lockFD != -1 {
		unix.Close(a.lockFD)
		a.lockFD = -1
	}
}

// WaitForClientExit polls the published PID with a signal-0 probe. Polling is
// explicit policy: we cannot wait(2) for a non-child, and the ptrace, netlink
// and inotify alternatives cost far more than a 10 ms sleep loop.
func (a *unixAdapter) WaitForClientExit() {
	pid := a.readClientPID()
	for processRunning(pid) {
		time.Sleep(exitPollInterval)
	}
}

func processRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	return unix.Kill(pid, 0) == nil
}

// pipeReader owns a dup of the FIFO descriptor and turns line-delimited
// records into handler calls. Dup-ing keeps the adapter's descriptor usable
// for the wakeup write while the reader blocks on its own copy.
type pipeReader struct {
	file    *os.File
	logger  *slog.Logger
	halting atomic.Bool
	done    chan struct{}
}

func newPipeReader(fd int, logger *slog.Logger) (*pipeReader, error) {
	dup, err := unix.Dup(fd)
	if err != nil {
		return nil, err
	}
	return &pipeReader{
		file:   os.NewFile(uintptr(dup), "steam.pipe"),
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

func (r *pipeReader) run(handler func(line string)) {
	defer close(r.done)
	scanner := bufio.NewScanner(r.file)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			handler(line)
		} else if r.halting.Load() {
			return
		}
	}
}

// stop wakes the reader with an empty record and joins it. Closing the
// descriptor under a blocked reader does not wake it; the sentinel write is
// the portable way out.
func (r *pipeReader) stop(wakeFD int) {
	r.halting.Store(true)
	if wakeFD != -1 {
		if _, err := unix.Write(wakeFD, []byte("\n")); err != nil {
			r.logger.Warn("wakeup write failed", "error", err)
		}
	}
	<-r.done
	r.file.Close()
}
