package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"acolyte.sh/internal/errx"
	"acolyte.sh/pkg/ipc"
	"acolyte.sh/pkg/logging"
	"acolyte.sh/pkg/session"
	"acolyte.sh/pkg/steam"
)

// app wires the full supervisor stack for one invocation: installation
// handle, platform adapter, lock manager, command router and session
// supervisor.
type app struct {
	steam   *steam.Steam
	router  *ipc.Router
	locks   *ipc.Manager
	sup     *session.Supervisor
	emitter *logging.Emitter
	logger  *slog.Logger
}

func newApp(cmd *cobra.Command) (*app, error) {
	logger, err := setupLogger(cmd)
	if err != nil {
		return nil, err
	}

	prefix := viper.GetString("acolyte.prefix")
	root := viper.GetString("acolyte.root")
	exe := viper.GetString("acolyte.exe")

	st, err := steam.New(root, exe, prefix, logger)
	if err != nil {
		return nil, err
	}

	var emitter *logging.Emitter
	if logfile := viper.GetString("acolyte.logfile"); logfile != "" {
		writer, err := logging.NewJSONLWriter(logfile)
		if err != nil {
			return nil, errx.Wrap(ErrOpenLogFile, err)
		}
		emitter = logging.NewEmitter(logging.EmitterConfig{Exe: st.Exe}, writer)
	}

	router := ipc.NewRouter(logger)
	adapter := ipc.New(ipc.Config{
		PIDFile:  filepath.Join(st.Home, ".steam", "steam.pid"),
		PipeFile: filepath.Join(st.Home, ".steam", "steam.pipe"),
		LockFile: filepath.Join(st.AcolyteDir(), "acolyte.lock"),
		Logger:   logger,
	})
	locks := ipc.NewManager(adapter, router, st.Exe, logger)
	sup := session.New(st, locks, st.Exe, nil, emitter, logger)

	return &app{
		steam:   st,
		router:  router,
		locks:   locks,
		sup:     sup,
		emitter: emitter,
		logger:  logger,
	}, nil
}

// acquire takes the locks for a primary invocation. It returns false when
// this process is a secondary instance: forward has been delivered to the
// running peer and the caller should exit 0. When the Client itself is
// running, acquire blocks until it exits and the lock is won.
func (a *app) acquire(forward []string) (bool, error) {
	first, locked, err := a.locks.Lock(forward)
	if err != nil {
		return false, err
	}
	if !first {
		fmt.Println("Acolyte is already running. Terminating.")
		_ = a.emitter.Emit(logging.EventCommandForwarded, "forwarded to running instance", "",
			&logging.CommandData{Args: forward})
		return false, nil
	}
	if !locked {
		fmt.Println("Waiting for steam to exit.")
		a.locks.Unlock()
		if err := a.locks.WaitForLock(); err != nil {
			return false, err
		}
	}
	_ = a.emitter.Emit(logging.EventLockAcquired, "client lock acquired", "", nil)
	return true, nil
}

// close releases everything an invocation may still hold. Safe to call on
// every exit path.
func (a *app) close() {
	a.locks.Unlock()
	a.locks.ReleaseInstanceLock()
	if err := a.emitter.Close(); err != nil {
		a.logger.Warn("close event log", "error", err)
	}
}

func setupLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level := slog.LevelWarn
	if viper.GetBool("acolyte.verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, nil
}

// fail prints a user-facing error to stderr.
func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
}
