package ipc

import "errors"

var (
	ErrOpenLockFile  = errors.New("open acolyte lock file")
	ErrWritePIDFile  = errors.New("write pid file")
	ErrCreatePipe    = errors.New("create command pipe")
	ErrOpenPipe      = errors.New("open command pipe")
	ErrSend          = errors.New("send command line")
	ErrNotConnected  = errors.New("no command channel open")
	ErrNoListener    = errors.New("no running instance to forward to")
	ErrCreateEvent   = errors.New("create command event")
	ErrRegistryValue = errors.New("access command registry value")
)
