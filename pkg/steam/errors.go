package steam

import "errors"

var (
	ErrNoInstallation = errors.New("unable to find steam user path")
	ErrReadUsers      = errors.New("read loginusers.vdf")
	ErrReadConfig     = errors.New("read steam config")
	ErrWriteConfig    = errors.New("write steam config")
	ErrReadRegistry   = errors.New("read steam registry")
	ErrWriteRegistry  = errors.New("write steam registry")
	ErrCookieCopy     = errors.New("copy login cookie")
)
