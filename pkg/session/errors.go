package session

import "errors"

var (
	ErrLockRequired = errors.New("client lock not held")
	ErrNoCookie     = errors.New("no stored login cookie")
	ErrSpawnClient  = errors.New("spawn client")
)
