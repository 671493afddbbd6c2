package main

import "errors"

var (
	ErrOpenLogFile = errors.New("open log file")
	ErrUserClosed  = errors.New("interrupted")
)
