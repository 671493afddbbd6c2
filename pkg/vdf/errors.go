package vdf

import "errors"

var (
	ErrParse    = errors.New("malformed vdf")
	ErrReadFile = errors.New("read vdf file")
	ErrSaveFile = errors.New("write vdf file")
)
