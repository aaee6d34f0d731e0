package lzmatch

import "tlog.app/go/errors"

var (
	ErrInvalidOptions = errors.New("lzmatch: invalid options")
	ErrNotInitialized = errors.New("lzmatch: match finder is not initialized")
	ErrNoStream       = errors.New("lzmatch: no input stream")
	ErrBadDistance    = errors.New("lzmatch: match distance out of range")
	ErrBadLength      = errors.New("lzmatch: match length out of range")
)
