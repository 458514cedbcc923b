package model

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the parent of every malformed user input error.
	ErrValidation = errors.New("validation error")

	ErrMalformedNumbers  = fmt.Errorf("%w: empty or malformed number list", ErrValidation)
	ErrMalformedGrade    = fmt.Errorf("%w: grade must be a single integer", ErrValidation)
	ErrMalformedReminder = fmt.Errorf("%w: reminder must look like HH:MM message", ErrValidation)
	ErrMalformedPosition = fmt.Errorf("%w: position must be an integer", ErrValidation)
	ErrInvalidLogin      = fmt.Errorf("%w: login must look like login NIM", ErrValidation)

	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrNoPendingMode     = errors.New("no pending mode")
	ErrInvalidDelay      = errors.New("invalid delay")
	ErrInvalidTimeFormat = errors.New("invalid time format")
	ErrNotLoggedIn       = errors.New("not logged in")
)
