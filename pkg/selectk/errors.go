package selectk

import (
	"errors"
	"math"
)

// MaxK is the largest k any entry point accepts.
const MaxK = math.MaxInt32

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnsupportedK    = errors.New("k not supported by algorithm")
)
