package device

import (
	"errors"
	"fmt"
)

var (
	ErrStreamClosed = errors.New("stream closed")
	ErrOutOfMemory  = errors.New("device out of memory")
)

// executionError converts a panic raised inside a stream operation into an
// error reported by Synchronize.
func executionError(rec any) error {
	if recErr, ok := rec.(error); ok {
		return fmt.Errorf("device execution failed: %w", recErr)
	}
	return fmt.Errorf("device execution failed: %v", rec)
}
