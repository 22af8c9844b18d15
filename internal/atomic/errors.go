package atomic

import (
	"errors"
	"fmt"
)

var (
	// ErrDestinationExists indicates that the destination path already exists
	ErrDestinationExists = errors.New("destination already exists")

	// ErrSourceNotFound indicates that the source file does not exist
	ErrSourceNotFound = errors.New("source file not found")

	// ErrInvalidPath indicates an empty or malformed path argument
	ErrInvalidPath = errors.New("invalid path specified")
)

// MoveError represents an error that occurred during a move or copy
type MoveError struct {
	Op  string // Operation being performed
	Src string // Source path
	Dst string // Destination path
	Err error  // Underlying error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move operation failed: %s from %q to %q: %v", e.Op, e.Src, e.Dst, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// IsDestinationExists checks if the error indicates the destination exists
func IsDestinationExists(err error) bool {
	return errors.Is(err, ErrDestinationExists)
}
