package checkpoint

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCheckpoint is returned by Load when no CURRENT pointer exists.
	ErrNoCheckpoint = errors.New("checkpoint: no checkpoint")

	// ErrCorrupt is returned when a checkpoint does not match its manifest.
	ErrCorrupt = errors.New("checkpoint: corrupt")

	// ErrUnsupported is returned for an unknown codec, compression or format.
	ErrUnsupported = errors.New("checkpoint: unsupported")
)

// CorruptError describes a checkpoint that failed validation.
type CorruptError struct {
	ID     string
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("checkpoint %s corrupt: %s", e.ID, e.Reason)
}

// Is reports ErrCorrupt.
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}
