package block

import (
	"errors"
	"fmt"
)

var (
	// ErrBuild marks failures of a capability build.
	ErrBuild = errors.New("build failure")

	// ErrEnumeration is returned when a structure enumerates rows that do not
	// match its reported size.
	ErrEnumeration = errors.New("inconsistent enumeration")
)

// BuildError reports a failed build of a block at Level over Elements elements.
// Unwrap returns the capability's error unchanged.
type BuildError struct {
	Level    int
	Elements int
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build failure at level %d (%d elements): %v", e.Level, e.Elements, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Is makes every BuildError match ErrBuild.
func (e *BuildError) Is(target error) bool { return target == ErrBuild }
