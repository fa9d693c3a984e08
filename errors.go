package dynamize

import (
	"errors"
	"fmt"

	"github.com/hupe1980/dynamize/internal/block"
)

var (
	// ErrBuildFailure matches every error caused by a failed static build.
	ErrBuildFailure = block.ErrBuild

	// ErrQueryFailure matches every error caused by a failed per-block query.
	ErrQueryFailure = errors.New("query failure")

	// ErrCapacityOverflow is returned when an insertion would need more levels
	// than the container allows.
	ErrCapacityOverflow = errors.New("capacity overflow")

	// ErrNotFound is returned when Delete finds no live matching element.
	ErrNotFound = errors.New("element not found")

	// ErrDeleteUnsupported is returned by Delete when the capability does not
	// implement static.Locator. DeleteFunc works with every capability.
	ErrDeleteUnsupported = errors.New("delete requires a static.Locator")

	// ErrInvalidArgument is returned for invalid options.
	ErrInvalidArgument = errors.New("invalid argument")
)

// BuildError reports which merge step failed. errors.Unwrap yields the
// capability's error unchanged.
type BuildError = block.BuildError

// QueryError reports the level of the block whose query failed.
//
// The original capability error can be accessed via errors.Unwrap.
type QueryError struct {
	Level int
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failure at level %d: %v", e.Level, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func (e *QueryError) Is(target error) bool { return target == ErrQueryFailure }

// CapacityError reports a digit vector that outgrew MaxLevels.
type CapacityError struct {
	Levels    int
	MaxLevels int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity overflow: %d levels needed, %d allowed", e.Levels, e.MaxLevels)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacityOverflow }
