package build

import (
	"context"
	"errors"
	"fmt"

	"github.com/goplus/sugar/internal/project"
	"github.com/goplus/sugar/internal/toolchain"
)

// Stage names the pipeline step a build failed in.
type Stage string

const (
	StageConfig      Stage = "config"
	StageDirectories Stage = "directories"
	StageDiscovery   Stage = "discovery"
	StageCompilation Stage = "compilation"
	StageLinking     Stage = "linking"
	StageTimeout     Stage = "timeout"
	StageUnexpected  Stage = "unexpected"
)

// ErrNoSources is reported at StageDiscovery when the source directory
// holds no translation units.
var ErrNoSources = project.ErrNoSources

// Error is a failed build.
type Error struct {
	Stage Stage

	// Source is the translation unit that failed to compile. It is only set
	// for StageCompilation and for timeouts hit while compiling.
	Source string

	Err error
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.Source, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StageOf returns the stage err was reported at, or "" if err is not a
// build error.
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// stageError classifies err. Deadlines and cancellations win over the stage
// they interrupted.
func stageError(stage Stage, source string, err error) *Error {
	if errors.Is(err, toolchain.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		stage = StageTimeout
	}
	return &Error{Stage: stage, Source: source, Err: err}
}
