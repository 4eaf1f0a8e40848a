package shellpack

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Build wraps a platform with states for packaging.
type Build struct {
	Platform  *Platform
	OutDir    string
	State     BuildState
	StartTime time.Time
	EndTime   time.Time
	// Warnings are non-fatal anomalies, e.g. ErrExecutableNotFound.
	Warnings []error
	Err      error
}

// BuildState is the state of a build.
type BuildState int

// Values of BuildState
const (
	NotStarted BuildState = iota
	ArchiveChecked
	PayloadAssembled
	RuntimeExtracted
	ExecutableRenamed
	Done
	Skipped
	Failed
)

// BuildStatus is the outcome of a build.
type BuildStatus string

// Values of BuildStatus
const (
	StatusNotRun            BuildStatus = "not-run"
	StatusBuilt             BuildStatus = "built"
	StatusBuiltWithWarnings BuildStatus = "built-with-warnings"
	StatusSkipped           BuildStatus = "skipped"
	StatusFailed            BuildStatus = "failed"
)

var buildStateNames = map[BuildState]string{
	NotStarted:        "not-started",
	ArchiveChecked:    "archive-checked",
	PayloadAssembled:  "payload-assembled",
	RuntimeExtracted:  "runtime-extracted",
	ExecutableRenamed: "executable-renamed",
	Done:              "done",
	Skipped:           "skipped",
	Failed:            "failed",
}

func (s BuildState) String() string {
	if name, ok := buildStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Completed indicates the build reached a final state.
func (s BuildState) Completed() bool {
	return s == Done || s == Skipped || s == Failed
}

// Name returns the platform name.
func (b *Build) Name() string {
	return b.Platform.Name
}

// Failed indicates the build failed.
func (b *Build) Failed() bool {
	return b.Err != nil && !b.Skipped()
}

// Skipped indicates the build is skipped because the archive is absent.
func (b *Build) Skipped() bool {
	return errors.Is(b.Err, ErrArchiveMissing)
}

// Status returns the outcome of the build.
func (b *Build) Status() BuildStatus {
	switch {
	case b.Skipped():
		return StatusSkipped
	case b.Failed():
		return StatusFailed
	case b.State != Done:
		return StatusNotRun
	case len(b.Warnings) > 0:
		return StatusBuiltWithWarnings
	}
	return StatusBuilt
}

// Message returns a human-readable description of the outcome.
func (b *Build) Message() string {
	switch b.Status() {
	case StatusSkipped:
		if b.Platform.IsHost() {
			return fmt.Sprintf("%s not present; this is a problem if you are hoping to test locally", b.Platform.ArchivePath)
		}
		return fmt.Sprintf("Skipping build for %s (%s not present)", b.Name(), b.Platform.ArchivePath)
	case StatusFailed:
		return fmt.Sprintf("Build for %s failed: %v", b.Name(), b.Err)
	case StatusNotRun:
		return fmt.Sprintf("Build for %s did not complete (%s)", b.Name(), b.State)
	case StatusBuiltWithWarnings:
		msgs := make([]string, 0, len(b.Warnings))
		for _, w := range b.Warnings {
			msgs = append(msgs, w.Error())
		}
		return fmt.Sprintf("Built %s with warnings: %s", b.OutDir, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("Built %s", b.OutDir)
}

// Duration returns the elapsed time of the build.
func (b *Build) Duration() time.Duration {
	if b.StartTime.IsZero() || b.EndTime.IsZero() {
		return 0
	}
	return b.EndTime.Sub(b.StartTime)
}
