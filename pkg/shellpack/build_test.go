package shellpack

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testPlatform(name, goos string) *Platform {
	return &Platform{
		Name:              name,
		ArchivePath:       "/archives/" + name + ".zip",
		GenericExecutable: "electron",
		Executable:        "nibbler",
		GOOS:              goos,
	}
}

func TestBuild_Status(t *testing.T) {
	p := testPlatform("plan9", "plan9-never")
	cases := []struct {
		build  *Build
		status BuildStatus
	}{
		{&Build{Platform: p}, StatusNotRun},
		{&Build{Platform: p, State: RuntimeExtracted}, StatusNotRun},
		{&Build{Platform: p, State: Done}, StatusBuilt},
		{&Build{Platform: p, State: Done, Warnings: []error{ErrExecutableNotFound}}, StatusBuiltWithWarnings},
		{&Build{Platform: p, State: Skipped, Err: fmt.Errorf("%w: x", ErrArchiveMissing)}, StatusSkipped},
		{&Build{Platform: p, State: Failed, Err: fmt.Errorf("%w: x", ErrArchive)}, StatusFailed},
		{&Build{Platform: p, State: Failed, Err: ErrDirectoryExists}, StatusFailed},
	}
	for _, c := range cases {
		assert.Equal(t, c.status, c.build.Status(), "state %s err %v", c.build.State, c.build.Err)
	}
}

func TestBuild_Message(t *testing.T) {
	p := testPlatform("plan9", "plan9-never")
	b := &Build{Platform: p, State: Skipped, Err: fmt.Errorf("%w: %s", ErrArchiveMissing, p.ArchivePath)}
	assert.Equal(t, "Skipping build for plan9 (/archives/plan9.zip not present)", b.Message())

	host := testPlatform("host", runtime.GOOS)
	b = &Build{Platform: host, State: Skipped, Err: fmt.Errorf("%w: %s", ErrArchiveMissing, host.ArchivePath)}
	assert.Equal(t, "/archives/host.zip not present; this is a problem if you are hoping to test locally", b.Message())

	b = &Build{Platform: p, OutDir: "/dist/nibbler-1.0-plan9", State: Done}
	assert.Equal(t, "Built /dist/nibbler-1.0-plan9", b.Message())

	b.Warnings = []error{ErrExecutableNotFound}
	assert.Contains(t, b.Message(), ErrExecutableNotFound.Error())

	b = &Build{Platform: p, State: Failed, Err: ErrDirectoryExists}
	assert.Contains(t, b.Message(), "Build for plan9 failed")
}

func TestBuildState(t *testing.T) {
	assert.Equal(t, "payload-assembled", PayloadAssembled.String())
	assert.Equal(t, "state(42)", BuildState(42).String())
	for _, s := range []BuildState{Done, Skipped, Failed} {
		assert.True(t, s.Completed(), s.String())
	}
	for _, s := range []BuildState{NotStarted, ArchiveChecked, ExecutableRenamed} {
		assert.False(t, s.Completed(), s.String())
	}
}

func TestBuild_Duration(t *testing.T) {
	start := time.Now()
	b := &Build{StartTime: start, EndTime: start.Add(time.Second)}
	assert.Equal(t, time.Second, b.Duration())
	assert.Zero(t, (&Build{}).Duration())
}
