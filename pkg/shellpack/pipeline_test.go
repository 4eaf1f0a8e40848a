package shellpack

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventRecorder struct {
	events []string
	states map[string][]BuildState
}

func (r *eventRecorder) HandleEvent(ctx context.Context, event PipelineEvent) {
	if r.states == nil {
		r.states = make(map[string][]BuildState)
	}
	switch ev := event.(type) {
	case *PipelineStartEvent:
		r.events = append(r.events, fmt.Sprintf("start %d", ev.NumWorkers))
	case *PipelineEndEvent:
		r.events = append(r.events, fmt.Sprintf("end %v", ev.Err))
	case *BuildStartEvent:
		r.events = append(r.events, "build-start "+ev.Build.Name())
	case *BuildStateEvent:
		r.states[ev.Build.Name()] = append(r.states[ev.Build.Name()], ev.State)
	case *BuildCompleteEvent:
		r.events = append(r.events, "build-complete "+ev.Build.Name()+" "+string(ev.Build.Status()))
	}
}

func findBuild(t *testing.T, result *Result, name string) *Build {
	t.Helper()
	for _, b := range result.Builds {
		if b.Name() == name {
			return b
		}
	}
	require.FailNow(t, "build not found", name)
	return nil
}

func TestPipeline_Run(t *testing.T) {
	project := newTestProject(t, "1.2.3")
	writeRuntimeArchive(t, project, Linux)

	var logs bytes.Buffer
	recorder := &eventRecorder{}
	p := NewPipeline(project)
	p.EventHandler = recorder
	p.Logger = log.New(&logs, "", 0)
	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "nibbler", result.Product)
	assert.Equal(t, "1.2.3", result.Version)
	require.Len(t, result.Builds, 2)

	win := findBuild(t, result, Windows)
	assert.Equal(t, StatusSkipped, win.Status())
	assert.Equal(t, Skipped, win.State)
	assert.ErrorIs(t, win.Err, ErrArchiveMissing)
	assert.Contains(t, win.Message(), "electron-v9.4.4-win32-x64.zip")
	assert.NoDirExists(t, win.OutDir)

	linux := findBuild(t, result, Linux)
	assert.Equal(t, StatusBuilt, linux.Status())
	assert.Equal(t, filepath.Join(project.RootDir, "dist", "nibbler-1.2.3-linux"), linux.OutDir)
	assert.NoFileExists(t, filepath.Join(linux.OutDir, "electron"))
	info, err := os.Stat(filepath.Join(linux.OutDir, "nibbler"))
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0755), info.Mode().Perm())
	assert.Equal(t, "runtime linux", readFile(t, filepath.Join(linux.OutDir, "nibbler")))
	assert.FileExists(t, filepath.Join(linux.OutDir, "locales", "en-US.pak"))
	assert.FileExists(t, filepath.Join(linux.OutDir, "resources", "default_app.asar"))

	appDir := AppDir(linux.OutDir)
	assert.FileExists(t, filepath.Join(appDir, "package.json"))
	assert.FileExists(t, filepath.Join(appDir, "main.js"))
	assert.NoFileExists(t, filepath.Join(appDir, "README.md"))
	assert.DirExists(t, filepath.Join(appDir, "modules", "empty"))
	mismatches, err := VerifyPayload(project.RootDir, linux.OutDir, result.Manifest)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	assert.Equal(t, []string{
		"start 1",
		"build-start windows",
		"build-complete windows skipped",
		"build-start linux",
		"build-complete linux built",
		"end <nil>",
	}, recorder.events)
	assert.Equal(t, []BuildState{Skipped}, recorder.states[Windows])
	assert.Equal(t, []BuildState{ArchiveChecked, PayloadAssembled, RuntimeExtracted, ExecutableRenamed, Done}, recorder.states[Linux])
	assert.Contains(t, logs.String(), "[linux] ")
}

func TestPipeline_Parallel(t *testing.T) {
	project := newTestProject(t, "2.0.0")
	writeRuntimeArchive(t, project, Linux)
	writeRuntimeArchive(t, project, Windows)

	p := NewPipeline(project)
	p.NumWorkers = 2
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	win := findBuild(t, result, Windows)
	linux := findBuild(t, result, Linux)
	assert.Equal(t, StatusBuilt, win.Status())
	assert.Equal(t, StatusBuilt, linux.Status())
	assert.NotEqual(t, win.OutDir, linux.OutDir)
	assert.Equal(t, "runtime windows", readFile(t, filepath.Join(win.OutDir, "nibbler.exe")))
	assert.Equal(t, "runtime linux", readFile(t, filepath.Join(linux.OutDir, "nibbler")))
	assert.NoFileExists(t, filepath.Join(win.OutDir, "nibbler"))
	assert.NoFileExists(t, filepath.Join(linux.OutDir, "nibbler.exe"))

	for _, b := range result.Builds {
		mismatches, err := VerifyPayload(project.RootDir, b.OutDir, result.Manifest)
		require.NoError(t, err)
		assert.Empty(t, mismatches, b.Name())
	}
}

func TestPipeline_NoArchives(t *testing.T) {
	project := newTestProject(t, "1.0.0")
	result, err := NewPipeline(project).Run(context.Background())
	require.NoError(t, err)
	for _, b := range result.Builds {
		assert.Equal(t, StatusSkipped, b.Status(), b.Name())
		assert.NoDirExists(t, b.OutDir)
	}
}

func TestPipeline_DirectoryExists(t *testing.T) {
	project := newTestProject(t, "1.2.3")
	writeRuntimeArchive(t, project, Linux)
	writeRuntimeArchive(t, project, Windows)
	stale := filepath.Join(project.DistDir(), "nibbler-1.2.3-linux")
	marker := writeFile(t, stale, "marker", "stale", 0644)

	result, err := NewPipeline(project).Run(context.Background())
	require.ErrorIs(t, err, ErrSomeBuildsFailed)
	require.NotNil(t, result)

	linux := findBuild(t, result, Linux)
	assert.Equal(t, StatusFailed, linux.Status())
	assert.ErrorIs(t, linux.Err, ErrDirectoryExists)
	assert.Equal(t, "stale", readFile(t, marker))

	win := findBuild(t, result, Windows)
	assert.Equal(t, StatusBuilt, win.Status())
	assert.FileExists(t, filepath.Join(win.OutDir, "nibbler.exe"))
}

func TestPipeline_CorruptArchive(t *testing.T) {
	project := newTestProject(t, "1.2.3")
	registry, err := project.Registry()
	require.NoError(t, err)
	writeFile(t, filepath.Dir(registry.Path(Linux)), filepath.Base(registry.Path(Linux)), "garbage", 0644)

	result, err := NewPipeline(project).Run(context.Background())
	require.ErrorIs(t, err, ErrSomeBuildsFailed)
	linux := findBuild(t, result, Linux)
	assert.Equal(t, StatusFailed, linux.Status())
	assert.Equal(t, Failed, linux.State)
	assert.ErrorIs(t, linux.Err, ErrArchive)
	assert.NotErrorIs(t, linux.Err, ErrArchiveMissing)
	// Incomplete output is left for the operator.
	assert.DirExists(t, AppDir(linux.OutDir))
}

func TestPipeline_MissingExecutable(t *testing.T) {
	project := newTestProject(t, "1.2.3")
	registry, err := project.Registry()
	require.NoError(t, err)
	writeZip(t, registry.Path(Linux), zipEntry{Name: "libffmpeg.so", Body: "lib", Mode: 0644})

	result, err := NewPipeline(project).Run(context.Background())
	require.NoError(t, err)
	linux := findBuild(t, result, Linux)
	assert.Equal(t, StatusBuiltWithWarnings, linux.Status())
	require.Len(t, linux.Warnings, 1)
	assert.ErrorIs(t, linux.Warnings[0], ErrExecutableNotFound)
	assert.FileExists(t, filepath.Join(linux.OutDir, "libffmpeg.so"))
}

func TestPipeline_Preflight(t *testing.T) {
	t.Run("missing folder", func(t *testing.T) {
		project := newTestProject(t, "1.2.3")
		writeRuntimeArchive(t, project, Linux)
		require.NoError(t, os.RemoveAll(filepath.Join(project.RootDir, "pieces")))

		result, err := NewPipeline(project).Run(context.Background())
		require.ErrorIs(t, err, ErrArtifact)
		assert.Nil(t, result)
		assert.NoDirExists(t, project.DistDir())
	})

	t.Run("missing version", func(t *testing.T) {
		project := newTestProject(t, "1.2.3")
		writeRuntimeArchive(t, project, Linux)
		writeFile(t, project.RootDir, "package.json", `{"name": "nibbler"}`, 0644)

		result, err := NewPipeline(project).Run(context.Background())
		require.ErrorIs(t, err, ErrMetadata)
		assert.Nil(t, result)
		assert.NoDirExists(t, project.DistDir())
	})
}

func TestPipeline_Cancelled(t *testing.T) {
	project := newTestProject(t, "1.2.3")
	writeRuntimeArchive(t, project, Linux)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recorder := &eventRecorder{}
	p := NewPipeline(project)
	p.EventHandler = recorder
	result, err := p.Run(ctx)
	require.ErrorIs(t, err, ErrIncomplete)
	for _, b := range result.Builds {
		assert.Equal(t, StatusNotRun, b.Status(), b.Name())
	}
	assert.NoDirExists(t, project.DistDir())
	require.NotEmpty(t, recorder.events)
	assert.Contains(t, recorder.events[len(recorder.events)-1], "end ")
}

func TestPipeline_Prepare(t *testing.T) {
	project := newTestProject(t, "3.1.4")
	result, err := NewPipeline(project).Prepare()
	require.NoError(t, err)
	assert.Equal(t, "3.1.4", result.Version)
	require.Len(t, result.Builds, 2)
	for _, b := range result.Builds {
		assert.Equal(t, NotStarted, b.State)
		assert.Equal(t, StatusNotRun, b.Status())
	}
	assert.NoDirExists(t, project.DistDir())
}

func TestPipeline_RegistryOverride(t *testing.T) {
	project := newTestProject(t, "1.2.3")
	writeRuntimeArchive(t, project, Linux)
	registry, err := project.Registry()
	require.NoError(t, err)

	p := NewPipeline(project)
	p.Registry, err = registry.Subset(Linux)
	require.NoError(t, err)
	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Builds, 1)
	assert.Equal(t, Linux, result.Builds[0].Name())
}
