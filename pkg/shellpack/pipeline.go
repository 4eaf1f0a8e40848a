package shellpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"shellpack/pkg/shellpack/meta"
)

// EventHandler handles events from Pipeline.Run.
type EventHandler interface {
	HandleEvent(ctx context.Context, event PipelineEvent)
}

// EventHandlerFunc is func form of EventHandler.
type EventHandlerFunc func(context.Context, PipelineEvent)

// HandleEvent implements EventHandler.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event PipelineEvent) {
	f(ctx, event)
}

// PipelineEvent is the abstract of pipeline events.
type PipelineEvent interface {
	Pipeline() *Pipeline
	Result() *Result
}

// PipelineStartEvent is the event when Pipeline.Run starts dispatching.
type PipelineStartEvent struct {
	pipelineEventBase
	NumWorkers int
}

// PipelineEndEvent is the event when Pipeline.Run ends.
type PipelineEndEvent struct {
	pipelineEventBase
	Err error
}

// BuildStartEvent is the event indicates a worker picked up a build.
type BuildStartEvent struct {
	pipelineEventBase
	Build  *Build
	Worker int
}

// BuildStateEvent is the event of a state transition of a build.
// State and Err are snapshots, the Build itself is still owned by the worker.
type BuildStateEvent struct {
	pipelineEventBase
	Build *Build
	State BuildState
	Err   error
}

// BuildCompleteEvent is the event indicates a build is completed.
type BuildCompleteEvent struct {
	pipelineEventBase
	Build *Build
}

// Result is the outcome of a pipeline pass.
type Result struct {
	Product  string
	Version  string
	Metadata *meta.Metadata
	Manifest *Manifest
	// Builds are in registry order.
	Builds []*Build
}

// Pipeline packages the project for every platform in the registry.
type Pipeline struct {
	Project *Project
	// Registry overrides the registry of the project when set.
	Registry *Registry
	// NumWorkers is the number of builds running in parallel, default 1.
	NumWorkers   int
	EventHandler EventHandler
	// Logger receives diagnostics, discarded if nil.
	Logger *log.Logger
}

type execution struct {
	pipeline     *Pipeline
	result       *Result
	registry     *Registry
	pending      []*Build
	completed    int
	runningCount int
	numWorkers   int
	workers      errgroup.Group
	requestCh    chan *Build
	resultCh     chan *Build
	eventCh      chan PipelineEvent
	logger       *log.Logger
}

type pipelineEventBaseAccessor interface {
	eventBase() *pipelineEventBase
}

type pipelineEventBase struct {
	pipeline *Pipeline
	result   *Result
}

func (e *pipelineEventBase) Pipeline() *Pipeline {
	return e.pipeline
}

func (e *pipelineEventBase) Result() *Result {
	return e.result
}

func (e *pipelineEventBase) eventBase() *pipelineEventBase {
	return e
}

// NewPipeline creates a Pipeline for the project.
func NewPipeline(project *Project) *Pipeline {
	return &Pipeline{Project: project}
}

// Prepare runs the preflight steps: the version is resolved and the payload
// is selected. Nothing is written. The returned Result has one NotStarted
// build per platform.
func (p *Pipeline) Prepare() (*Result, error) {
	md, err := ResolveVersion(p.Project.RootDir)
	if err != nil {
		return nil, err
	}
	m, err := SelectPayload(p.Project.RootDir, p.Project.Config.Exclude)
	if err != nil {
		return nil, err
	}
	registry, err := p.registry()
	if err != nil {
		return nil, err
	}
	result := &Result{
		Product:  p.Project.Config.Product,
		Version:  md.Version,
		Metadata: md,
		Manifest: m,
	}
	for _, platform := range registry.Platforms() {
		result.Builds = append(result.Builds, &Build{
			Platform: platform,
			OutDir:   p.Project.OutDir(md.Version, platform),
		})
	}
	return result, nil
}

// Run executes a full pass.
// A preflight failure is returned with a nil Result. Otherwise the Result
// is always returned, with ErrSomeBuildsFailed if any build failed, or
// ErrIncomplete if the pass is cancelled.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result, err := p.Prepare()
	if err != nil {
		return nil, err
	}
	registry, err := p.registry()
	if err != nil {
		return nil, err
	}
	x := execution{
		pipeline:   p,
		result:     result,
		registry:   registry,
		pending:    append([]*Build(nil), result.Builds...),
		numWorkers: p.NumWorkers,
		logger:     p.Logger,
	}
	if x.numWorkers <= 0 {
		x.numWorkers = 1
	}
	if n := len(result.Builds); n > 0 && x.numWorkers > n {
		x.numWorkers = n
	}
	if x.logger == nil {
		x.logger = log.New(io.Discard, "", log.LstdFlags)
	}

	x.requestCh = make(chan *Build, x.numWorkers)
	x.resultCh = make(chan *Build, len(result.Builds))
	x.eventCh = make(chan PipelineEvent)

	return result, x.run(ctx)
}

func (p *Pipeline) registry() (*Registry, error) {
	if p.Registry != nil {
		return p.Registry, nil
	}
	return p.Project.Registry()
}

func (x *execution) haveWorkToDo() bool {
	return x.completed < len(x.result.Builds)
}

func (x *execution) run(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	for i := 0; i < x.numWorkers; i++ {
		index := i
		x.workers.Go(func() error {
			x.runWorker(workerCtx, index)
			return nil
		})
	}

	x.notifyEvent(ctx, &PipelineStartEvent{NumWorkers: x.numWorkers})

	x.logger.Printf("Packaging %s %s with %d workers", x.result.Product, x.result.Version, x.numWorkers)

	var err error
	for x.haveWorkToDo() {
		if err = x.enqueue(ctx); err != nil {
			break
		}

		if x.runningCount == 0 {
			break
		}

		if err = x.waitResults(ctx); err != nil {
			break
		}
	}

	x.logger.Println("Stopping workers")

	cancel()
	// Pull back builds not yet picked up by workers.
	x.drainRequests()
	close(x.requestCh)
	go func() {
		x.workers.Wait()
		close(x.resultCh)
		close(x.eventCh)
	}()

	// Workers may still be sending, drain both channels until closed.
	eventCh, resultCh := x.eventCh, x.resultCh
	for eventCh != nil || resultCh != nil {
		select {
		case event, ok := <-eventCh:
			if !ok {
				eventCh = nil
				continue
			}
			x.notifyEvent(ctx, event)
		case b, ok := <-resultCh:
			if !ok {
				resultCh = nil
				continue
			}
			x.complete(ctx, b)
		}
	}

	x.logger.Println("All workers stopped")

	if err == nil && x.haveWorkToDo() {
		err = ErrIncomplete
	}
	if err != nil && !errors.Is(err, ErrIncomplete) {
		err = fmt.Errorf("%w: %w", ErrIncomplete, err)
	}
	if err == nil {
		for _, b := range x.result.Builds {
			if b.Failed() {
				err = ErrSomeBuildsFailed
				break
			}
		}
	}

	x.notifyEvent(ctx, &PipelineEndEvent{Err: err})

	return err
}

func (x *execution) drainRequests() {
	for {
		select {
		case b := <-x.requestCh:
			x.pending = append([]*Build{b}, x.pending...)
			x.runningCount--
		default:
			return
		}
	}
}

func (x *execution) enqueue(ctx context.Context) error {
	for x.runningCount < x.numWorkers && len(x.pending) > 0 {
		b := x.pending[0]
		select {
		case <-ctx.Done():
			return ctx.Err()
		case x.requestCh <- b:
			x.pending = x.pending[1:]
			x.runningCount++
			x.logger.Printf("Enqueued build %s", b.Name())
		}
	}
	return nil
}

func (x *execution) waitResults(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case event := <-x.eventCh:
		x.notifyEvent(ctx, event)
	case b := <-x.resultCh:
		x.complete(ctx, b)
	}
	return nil
}

func (x *execution) complete(ctx context.Context, b *Build) {
	x.runningCount--
	if !b.State.Completed() {
		// Picked up after cancellation, never started.
		x.logger.Printf("Build %s not started", b.Name())
		return
	}
	x.completed++
	x.logger.Printf("Completed build %s, status: %s, err: %v", b.Name(), b.Status(), b.Err)
	x.notifyEvent(ctx, &BuildCompleteEvent{Build: b})
}

func (x *execution) notifyEvent(ctx context.Context, event PipelineEvent) {
	if handler := x.pipeline.EventHandler; handler != nil {
		base := event.(pipelineEventBaseAccessor).eventBase()
		base.pipeline, base.result = x.pipeline, x.result
		handler.HandleEvent(ctx, event)
	}
}

func (x *execution) runWorker(ctx context.Context, index int) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-x.requestCh:
			if !ok {
				return
			}
			if ctx.Err() == nil {
				x.logger.Printf("Worker %d start build %s", index, b.Name())
				x.execute(ctx, b, index)
				x.logger.Printf("Worker %d complete build %s", index, b.Name())
			}
			x.resultCh <- b
		}
	}
}

func (x *execution) execute(ctx context.Context, b *Build, worker int) {
	logger := log.New(x.logger.Writer(), "["+b.Name()+"] ", x.logger.Flags())
	b.StartTime = time.Now()
	defer func() {
		b.EndTime = time.Now()
	}()
	x.eventCh <- &BuildStartEvent{Build: b, Worker: worker}

	if !x.registry.IsAvailable(b.Name()) {
		b.Err = fmt.Errorf("%w: %s", ErrArchiveMissing, b.Platform.ArchivePath)
		logger.Printf("Skipped: %v", b.Err)
		x.transit(b, Skipped)
		return
	}
	x.transit(b, ArchiveChecked)

	logger.Printf("Assembling %s", b.OutDir)
	if err := Assemble(b.OutDir, x.result.Manifest); err != nil {
		x.fail(b, logger, err)
		return
	}
	x.transit(b, PayloadAssembled)

	logger.Printf("Extracting %s", b.Platform.ArchivePath)
	if err := Extract(ctx, b.Platform.ArchivePath, b.OutDir); err != nil {
		x.fail(b, logger, err)
		return
	}
	x.transit(b, RuntimeExtracted)

	switch err := RenameExecutable(b.OutDir, b.Platform); {
	case err == nil:
		logger.Printf("Renamed %s to %s", b.Platform.GenericExecutable, b.Platform.Executable)
		x.transit(b, ExecutableRenamed)
	case errors.Is(err, ErrExecutableNotFound):
		logger.Printf("Warning: %v", err)
		b.Warnings = append(b.Warnings, err)
	default:
		x.fail(b, logger, err)
		return
	}
	x.transit(b, Done)
}

func (x *execution) fail(b *Build, logger *log.Logger, err error) {
	logger.Printf("Failed: %v", err)
	b.Err = err
	x.transit(b, Failed)
}

func (x *execution) transit(b *Build, state BuildState) {
	b.State = state
	x.eventCh <- &BuildStateEvent{Build: b, State: state, Err: b.Err}
}
