package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/term"

	"shellpack/pkg/shellpack"
)

// Command defines an abstract command.
type Command interface {
	Execute(ctx context.Context, cctx *Context, args ...string) error
}

// CommandFunc is the func form of Command.
type CommandFunc func(context.Context, *Context, ...string) error

// Execute implements Command.
func (f CommandFunc) Execute(ctx context.Context, cctx *Context, args ...string) error {
	return f(ctx, cctx, args...)
}

// EventHandlingOptions specifies options for how to handle build events.
type EventHandlingOptions struct {
	// ShowStates prints every state transition of builds.
	ShowStates bool
}

// PlatformEntry describes a known platform.
type PlatformEntry struct {
	Name       string `yaml:"name"`
	Archive    string `yaml:"archive"`
	Available  bool   `yaml:"available"`
	Executable string `yaml:"executable"`
	Host       bool   `yaml:"host"`
}

// StatusEntry describes the output tree of a platform for the current version.
type StatusEntry struct {
	Platform      string `yaml:"platform"`
	OutDir        string `yaml:"outDir"`
	Exists        bool   `yaml:"exists"`
	HasExecutable bool   `yaml:"hasExecutable"`
}

// VerifyReport is the outcome of verifying one output tree.
type VerifyReport struct {
	Platform   string               `yaml:"platform"`
	OutDir     string               `yaml:"outDir"`
	Mismatches []shellpack.Mismatch `yaml:"mismatches,omitempty"`
}

// UserInterface defines the abstraction for interacting with the user.
type UserInterface interface {
	BuildEventHandler(options EventHandlingOptions) shellpack.EventHandler
	PrintPlan(result *shellpack.Result)
	PrintPlatformList([]*PlatformEntry)
	PrintStatus([]*StatusEntry)
	PrintVerifyReports([]*VerifyReport)
	PrintCleaned(dirs []string)
	PrintError(err error)
}

// Context provides information about the environment for commands.
type Context struct {
	Project *shellpack.Project
	UI      UserInterface
	Logger  *log.Logger
	// NumWorkers is passed to the pipeline.
	NumWorkers int
	// Verbose enables state transition output.
	Verbose bool
}

// Output formats.
const (
	OutputText = "text"
	OutputYAML = "yaml"
)

// ContextBuilder is used to build Context.
type ContextBuilder struct {
	WorkDir    string
	TextUI     bool
	Verbose    bool
	NumWorkers int
	Platforms  []string
	Product    string
	Output     string
}

// BuildContext creates a context.
func (b *ContextBuilder) BuildContext() (*Context, error) {
	c := &Context{
		UI:         &TextPrinter{},
		Logger:     log.New(io.Discard, "", log.LstdFlags),
		NumWorkers: b.NumWorkers,
		Verbose:    b.Verbose,
	}
	switch b.Output {
	case "", OutputText:
		if !b.TextUI && term.IsTerminal(int(os.Stdout.Fd())) {
			c.UI = &TermPrinter{}
		}
	case OutputYAML:
		c.UI = &ReportPrinter{}
	default:
		err := fmt.Errorf("unknown output format %q", b.Output)
		c.UI.PrintError(err)
		return nil, err
	}
	if b.Verbose {
		c.Logger.SetOutput(os.Stderr)
	}
	project, err := shellpack.NewProject(b.WorkDir)
	if err != nil {
		c.UI.PrintError(err)
		return nil, err
	}
	if b.Product != "" {
		project.Config.Product = b.Product
	}
	if len(b.Platforms) > 0 {
		project.Config.Platforms = b.Platforms
	}
	c.Project = project
	return c, nil
}

// BuildAndRun builds the context and runs the command.
func (b *ContextBuilder) BuildAndRun(ctx context.Context, cmd Command, args ...string) error {
	cctx, err := b.BuildContext()
	if err != nil {
		return err
	}
	return cctx.RunCmd(ctx, cmd, args...)
}

// RunCmd runs a command.
func (c *Context) RunCmd(ctx context.Context, cmd Command, args ...string) error {
	if err := cmd.Execute(ctx, c, args...); err != nil {
		c.UI.PrintError(err)
		return err
	}
	return nil
}

// NewPipeline creates a pipeline for the project.
func (c *Context) NewPipeline() *shellpack.Pipeline {
	p := shellpack.NewPipeline(c.Project)
	p.NumWorkers = c.NumWorkers
	p.Logger = c.Logger
	return p
}

// Plan runs the preflight steps without writing anything.
func (c *Context) Plan() (*shellpack.Result, error) {
	return c.NewPipeline().Prepare()
}
