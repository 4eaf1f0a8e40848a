package cli

import (
	"context"
	"errors"
	"fmt"

	"shellpack/pkg/shellpack"
)

// BuildCmd provides a build command.
type BuildCmd struct {
}

// Execute executes the command.
func (c *BuildCmd) Execute(ctx context.Context, cctx *Context, args ...string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}
	_, err := c.Build(ctx, cctx)
	return err
}

// Build runs a full pass over all platforms.
func (c *BuildCmd) Build(ctx context.Context, cctx *Context) (*shellpack.Result, error) {
	pipeline := cctx.NewPipeline()
	pipeline.EventHandler = cctx.UI.BuildEventHandler(EventHandlingOptions{ShowStates: cctx.Verbose})
	result, err := pipeline.Run(ctx)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			err = fmt.Errorf("timeout")
		case errors.Is(err, context.Canceled):
			err = fmt.Errorf("canceled, remove the incomplete output directories with \"clean\" before rerun")
		case errors.Is(err, shellpack.ErrSomeBuildsFailed):
			err = fmt.Errorf("some builds failed, remove the failed output directories with \"clean\" before rerun")
		}
	}
	return result, err
}
