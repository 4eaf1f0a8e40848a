package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// RunCmd executes the packaged executable of the host platform.
type RunCmd struct {
}

// Execute executes the command.
func (c *RunCmd) Execute(ctx context.Context, cctx *Context, args ...string) error {
	result, err := cctx.Plan()
	if err != nil {
		return err
	}
	for _, b := range result.Builds {
		if !b.Platform.IsHost() {
			continue
		}
		execFn := filepath.Join(b.OutDir, b.Platform.Executable)
		if _, err := os.Stat(execFn); err != nil {
			return fmt.Errorf("%s is not built: %w", b.Name(), err)
		}
		cctx.Logger.Printf("Running %s", execFn)
		cmd := exec.CommandContext(ctx, execFn, args...)
		cmd.Dir = b.OutDir
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				os.Exit(exitErr.ExitCode())
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("no platform runs on this host")
}
