package cli

import (
	"context"
	"fmt"
	"os"
)

// CleanCmd removes output trees of the current version.
type CleanCmd struct {
}

// Execute executes the command.
func (c *CleanCmd) Execute(ctx context.Context, cctx *Context, args ...string) error {
	result, err := cctx.Plan()
	if err != nil {
		return err
	}
	var removed []string
	for _, b := range result.Builds {
		exists, err := dirExists(b.OutDir)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		cctx.Logger.Printf("Removing %s", b.OutDir)
		if err := os.RemoveAll(b.OutDir); err != nil {
			return fmt.Errorf("remove %q error: %w", b.OutDir, err)
		}
		removed = append(removed, b.OutDir)
	}
	cctx.UI.PrintCleaned(removed)
	return nil
}
