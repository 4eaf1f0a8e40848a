package cli

import (
	"context"
)

// CheckCmd runs the preflight steps without writing anything.
type CheckCmd struct {
}

// Execute executes the command.
func (c *CheckCmd) Execute(ctx context.Context, cctx *Context, args ...string) error {
	result, err := cctx.Plan()
	if err != nil {
		return err
	}
	cctx.UI.PrintPlan(result)
	return nil
}
