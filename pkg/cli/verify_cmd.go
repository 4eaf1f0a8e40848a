package cli

import (
	"context"
	"errors"
	"fmt"

	"shellpack/pkg/shellpack"
)

// ErrPayloadMismatch indicates an output tree doesn't match the payload.
var ErrPayloadMismatch = errors.New("payload mismatch")

// VerifyCmd compares the payload with every existing output tree of the
// current version.
type VerifyCmd struct {
}

// Execute executes the command.
func (c *VerifyCmd) Execute(ctx context.Context, cctx *Context, args ...string) error {
	result, err := cctx.Plan()
	if err != nil {
		return err
	}
	var reports []*VerifyReport
	var mismatched []string
	for _, b := range result.Builds {
		exists, err := dirExists(b.OutDir)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		mismatches, err := shellpack.VerifyPayload(cctx.Project.RootDir, b.OutDir, result.Manifest)
		if err != nil {
			return fmt.Errorf("verify %s: %w", b.Name(), err)
		}
		reports = append(reports, &VerifyReport{Platform: b.Name(), OutDir: b.OutDir, Mismatches: mismatches})
		if len(mismatches) > 0 {
			mismatched = append(mismatched, b.Name())
		}
	}
	cctx.UI.PrintVerifyReports(reports)
	if len(mismatched) > 0 {
		return fmt.Errorf("%w: %q", ErrPayloadMismatch, mismatched)
	}
	return nil
}
