package cli

import (
	"context"
)

// PlatformsCmd provides a command to list known platforms.
type PlatformsCmd struct {
}

// Execute executes the command.
func (c *PlatformsCmd) Execute(ctx context.Context, cctx *Context, args ...string) error {
	registry, err := cctx.Project.Registry()
	if err != nil {
		return err
	}
	var entries []*PlatformEntry
	for _, p := range registry.Platforms() {
		entries = append(entries, &PlatformEntry{
			Name:       p.Name,
			Archive:    p.ArchivePath,
			Available:  registry.IsAvailable(p.Name),
			Executable: p.Executable,
			Host:       p.IsHost(),
		})
	}
	cctx.UI.PrintPlatformList(entries)
	return nil
}
