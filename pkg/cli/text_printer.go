package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"shellpack/pkg/shellpack"
)

// TextPrinter provides an output-only UserInterface in plain text.
type TextPrinter struct {
	// Out and Err default to os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer
}

func (p *TextPrinter) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return os.Stdout
}

// BuildEventHandler implements UserInterface.
func (p *TextPrinter) BuildEventHandler(options EventHandlingOptions) shellpack.EventHandler {
	return &textEventPrinter{writer: p.out(), showStates: options.ShowStates}
}

// PrintPlan implements UserInterface.
func (p *TextPrinter) PrintPlan(result *shellpack.Result) {
	w := p.out()
	fmt.Fprintf(w, "Product: %s\n", result.Product)
	fmt.Fprintf(w, "Version: %s\n", result.Version)
	fmt.Fprintln(w, "Files:")
	for _, fn := range result.Manifest.Files {
		fmt.Fprintf(w, "  %s\n", fn)
	}
	fmt.Fprintln(w, "Folders:")
	for _, folder := range result.Manifest.Folders {
		fmt.Fprintf(w, "  %s\n", folder)
	}
	if result.Manifest.ExtraResources != "" {
		fmt.Fprintf(w, "Extra resources: %s\n", result.Manifest.ExtraResources)
	}
	fmt.Fprintln(w, "Platforms:")
	for _, b := range result.Builds {
		fmt.Fprintf(w, "  %s %s\n", b.Name(), b.OutDir)
	}
}

// PrintPlatformList implements UserInterface.
func (p *TextPrinter) PrintPlatformList(entries []*PlatformEntry) {
	for _, entry := range entries {
		availability := "missing"
		if entry.Available {
			availability = "available"
		}
		fmt.Fprintf(p.out(), "%s %s %s\n", entry.Name, entry.Archive, availability)
	}
}

// PrintStatus implements UserInterface.
func (p *TextPrinter) PrintStatus(entries []*StatusEntry) {
	for _, entry := range entries {
		state := "absent"
		switch {
		case entry.Exists && entry.HasExecutable:
			state = "built"
		case entry.Exists:
			state = "incomplete"
		}
		fmt.Fprintf(p.out(), "%s %s %s\n", entry.Platform, state, entry.OutDir)
	}
}

// PrintVerifyReports implements UserInterface.
func (p *TextPrinter) PrintVerifyReports(reports []*VerifyReport) {
	w := p.out()
	if len(reports) == 0 {
		fmt.Fprintln(w, "Nothing to verify")
		return
	}
	for _, report := range reports {
		if len(report.Mismatches) == 0 {
			fmt.Fprintf(w, "%s OK\n", report.Platform)
			continue
		}
		fmt.Fprintf(w, "%s MISMATCH %d\n", report.Platform, len(report.Mismatches))
		for _, m := range report.Mismatches {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}
}

// PrintCleaned implements UserInterface.
func (p *TextPrinter) PrintCleaned(dirs []string) {
	if len(dirs) == 0 {
		fmt.Fprintln(p.out(), "Nothing to clean")
		return
	}
	for _, dir := range dirs {
		fmt.Fprintf(p.out(), "Removed %s\n", dir)
	}
}

// PrintError implements UserInterface.
func (p *TextPrinter) PrintError(err error) {
	w := p.Err
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "Error: %v.\n", err)
}

type buildCounters struct {
	built   int
	warned  int
	skipped int
	failed  int
}

func (c *buildCounters) reset() {
	*c = buildCounters{}
}

func (c *buildCounters) count(b *shellpack.Build) {
	switch b.Status() {
	case shellpack.StatusBuilt:
		c.built++
	case shellpack.StatusBuiltWithWarnings:
		c.warned++
	case shellpack.StatusSkipped:
		c.skipped++
	case shellpack.StatusFailed:
		c.failed++
	}
}

func (c *buildCounters) notRun(result *shellpack.Result) int {
	return len(result.Builds) - c.built - c.warned - c.skipped - c.failed
}

type textEventPrinter struct {
	buildCounters
	writer     io.Writer
	showStates bool
}

func (p *textEventPrinter) HandleEvent(ctx context.Context, event shellpack.PipelineEvent) {
	result := event.Result()
	switch ev := event.(type) {
	case *shellpack.PipelineStartEvent:
		p.reset()
		fmt.Fprintf(p.writer, "BUILD START %s %s workers=%d platforms=%d\n",
			result.Product, result.Version, ev.NumWorkers, len(result.Builds))
	case *shellpack.PipelineEndEvent:
		fmt.Fprintf(p.writer, "BUILD END built=%d warnings=%d skipped=%d failed=%d notrun=%d\n",
			p.built, p.warned, p.skipped, p.failed, p.notRun(result))
	case *shellpack.BuildStateEvent:
		if p.showStates {
			fmt.Fprintf(p.writer, "%s %s\n", ev.Build.Name(), ev.State)
		}
		if ev.State == shellpack.ArchiveChecked {
			fmt.Fprintf(p.writer, "Extracting for %s...\n", ev.Build.Name())
		}
	case *shellpack.BuildCompleteEvent:
		p.count(ev.Build)
		fmt.Fprintln(p.writer, ev.Build.Message())
	}
}
