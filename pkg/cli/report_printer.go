package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"shellpack/pkg/shellpack"
)

// ReportPrinter provides an output-only UserInterface emitting YAML documents.
type ReportPrinter struct {
	// Out and Err default to os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer
}

type buildReport struct {
	Product string             `yaml:"product"`
	Version string             `yaml:"version"`
	Error   string             `yaml:"error,omitempty"`
	Builds  []buildReportEntry `yaml:"builds"`
}

type buildReportEntry struct {
	Platform string   `yaml:"platform"`
	Status   string   `yaml:"status"`
	State    string   `yaml:"state"`
	OutDir   string   `yaml:"outDir"`
	Message  string   `yaml:"message"`
	Duration string   `yaml:"duration,omitempty"`
	Warnings []string `yaml:"warnings,omitempty"`
	Error    string   `yaml:"error,omitempty"`
}

type planReport struct {
	Product        string            `yaml:"product"`
	Version        string            `yaml:"version"`
	Files          []string          `yaml:"files"`
	Folders        []string          `yaml:"folders"`
	ExtraResources string            `yaml:"extraResources,omitempty"`
	OutDirs        map[string]string `yaml:"outDirs"`
}

func (p *ReportPrinter) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return os.Stdout
}

func (p *ReportPrinter) encode(v interface{}) {
	enc := yaml.NewEncoder(p.out())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		p.PrintError(fmt.Errorf("encode report: %w", err))
	}
	enc.Close()
}

// BuildEventHandler implements UserInterface.
// The report is written once the pipeline ends.
func (p *ReportPrinter) BuildEventHandler(options EventHandlingOptions) shellpack.EventHandler {
	return shellpack.EventHandlerFunc(func(ctx context.Context, event shellpack.PipelineEvent) {
		if ev, ok := event.(*shellpack.PipelineEndEvent); ok {
			p.encode(newBuildReport(ev.Result(), ev.Err))
		}
	})
}

func newBuildReport(result *shellpack.Result, err error) *buildReport {
	report := &buildReport{Product: result.Product, Version: result.Version}
	if err != nil {
		report.Error = err.Error()
	}
	for _, b := range result.Builds {
		entry := buildReportEntry{
			Platform: b.Name(),
			Status:   string(b.Status()),
			State:    b.State.String(),
			OutDir:   b.OutDir,
			Message:  b.Message(),
		}
		if d := b.Duration(); d > 0 && !b.Skipped() {
			entry.Duration = d.Truncate(time.Millisecond).String()
		}
		for _, w := range b.Warnings {
			entry.Warnings = append(entry.Warnings, w.Error())
		}
		if b.Failed() {
			entry.Error = b.Err.Error()
		}
		report.Builds = append(report.Builds, entry)
	}
	return report
}

// PrintPlan implements UserInterface.
func (p *ReportPrinter) PrintPlan(result *shellpack.Result) {
	report := &planReport{
		Product:        result.Product,
		Version:        result.Version,
		Files:          result.Manifest.Files,
		Folders:        result.Manifest.Folders,
		ExtraResources: result.Manifest.ExtraResources,
		OutDirs:        make(map[string]string),
	}
	for _, b := range result.Builds {
		report.OutDirs[b.Name()] = b.OutDir
	}
	p.encode(report)
}

// PrintPlatformList implements UserInterface.
func (p *ReportPrinter) PrintPlatformList(entries []*PlatformEntry) {
	p.encode(map[string]interface{}{"platforms": entries})
}

// PrintStatus implements UserInterface.
func (p *ReportPrinter) PrintStatus(entries []*StatusEntry) {
	p.encode(map[string]interface{}{"status": entries})
}

// PrintVerifyReports implements UserInterface.
func (p *ReportPrinter) PrintVerifyReports(reports []*VerifyReport) {
	p.encode(map[string]interface{}{"verify": reports})
}

// PrintCleaned implements UserInterface.
func (p *ReportPrinter) PrintCleaned(dirs []string) {
	p.encode(map[string]interface{}{"removed": dirs})
}

// PrintError implements UserInterface.
func (p *ReportPrinter) PrintError(err error) {
	w := p.Err
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "Error: %v.\n", err)
}
