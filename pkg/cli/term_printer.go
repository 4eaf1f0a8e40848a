package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/pterm/pterm"

	"shellpack/pkg/shellpack"
)

// TermPrinter provides an output-only UserInterface for ANSI terminal.
type TermPrinter struct {
}

var (
	titleStyle = pterm.NewStyle(pterm.FgCyan, pterm.Bold)
	okStyle    = pterm.NewStyle(pterm.FgGreen, pterm.Bold)
	warnStyle  = pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	failStyle  = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	skipStyle  = pterm.NewStyle(pterm.FgLightCyan)
	durStyle   = pterm.NewStyle(pterm.FgMagenta, pterm.Bold)
)

// BuildEventHandler implements UserInterface.
func (p *TermPrinter) BuildEventHandler(options EventHandlingOptions) shellpack.EventHandler {
	return newBuildsPrinter(os.Stdout, options.ShowStates)
}

// PrintPlan implements UserInterface.
func (p *TermPrinter) PrintPlan(result *shellpack.Result) {
	fmt.Printf("%s %s\n", titleStyle.Sprint(result.Product), pterm.Gray(result.Version))
	items := []pterm.BulletListItem{}
	for _, fn := range result.Manifest.Files {
		items = append(items, pterm.BulletListItem{Level: 0, Text: fn})
	}
	for _, folder := range result.Manifest.Folders {
		items = append(items, pterm.BulletListItem{Level: 0, Text: folder + "/"})
	}
	if res := result.Manifest.ExtraResources; res != "" {
		items = append(items, pterm.BulletListItem{Level: 0, Text: res + "/ " + pterm.Gray("(resources)")})
	}
	if s, err := pterm.DefaultBulletList.WithItems(items).Srender(); err == nil {
		fmt.Print(s)
	}
	data := pterm.TableData{{"PLATFORM", "OUTPUT"}}
	for _, b := range result.Builds {
		data = append(data, []string{b.Name(), b.OutDir})
	}
	renderTable(data)
}

// PrintPlatformList implements UserInterface.
func (p *TermPrinter) PrintPlatformList(entries []*PlatformEntry) {
	data := pterm.TableData{{"PLATFORM", "ARCHIVE", "EXECUTABLE", ""}}
	for _, entry := range entries {
		name := titleStyle.Sprint(entry.Name)
		if entry.Host {
			name += " " + pterm.Gray("(host)")
		}
		availability := failStyle.Sprint("missing")
		if entry.Available {
			availability = okStyle.Sprint("available")
		}
		data = append(data, []string{name, entry.Archive, entry.Executable, availability})
	}
	renderTable(data)
}

// PrintStatus implements UserInterface.
func (p *TermPrinter) PrintStatus(entries []*StatusEntry) {
	data := pterm.TableData{{"PLATFORM", "STATUS", "OUTPUT"}}
	for _, entry := range entries {
		state := pterm.Gray("absent")
		switch {
		case entry.Exists && entry.HasExecutable:
			state = okStyle.Sprint("built")
		case entry.Exists:
			state = warnStyle.Sprint("incomplete")
		}
		data = append(data, []string{titleStyle.Sprint(entry.Platform), state, entry.OutDir})
	}
	renderTable(data)
}

// PrintVerifyReports implements UserInterface.
func (p *TermPrinter) PrintVerifyReports(reports []*VerifyReport) {
	if len(reports) == 0 {
		pterm.Info.Println("Nothing to verify")
		return
	}
	for _, report := range reports {
		if len(report.Mismatches) == 0 {
			fmt.Printf("%s %s\n", okStyle.Sprint(":)"), titleStyle.Sprint(report.Platform))
			continue
		}
		fmt.Printf("%s %s %s\n", failStyle.Sprint(":("), titleStyle.Sprint(report.Platform),
			pterm.Red(fmt.Sprintf("%d mismatches", len(report.Mismatches))))
		for _, m := range report.Mismatches {
			fmt.Printf("    %s %s\n", pterm.Yellow(string(m.Kind)), m.Path)
		}
	}
}

// PrintCleaned implements UserInterface.
func (p *TermPrinter) PrintCleaned(dirs []string) {
	if len(dirs) == 0 {
		pterm.Info.Println("Nothing to clean")
		return
	}
	for _, dir := range dirs {
		fmt.Printf("%s %s\n", pterm.Gray("removed"), dir)
	}
}

// PrintError implements UserInterface.
func (p *TermPrinter) PrintError(err error) {
	fmt.Fprintf(os.Stderr, "%s %s\n", failStyle.Sprint("Error:"), pterm.Red(fmt.Sprintf("%v.", err)))
}

func renderTable(data pterm.TableData) {
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return
	}
	fmt.Println(s)
}

type buildsPrinter struct {
	buildCounters
	writer      io.Writer
	showStates  bool
	completed   int
	builds      map[*shellpack.Build]int
	currentRows int
}

func newBuildsPrinter(w io.Writer, showStates bool) *buildsPrinter {
	return &buildsPrinter{
		writer:     w,
		showStates: showStates,
		builds:     make(map[*shellpack.Build]int),
	}
}

func (p *buildsPrinter) HandleEvent(ctx context.Context, event shellpack.PipelineEvent) {
	result := event.Result()
	total := len(result.Builds)
	percentage := float32(100)
	if total > 0 {
		percentage = float32(p.completed) * 100 / float32(total)
	}
	switch ev := event.(type) {
	case *shellpack.PipelineStartEvent:
		p.reset()
		p.completed = 0
		p.printf("%s %s\n", titleStyle.Sprint(result.Product), pterm.Gray(result.Version))
	case *shellpack.PipelineEndEvent:
		p.complete(p.notRun(result))
	case *shellpack.BuildStartEvent:
		p.builds[ev.Build] = ev.Worker
		p.moveToStart()
		p.renderRows(percentageState(percentage))
	case *shellpack.BuildStateEvent:
		switch {
		case ev.State == shellpack.ArchiveChecked:
			p.printLine(fmt.Sprintf("%s Extracting for %s...", pterm.Cyan(">>"), ev.Build.Name()), percentage)
		case p.showStates:
			p.printLine(fmt.Sprintf("   %s %s", pterm.Gray(ev.Build.Name()), pterm.Gray(ev.State.String())), percentage)
		}
	case *shellpack.BuildCompleteEvent:
		p.completed++
		p.count(ev.Build)
		p.buildComplete(ev.Build, float32(p.completed)*100/float32(total))
	}
}

func (p *buildsPrinter) buildComplete(b *shellpack.Build, percentage float32) {
	delete(p.builds, b)
	var linePrefix, dur string
	switch b.Status() {
	case shellpack.StatusFailed:
		linePrefix = failStyle.Sprint(":(")
	case shellpack.StatusSkipped:
		linePrefix = skipStyle.Sprint(":]")
	case shellpack.StatusBuiltWithWarnings:
		linePrefix = warnStyle.Sprint(":|")
	default:
		linePrefix = okStyle.Sprint(":)")
	}
	if !b.Skipped() {
		dur = " " + durStyle.Sprint(b.Duration().Truncate(time.Millisecond))
	}
	p.printLine(fmt.Sprintf("%s %s%s", linePrefix, b.Message(), dur), percentage)
}

// printLine prints a permanent line above the rows of running builds.
func (p *buildsPrinter) printLine(line string, percentage float32) {
	p.moveToStart()
	p.printf("\x1b[2K\r%s\n", line)
	for i := 1; i < p.currentRows; i++ {
		p.printf("\x1b[2K\n")
	}
	if p.currentRows > 1 {
		p.printf("\x1b[%dA", p.currentRows-1)
	}
	p.currentRows = 0
	p.renderRows(percentageState(percentage))
}

func (p *buildsPrinter) complete(notRun int) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s", pterm.Green("Built"), okStyle.Sprint(p.built))
	if p.warned != 0 {
		fmt.Fprintf(&buf, " %s %s", pterm.Yellow("Warnings"), warnStyle.Sprint(p.warned))
	}
	if p.skipped != 0 {
		fmt.Fprintf(&buf, " %s %s", pterm.LightCyan("Skipped"), skipStyle.Sprint(p.skipped))
	}
	if p.failed != 0 {
		fmt.Fprintf(&buf, " %s %s", pterm.Red("Failed"), failStyle.Sprint(p.failed))
	}
	if notRun != 0 {
		fmt.Fprintf(&buf, " %s %s", pterm.Gray("NotRun"), pterm.Gray(notRun))
	}
	p.builds = nil
	p.moveToStart()
	p.renderRows(buf.String())
	p.printf("\n")
}

func (p *buildsPrinter) moveToStart() {
	// Cursor is always placed at the next row of the last row.
	p.printf("\x1b[2K\r")
	if p.currentRows > 0 {
		p.printf("\x1b[%dA", p.currentRows)
	}
}

func (p *buildsPrinter) renderRows(state string) {
	workers := make(map[int]*shellpack.Build)
	for b, w := range p.builds {
		workers[w] = b
	}
	slots := make([]int, 0, len(workers))
	for n := range workers {
		slots = append(slots, n)
	}
	sort.Ints(slots)
	for _, w := range slots {
		p.printf("\x1b[2K\r%s %s %s\n", pterm.Green(">>"), pterm.Cyan(fmt.Sprintf("%2d", w)), workers[w].Name())
	}
	for i := len(slots); i < p.currentRows; i++ {
		p.printf("\x1b[2K\n")
	}
	if p.currentRows > len(slots) {
		p.printf("\x1b[%dA", p.currentRows-len(slots))
	}
	p.currentRows = len(slots)
	p.printf("\x1b[2K\r%s", state)
}

func (p *buildsPrinter) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.writer, format, args...)
}

func percentageState(percentage float32) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%.1f%% [", percentage)
	blocks := int(percentage * 20 / 100)
	for i := 0; i < blocks; i++ {
		buf.WriteByte('=')
	}
	for i := blocks; i < 20; i++ {
		buf.WriteByte(' ')
	}
	buf.WriteByte(']')
	return buf.String()
}
