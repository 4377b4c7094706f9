package ui

import (
	"fmt"
	"sort"
	"time"

	"github.com/pterm/pterm"
)

// PTermPresenter renders progress with pterm: a run header, one line per
// stage/tool transition and a progress bar across the whole run.
type PTermPresenter struct {
	bar      *pterm.ProgressbarPrinter
	lastDone int
}

// NewPTermPresenter creates the default terminal presenter.
func NewPTermPresenter() *PTermPresenter {
	return &PTermPresenter{}
}

func (p *PTermPresenter) Start(info RunInfo) {
	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("reconx - Reconnaissance Pipeline")

	pterm.Printfln("Scope:       %s (%d targets)", pterm.Cyan(info.ScopeID), info.Targets)
	pterm.Printfln("Stages:      %d (%d tools)", info.Stages, info.Tools)
	pterm.Printfln("Concurrency: %d", info.Concurrency)
	pterm.Printfln("Output:      %s", info.OutputDir)
	if info.Resume {
		pterm.Println(pterm.Yellow("Resume:      skipping committed stages"))
	}
	pterm.Println()

	total := info.Stages + info.Tools
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle("running").
		WithRemoveWhenDone(true).
		Start()
	if err == nil {
		p.bar = bar
	}
}

func (p *PTermPresenter) StageStarted(name string) {
	if p.bar != nil {
		p.bar.UpdateTitle(name)
	}
}

func (p *PTermPresenter) StageCompleted(name string, records int) {
	pterm.Success.Printfln("stage %-12s %d records", name, records)
}

func (p *PTermPresenter) StageSkipped(name string, records int) {
	pterm.Info.Printfln("stage %-12s skipped (%d records committed)", name, records)
}

func (p *PTermPresenter) StageFailed(name, detail string) {
	pterm.Error.Printfln("stage %-12s failed: %s", name, detail)
}

func (p *PTermPresenter) ToolStarted(stage, tool string) {
	if p.bar != nil {
		p.bar.UpdateTitle(fmt.Sprintf("%s/%s", stage, tool))
	}
}

func (p *PTermPresenter) ToolCompleted(stage, tool string, records int) {
	pterm.Debug.Printfln("  %s/%s: %d records", stage, tool, records)
}

func (p *PTermPresenter) ToolFailed(stage, tool, detail string) {
	pterm.Warning.Printfln("  %s/%s failed: %s", stage, tool, detail)
}

func (p *PTermPresenter) Progress(done, total int, eta time.Duration) {
	if p.bar == nil {
		return
	}
	if delta := done - p.lastDone; delta > 0 {
		p.bar.Add(delta)
		p.lastDone = done
	}
	if eta > 0 {
		p.bar.UpdateTitle(fmt.Sprintf("running (eta %s)", eta.Round(time.Second)))
	}
}

func (p *PTermPresenter) Finish(stats RunStats) {
	if p.bar != nil {
		p.bar.Stop()
		p.bar = nil
	}

	pterm.Println()
	switch stats.Status {
	case "completed":
		pterm.Success.Printfln("run completed in %s (%d stages run, %d skipped)",
			stats.Duration.Round(time.Millisecond), stats.StagesRun, stats.StagesSkipped)
	case "aborted":
		pterm.Warning.Printfln("run aborted after %s", stats.Duration.Round(time.Millisecond))
	default:
		pterm.Error.Printfln("run failed after %s", stats.Duration.Round(time.Millisecond))
	}

	if len(stats.RecordsByType) > 0 {
		types := make([]string, 0, len(stats.RecordsByType))
		for t := range stats.RecordsByType {
			types = append(types, t)
		}
		sort.Strings(types)

		rows := pterm.TableData{{"Type", "Records"}}
		for _, t := range types {
			rows = append(rows, []string{t, fmt.Sprintf("%d", stats.RecordsByType[t])})
		}
		pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	}
}

func (p *PTermPresenter) Close() error {
	if p.bar != nil {
		p.bar.Stop()
		p.bar = nil
	}
	return nil
}
