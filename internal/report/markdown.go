package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
)

// WriteMarkdown renders the report as a human-readable markdown document.
func WriteMarkdown(w io.Writer, report *Report) error {
	md := markdown.NewMarkdown(w)

	md.H1("Reconnaissance Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Scope", "`" + report.ScopeID + "`"},
			{"Generated", report.GeneratedAt.Format(time.RFC3339)},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")

	writeTotals(md, report)
	writeStages(md, report)
	writeFindings(md, report)

	return md.Build()
}

func statusText(report *Report) string {
	if report.Complete {
		return "Complete"
	}
	return fmt.Sprintf("Partial (%d stages missing)", len(report.MissingStages))
}

func writeTotals(md *markdown.Markdown, report *Report) {
	md.H2("Discovery Totals")
	md.PlainText("")

	types := make([]string, 0, len(report.Totals))
	for t := range report.Totals {
		types = append(types, t)
	}
	sort.Strings(types)

	rows := make([][]string, 0, len(types))
	for _, t := range types {
		rows = append(rows, []string{t, strconv.Itoa(report.Totals[t])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Record Type", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeStages(md *markdown.Markdown, report *Report) {
	md.H2("Stages")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Stages))
	for _, s := range report.Stages {
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(s.Records),
			strconv.Itoa(len(s.Warnings)),
			s.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Records", "Warnings", "Committed"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, s := range report.Stages {
		if len(s.Warnings) == 0 {
			continue
		}
		md.H3("Warnings: " + s.Name)
		items := make([]string, 0, len(s.Warnings))
		for _, warn := range s.Warnings {
			items = append(items, "`"+warn.Tool+"`: "+warn.Message)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(report.MissingStages) > 0 {
		md.H3("Missing Stages")
		md.BulletList(report.MissingStages...)
		md.PlainText("")
	}
}

func writeFindings(md *markdown.Markdown, report *Report) {
	if len(report.Findings) == 0 {
		return
	}

	md.H2("Findings")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		rows = append(rows, []string{f.Severity, f.Template, f.Name, f.MatchedAt})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Template", "Name", "Matched At"},
		Rows:   rows,
	})
	md.PlainText("")
}
