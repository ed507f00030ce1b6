package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ikusi/acta-ui/internal/acta"
	"github.com/ikusi/acta-ui/internal/apiclient"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func printProjects(w io.Writer, projects []acta.Project, asJSON bool) error {
	if asJSON {
		return printJSON(w, projects)
	}
	if len(projects) == 0 {
		_, err := fmt.Fprintln(w, "No projects found.")
		return err
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{p.ID, p.Name, p.OwnerEmail, p.Status, p.ActaStatus})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "PM", "STATUS", "ACTA").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printCallStats summarizes the backend calls of this invocation.
func printCallStats(w io.Writer, m apiclient.Metrics) {
	if m.Calls == 0 {
		return
	}
	fmt.Fprintf(w, "api calls: %d, errors: %d (%.0f%%), avg latency: %s\n",
		m.Calls, m.Errors, m.ErrorRate(), m.AverageLatency().Round(time.Millisecond))
}
