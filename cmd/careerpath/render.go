package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muhammadolammi/careerpath/internal/generation"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderRoadmap(w io.Writer, plan generation.RoadmapPlan) {
	fmt.Fprintf(w, "Roadmap: %s\n", plan.RoleTitle)
	if plan.Overview != "" {
		fmt.Fprintln(w, plan.Overview)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"#", "Phase", "Duration", "Topics", "Milestone"})
	for _, ph := range plan.Phases {
		tw.AppendRow(table.Row{ph.SequenceIndex, ph.Title, ph.EstimatedDuration, strings.Join(ph.Topics, "\n"), ph.MilestoneProject})
	}
	tw.Render()
}

func renderCritique(w io.Writer, c generation.ResumeCritique) {
	fmt.Fprintf(w, "Score: %d/100\n", c.Score)
	if c.Summary != "" {
		fmt.Fprintln(w, c.Summary)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Section", "Notes"})
	tw.AppendRow(table.Row{"Strengths", bullets(c.Strengths)})
	tw.AppendRow(table.Row{"Weaknesses", bullets(c.Weaknesses)})
	for _, g := range c.Improvements {
		tw.AppendRow(table.Row{g.Category, bullets(g.Items)})
	}
	tw.Render()
}

func bullets(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
