package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/poiesic/syllabus/checkpoint"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/retrieval"
	"github.com/poiesic/syllabus/workflow"
)

func printPlan(w io.Writer, plan *workflow.Plan) {
	fmt.Fprintf(w, "Thread: %s\n", plan.ThreadID)
	fmt.Fprintf(w, "Session: %d  Topic: %d\n", plan.SessionID, plan.TopicID)
	fmt.Fprintf(w, "Subtopics (%d):\n", plan.Total())
	for i, title := range plan.SubtopicTitles {
		fmt.Fprintf(w, "  %d. %s\n", i+1, title)
	}
}

func printResult(w io.Writer, r *workflow.Result) {
	fmt.Fprintf(w, "[%s] %d/%d %s\n", r.Action, r.CurrentSubtopic, r.TotalSubtopics, r.SubtopicTitle)
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
	if r.Content != "" && (r.Action == core.ActionGenerate || r.Action == core.ActionEdit) {
		fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(r.Content))
	}
	if len(r.Quiz) > 0 && r.Action == core.ActionGenerate {
		fmt.Fprintln(w, "\nQuiz:")
		for i, q := range r.Quiz {
			fmt.Fprintf(w, "  %d. %s\n", i+1, q.Question)
			for j, opt := range q.Options {
				fmt.Fprintf(w, "     %c) %s\n", 'a'+j, opt)
			}
		}
	}
	if r.Suggestions != nil {
		fmt.Fprintf(w, "\nSuggestions: %s\n", r.Suggestions.Summary)
		for _, change := range r.Suggestions.Changes {
			fmt.Fprintf(w, "  - %s\n", change)
		}
	}
	switch {
	case r.Completed:
		fmt.Fprintln(w, "\nCourse complete.")
	case r.Published:
		fmt.Fprintln(w, "\nPublished.")
	}
}

func printState(w io.Writer, s *checkpoint.Snapshot) {
	state := s.State
	fmt.Fprintf(w, "Thread: %s\n", s.ThreadID)
	fmt.Fprintf(w, "Checkpoint: %s (%s)\n", s.CheckpointID, s.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Topic: %s (%s)\n", state.TopicTitle, state.Level)
	fmt.Fprintf(w, "Last action: %s\n", state.Action)
	if state.ErrorMessage != "" {
		fmt.Fprintf(w, "Error: %s\n", state.ErrorMessage)
	}
	for i, title := range state.SubtopicTitles {
		marker := " "
		if i == state.CurrentIndex {
			marker = ">"
		}
		published := ""
		if state.IsPublished(i) {
			published = " (published)"
		}
		fmt.Fprintf(w, "%s %d. %s%s\n", marker, i+1, title, published)
	}
}

func printHistory(w io.Writer, snapshots []*checkpoint.Snapshot) {
	if len(snapshots) == 0 {
		fmt.Fprintln(w, "No checkpoints")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECKPOINT\tCREATED\tACTION\tSUBTOPIC\tERROR")
	for _, s := range snapshots {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n",
			s.CheckpointID,
			s.CreatedAt.Format(time.RFC3339),
			s.Metadata["action"],
			s.State.CurrentOrder(),
			s.State.Total,
			s.Metadata["error_kind"],
		)
	}
	tw.Flush()
}

func printCoverage(w io.Writer, c *retrieval.Coverage) {
	fmt.Fprintf(w, "Chunks: %d  Balance: %.2f\n", c.Total, c.BalanceScore)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tCOUNT\tSHARE\tIDEAL")
	for _, typ := range core.ChunkTypes {
		share := 0.0
		if c.Total > 0 {
			share = float64(c.ByType[typ]) / float64(c.Total)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.0f%%\t%.0f%%\n", typ, c.ByType[typ], share*100, retrieval.IdealRatios[typ]*100)
	}
	tw.Flush()
}
