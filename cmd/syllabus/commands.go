package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poiesic/syllabus"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/reembed"
	"github.com/poiesic/syllabus/workflow"
	"github.com/urfave/cli/v2"
)

func commands() []*cli.Command {
	threadUsage := "THREAD_ID"
	return []*cli.Command{
		{
			Name:      "plan",
			Usage:     "Plan a new course and start a generation thread",
			ArgsUsage: "DESCRIPTION",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "title", Usage: "Course title (defaults to the description)"},
				&cli.StringFlag{Name: "level", Usage: "Audience level", Value: "beginner"},
				&cli.IntFlag{Name: "count", Usage: "Number of subtopics (0 uses the configured default)"},
			},
			Action: withDatabase(planCommand),
		},
		{
			Name:      "generate",
			Usage:     "Generate the current subtopic",
			ArgsUsage: threadUsage,
			Action:    withDatabase(actionCommand(core.ActionGenerate)),
		},
		{
			Name:      "edit",
			Usage:     "Replace the current subtopic with edited content",
			ArgsUsage: threadUsage,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "title", Usage: "New subtopic title"},
				&cli.StringFlag{Name: "content", Usage: "Edited content"},
				&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Read edited content from a file (- for stdin)"},
			},
			Action: withDatabase(editCommand),
		},
		{
			Name:      "consult",
			Usage:     "Ask for improvement suggestions on the current subtopic",
			ArgsUsage: threadUsage + " REQUEST",
			Action:    withDatabase(consultCommand),
		},
		{
			Name:      "publish",
			Usage:     "Publish the current subtopic so later lessons can build on it",
			ArgsUsage: threadUsage,
			Action:    withDatabase(actionCommand(core.ActionPublish)),
		},
		{
			Name:      "next",
			Usage:     "Move to the next subtopic",
			ArgsUsage: threadUsage,
			Action:    withDatabase(actionCommand(core.ActionNext)),
		},
		{
			Name:      "status",
			Usage:     "Show the latest state of a thread",
			ArgsUsage: threadUsage,
			Action:    withDatabase(statusCommand),
		},
		{
			Name:      "history",
			Usage:     "List the checkpoints of a thread, newest first",
			ArgsUsage: threadUsage,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "before", Usage: "Only list checkpoints older than this checkpoint ID"},
				&cli.IntFlag{Name: "limit", Usage: "Maximum number of checkpoints", Value: 10},
			},
			Action: withDatabase(historyCommand),
		},
		{
			Name:      "cancel",
			Usage:     "Cancel a thread and delete its checkpoints",
			ArgsUsage: threadUsage,
			Action:    withDatabase(cancelCommand),
		},
		{
			Name:      "coverage",
			Usage:     "Show how the topic's chunks are spread across chunk types",
			ArgsUsage: threadUsage,
			Action:    withDatabase(coverageCommand),
		},
		{
			Name:  "reembed",
			Usage: "Reembed every stored chunk with the configured embedding model",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "batch-size",
					Usage: "Number of chunks to process in each batch",
					Value: reembed.DefaultBatchSize,
				},
				&cli.IntFlag{
					Name:  "report-interval",
					Usage: "Report progress every N chunks",
					Value: 100,
				},
				&cli.IntFlag{
					Name:  "max-retries",
					Usage: "Maximum retry attempts for failed operations",
					Value: 3,
				},
				&cli.DurationFlag{
					Name:  "retry-delay",
					Usage: "Base delay for exponential backoff",
					Value: reembed.DefaultConfig().RetryDelay,
				},
				&cli.IntFlag{
					Name:  "workers",
					Usage: "Number of subtopics reembedded concurrently",
					Value: reembed.DefaultConfig().Workers,
				},
			},
			Action: withDatabase(reembedCommand),
		},
	}
}

type commandFunc func(ctx context.Context, c *cli.Context, db *syllabus.Database) error

// withDatabase opens the database for the duration of one command.
func withDatabase(fn commandFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		db, err := openDatabase(c)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(c.Context, c, db)
	}
}

func threadArg(c *cli.Context) (string, error) {
	threadID := strings.TrimSpace(c.Args().First())
	if threadID == "" {
		return "", core.NewValidationError(c.Command.Name, core.ErrMissingThreadID)
	}
	return threadID, nil
}

func planCommand(ctx context.Context, c *cli.Context, db *syllabus.Database) error {
	plan, err := db.Engine().StartSession(ctx, workflow.StartRequest{
		Description: strings.Join(c.Args().Slice(), " "),
		Title:       c.String("title"),
		Level:       c.String("level"),
		Count:       c.Int("count"),
	})
	if err != nil {
		return err
	}
	printPlan(c.App.Writer, plan)
	return nil
}

func actionCommand(action core.Action) commandFunc {
	return func(ctx context.Context, c *cli.Context, db *syllabus.Database) error {
		threadID, err := threadArg(c)
		if err != nil {
			return err
		}
		result, err := db.Engine().Invoke(ctx, workflow.Trigger{ThreadID: threadID, Action: action})
		if result != nil {
			printResult(c.App.Writer, result)
		}
		return err
	}
}

func editCommand(ctx context.Context, c *cli.Context, db *syllabus.Database) error {
	threadID, err := threadArg(c)
	if err != nil {
		return err
	}
	content, err := editContent(c)
	if err != nil {
		return err
	}
	result, err := db.Engine().Invoke(ctx, workflow.Trigger{
		ThreadID: threadID,
		Action:   core.ActionEdit,
		EditData: &core.EditData{Title: c.String("title"), Content: content},
	})
	if result != nil {
		printResult(c.App.Writer, result)
	}
	return err
}

// editContent reads --content, or --file when given.
func editContent(c *cli.Context) (string, error) {
	path := c.String("file")
	if path == "" {
		return c.String("content"), nil
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(c.App.Reader)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", core.NewValidationError("edit", fmt.Errorf("failed to read %s: %w", path, err))
	}
	return string(data), nil
}

func consultCommand(ctx context.Context, c *cli.Context, db *syllabus.Database) error {
	threadID, err := threadArg(c)
	if err != nil {
		return err
	}
	result, err := db.Engine().Invoke(ctx, workflow.Trigger{
		ThreadID:       threadID,
		Action:         core.ActionConsult,
		ConsultRequest: strings.Join(c.Args().Tail(), " "),
	})
	if result != nil {
		printResult(c.App.Writer, result)
	}
	return err
}

func statusCommand(ctx context.Context, c *cli.Context, db *syllabus.Database) error {
	threadID, err := threadArg(c)
	if err != nil {
		return err
	}
	snapshot, err := db.Engine().State(ctx, threadID)
	if err != nil {
		return err
	}
	printState(c.App.Writer, snapshot)
	return nil
}

func historyCommand(ctx context.Context, c *cli.Context, db *syllabus.Database) error {
	threadID, err := threadArg(c)
	if err != nil {
		return err
	}
	snapshots, err := db.Engine().History(ctx, threadID, c.String("before"), c.Int("limit"))
	if err != nil {
		return err
	}
	printHistory(c.App.Writer, snapshots)
	return nil
}

func cancelCommand(ctx context.Context, c *cli.Context, db *syllabus.Database) error {
	threadID, err := threadArg(c)
	if err != nil {
		return err
	}
	deleted, err := db.Engine().Cancel(ctx, threadID)
	if err != nil {
		return err
	}
	if deleted {
		fmt.Fprintf(c.App.Writer, "Cancelled %s and deleted its checkpoints\n", threadID)
	} else {
		fmt.Fprintf(c.App.Writer, "Cancelled %s (no checkpoints)\n", threadID)
	}
	return nil
}

func coverageCommand(ctx context.Context, c *cli.Context, db *syllabus.Database) error {
	threadID, err := threadArg(c)
	if err != nil {
		return err
	}
	coverage, err := db.Coverage(ctx, threadID)
	if err != nil {
		return err
	}
	printCoverage(c.App.Writer, coverage)
	return nil
}

func reembedCommand(ctx context.Context, c *cli.Context, db *syllabus.Database) error {
	// Create reembedding config
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Workers:        c.Int("workers"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return core.NewValidationError("reembed", fmt.Errorf("batch-size must be greater than 0"))
	}
	if reembedConfig.ReportInterval <= 0 {
		return core.NewValidationError("reembed", fmt.Errorf("report-interval must be greater than 0"))
	}
	if reembedConfig.MaxRetries <= 0 {
		return core.NewValidationError("reembed", fmt.Errorf("max-retries must be greater than 0"))
	}
	if reembedConfig.Workers <= 0 {
		return core.NewValidationError("reembed", fmt.Errorf("workers must be greater than 0"))
	}

	reembedder, err := db.NewReembedder(reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}
	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}
