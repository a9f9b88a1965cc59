package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/syllabus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// writeConfig writes a configuration that stores data under a temp dir.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "syllabus.toml")
	body := fmt.Sprintf("[database]\npath = %q\n", filepath.Join(dir, "db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"syllabus"}, args...))
	return out.String() + errOut.String(), err
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"validation", core.NewValidationError("edit", core.ErrMissingEditData), exitValidation},
		{"not found", core.NewNotFoundError("state", "thread", "t1", nil), exitNotFound},
		{"configuration", core.NewConfigurationError("load config", errors.New("bad")), exitConfiguration},
		{"model call", core.NewModelCallError("generate", "qwen", errors.New("timeout")), exitModelCall},
		{"transient", core.NewTransientError("checkpoint", errors.New("conflict")), exitInfra},
		{"unknown", errors.New("disk on fire"), exitInfra},
		{"wrapped", fmt.Errorf("reembedding failed: %w", core.NewModelCallError("embed", "", errors.New("x"))), exitModelCall},
		{"cli exit coder", cli.Exit("usage", 7), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestCommands_MissingThread(t *testing.T) {
	cfg := writeConfig(t)
	for _, cmd := range []string{"generate", "publish", "next", "status", "history", "cancel", "coverage", "edit", "consult"} {
		t.Run(cmd, func(t *testing.T) {
			_, err := runApp(t, "--config", cfg, cmd)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrMissingThreadID)
			assert.Equal(t, exitValidation, exitCode(err))
		})
	}
}

func TestCommands_UnknownThread(t *testing.T) {
	cfg := writeConfig(t)
	for _, cmd := range []string{"status", "cancel", "coverage"} {
		t.Run(cmd, func(t *testing.T) {
			_, err := runApp(t, "--config", cfg, cmd, "gen_missing")
			require.Error(t, err)
			assert.Equal(t, exitNotFound, exitCode(err))
		})
	}
}

func TestCommands_MissingConfig(t *testing.T) {
	_, err := runApp(t, "--config", filepath.Join(t.TempDir(), "absent.toml"), "status", "t1")
	require.Error(t, err)
	assert.Equal(t, exitConfiguration, exitCode(err))
}

func TestReembedCommand(t *testing.T) {
	cfg := writeConfig(t)

	t.Run("empty database", func(t *testing.T) {
		out, err := runApp(t, "--config", cfg, "reembed")
		require.NoError(t, err)
		assert.Contains(t, out, "0 chunks")
	})

	t.Run("flag validation", func(t *testing.T) {
		for _, flag := range []string{"--batch-size", "--report-interval", "--max-retries", "--workers"} {
			_, err := runApp(t, "--config", cfg, "reembed", flag, "0")
			require.Error(t, err, flag)
			assert.Equal(t, exitValidation, exitCode(err), flag)
		}
	})
}

func TestEditContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lesson.md")
	require.NoError(t, os.WriteFile(path, []byte("Edited body"), 0o644))

	var got string
	app := &cli.App{
		Name:   "test",
		Reader: bytes.NewBufferString("From stdin"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "content"},
			&cli.StringFlag{Name: "file"},
		},
		Action: func(c *cli.Context) error {
			var err error
			got, err = editContent(c)
			return err
		},
	}

	require.NoError(t, app.Run([]string{"test", "--content", "Inline"}))
	assert.Equal(t, "Inline", got)

	require.NoError(t, app.Run([]string{"test", "--content", "Inline", "--file", path}))
	assert.Equal(t, "Edited body", got)

	require.NoError(t, app.Run([]string{"test", "--file", "-"}))
	assert.Equal(t, "From stdin", got)

	err := app.Run([]string{"test", "--file", filepath.Join(t.TempDir(), "missing.md")})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "WaRn"} {
			t.Run(level, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "log-level", Value: "info"},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error { return nil },
				}
				require.NoError(t, app.Run([]string{"test", "--log-level", level}))
			})
		}
	})

	t.Run("debug enables debug logging", func(t *testing.T) {
		app := &cli.App{
			Name:   "test",
			Flags:  []cli.Flag{&cli.StringFlag{Name: "log-level", Value: "info"}},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				assert.True(t, slog.Default().Enabled(c.Context, slog.LevelDebug))
				return nil
			},
		}
		require.NoError(t, app.Run([]string{"test", "--log-level", "debug"}))
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		_, err := runApp(t, "--log-level", "invalid", "status", "t1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
		assert.Equal(t, exitValidation, exitCode(err))
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := newApp()
		app.Commands = nil
		app.Action = func(c *cli.Context) error {
			assert.Equal(t, "warn", c.String("log-level"))
			return nil
		}
		require.NoError(t, app.Run([]string{"syllabus", "-l", "warn"}))
	})
}
