// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/syllabus"
	"github.com/poiesic/syllabus/config"
	"github.com/poiesic/syllabus/core"
	"github.com/urfave/cli/v2"
)

// Process exit codes, one per error class.
const (
	exitOK            = 0
	exitValidation    = 2
	exitNotFound      = 3
	exitConfiguration = 4
	exitModelCall     = 5
	exitInfra         = 6
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "syllabus",
		Usage: "Generate courses one subtopic at a time with retrieval over published lessons",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML configuration file",
				EnvVars: []string{"SYLLABUS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (overrides metrics.addr)",
			},
		},
		Before:   setupLogger,
		Commands: commands(),
	}
}

// exitCode maps an error to the process exit code of its class.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch core.Kind(err) {
	case core.KindValidation:
		return exitValidation
	case core.KindNotFound:
		return exitNotFound
	case core.KindConfiguration:
		return exitConfiguration
	case core.KindModelCall:
		return exitModelCall
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return exitInfra
}

// openDatabase loads the configuration and builds the workflow.
// The metrics endpoint is started when an address is configured.
func openDatabase(c *cli.Context) (*syllabus.Database, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, core.NewConfigurationError("load config", err)
	}
	if addr := c.String("metrics-addr"); addr != "" {
		cfg.Metrics.Addr = addr
	}

	db, err := syllabus.NewDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := db.Metrics().Serve(cfg.Metrics.Addr); err != nil {
				slog.Error("metrics endpoint stopped", "addr", cfg.Metrics.Addr, "err", err)
			}
		}()
	}
	return db, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return core.NewValidationError("log level",
			fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr))
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
