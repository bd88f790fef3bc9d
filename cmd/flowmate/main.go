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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/flowmate"
	"github.com/poiesic/flowmate/config"
	"github.com/poiesic/flowmate/watch"
	"github.com/poiesic/flowmate/workflow"
)

// newAssistant is replaced in tests.
var newAssistant = func(cfg *config.Config) (*flowmate.Assistant, error) {
	return flowmate.New(cfg)
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "flowmate",
		Usage: "Document-grounded answers, reports and slide decks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"FLOWMATE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ask",
				Usage:  "Ask a question or request a report, deck or summary about a document",
				Action: askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Document to ground the answer on",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Question or request",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "session",
						Aliases: []string{"s"},
						Usage:   "Conversation session identifier",
					},
					&cli.StringFlag{
						Name:  "scope",
						Usage: "Cache scope, usually a user identifier",
					},
					&cli.BoolFlag{
						Name:  "direct",
						Usage: "Skip intent classification and answer directly",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print the workflow state trace to stderr",
					},
				},
			},
			{
				Name:   "index",
				Usage:  "Build or reuse vector indexes for documents",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Document to index (repeatable)",
						Required: true,
					},
				},
			},
			{
				Name:   "invalidate",
				Usage:  "Drop the stored index for a document",
				Action: invalidateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Document whose index is dropped",
						Required: true,
					},
				},
			},
			{
				Name:   "chunk",
				Usage:  "Print the chunks a document would be indexed as",
				Action: chunkCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Document to chunk",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "preview",
						Usage: "Characters of each chunk to print",
						Value: 80,
					},
				},
			},
			{
				Name:   "watch",
				Usage:  "Pre-index documents as they arrive in a directory",
				Action: watchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Directory to watch (defaults to watch.dir)",
					},
					&cli.BoolFlag{
						Name:  "existing",
						Usage: "Index documents already in the directory",
					},
				},
			},
		},
	}
}

func openAssistant(c *cli.Context) (*flowmate.Assistant, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	a, err := newAssistant(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start assistant: %w", err)
	}
	return a, nil
}

func askCommand(c *cli.Context) error {
	query := strings.TrimSpace(c.String("query"))
	if query == "" {
		return fmt.Errorf("query must not be empty")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	req := workflow.Request{
		Query:     query,
		FilePath:  c.String("file"),
		SessionID: c.String("session"),
		Scope:     c.String("scope"),
	}

	if c.Bool("direct") {
		answer, err := a.Answer(c.Context, req.SessionID, req.FilePath, req.Query)
		if err != nil {
			fmt.Fprintf(c.App.Writer, flowmate.DirectApology+"\n", err)
			return err
		}
		fmt.Fprintln(c.App.Writer, answer)
		return nil
	}

	run := a.Execute(c.Context, req)
	if c.Bool("trace") {
		states := make([]string, len(run.Trace))
		for i, s := range run.Trace {
			states[i] = string(s)
		}
		fmt.Fprintf(c.App.ErrWriter, "task: %s (%s)\ntrace: %s\n", run.TaskType, run.Label, strings.Join(states, " -> "))
	}
	fmt.Fprintln(c.App.Writer, run.FinalResponse)
	if run.OutputPath != "" {
		fmt.Fprintf(c.App.Writer, "\noutput: %s\n", run.OutputPath)
	}
	if !run.Success {
		return fmt.Errorf("%s failed in state %s: %w", run.TaskType, lastState(run), run.Err)
	}
	return nil
}

func lastState(run *workflow.Run) workflow.State {
	// Trace ends in error then done on failure.
	for i := len(run.Trace) - 1; i >= 0; i-- {
		if s := run.Trace[i]; s != workflow.StateDone && s != workflow.StateError {
			return s
		}
	}
	return workflow.StateInit
}

func indexCommand(c *cli.Context) error {
	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, path := range c.StringSlice("file") {
		h, err := a.Index(c.Context, path)
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", path, err)
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%d chunks\n", path, h.Collection, h.Entries)
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(a.CacheStats())
}

func invalidateCommand(c *cli.Context) error {
	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Invalidate(c.Context, c.String("file")); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", c.String("file"), err)
	}
	return nil
}

func chunkCommand(c *cli.Context) error {
	preview := c.Int("preview")
	if preview <= 0 {
		return fmt.Errorf("preview must be greater than 0")
	}

	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	chunks, err := a.Chunks(c.Context, c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to chunk %s: %w", c.String("file"), err)
	}
	for _, ch := range chunks {
		text := []rune(strings.ReplaceAll(ch.Text, "\n", " "))
		if len(text) > preview {
			text = append(text[:preview], '…')
		}
		fmt.Fprintf(c.App.Writer, "%4d  %6d  %s\n", ch.Order, len([]rune(ch.Text)), string(text))
	}
	fmt.Fprintf(c.App.ErrWriter, "%d chunks\n", len(chunks))
	return nil
}

func watchCommand(c *cli.Context) error {
	a, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []watch.Option{
		watch.WithIndexHook(func(path string, err error) {
			if err != nil {
				fmt.Fprintf(c.App.ErrWriter, "failed %s: %v\n", path, err)
				return
			}
			fmt.Fprintf(c.App.Writer, "indexed %s\n", path)
		}),
	}
	if c.Bool("existing") {
		opts = append(opts, watch.WithExisting())
	}

	w, err := a.Watcher(c.String("dir"), opts...)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return w.Run(ctx)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
