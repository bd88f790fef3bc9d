package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	errNoCommand = errors.New("no command configured")
	errNoText    = errors.New("command produced no text")
)

const maxStderr = 512

// expandArgs substitutes {name} placeholders in args.
func expandArgs(args []string, vars map[string]string) []string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

// runCommand executes args and returns its stdout.
func runCommand(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", errNoCommand
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[:maxStderr]
		}
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("%s: %w", args[0], err)
	}
	return stdout.String(), nil
}

// CommandExtractor runs an external program that prints text to stdout.
type CommandExtractor struct {
	// Args is the argument vector; {input} is replaced by the file path.
	Args []string

	// Heading, when set, is placed above the output.
	Heading string

	// SplitPages splits output on form feeds and numbers each page.
	SplitPages bool
}

func (e *CommandExtractor) Extract(ctx context.Context, p string) (string, error) {
	out, err := runCommand(ctx, expandArgs(e.Args, map[string]string{"input": p}))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(out)
	if text == "" {
		return "", errNoText
	}

	if e.SplitPages {
		var pages []string
		for i, page := range strings.Split(out, "\f") {
			page = strings.TrimSpace(page)
			if page == "" {
				continue
			}
			pages = append(pages, fmt.Sprintf("## 페이지 %d\n%s", i+1, page))
		}
		text = strings.Join(pages, "\n\n")
	}
	if e.Heading != "" {
		text = e.Heading + "\n\n" + text
	}
	return text, nil
}

// ConvertingExtractor converts a file into another format with an external
// program and hands the result to Next.
type ConvertingExtractor struct {
	// Args may use {input}, {outdir} and {format}.
	Args   []string
	Format string
	Next   Extractor
}

func (e *ConvertingExtractor) Extract(ctx context.Context, p string) (string, error) {
	outdir, err := os.MkdirTemp("", "flowmate-convert-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outdir)

	args := expandArgs(e.Args, map[string]string{"input": p, "outdir": outdir, "format": e.Format})
	if _, err := runCommand(ctx, args); err != nil {
		return "", fmt.Errorf("convert to %s: %w", e.Format, err)
	}
	base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	return e.Next.Extract(ctx, filepath.Join(outdir, base+"."+e.Format))
}

// MediaExtractor pulls the audio track out of a video and transcribes it.
type MediaExtractor struct {
	// AudioArgs may use {input} and {output}.
	AudioArgs   []string
	Transcriber Extractor
}

func (e *MediaExtractor) Extract(ctx context.Context, p string) (string, error) {
	dir, err := os.MkdirTemp("", "flowmate-audio-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	wav := filepath.Join(dir, "audio.wav")
	if _, err := runCommand(ctx, expandArgs(e.AudioArgs, map[string]string{"input": p, "output": wav})); err != nil {
		return "", fmt.Errorf("extract audio: %w", err)
	}
	return e.Transcriber.Extract(ctx, wav)
}
