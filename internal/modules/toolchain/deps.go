package toolchain

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	ToolYtDlp  = "yt-dlp"
	ToolFFmpeg = "ffmpeg"
)

// Tools maps each external tool to the executable used to run it.
type Tools struct {
	YtDlp  string `yaml:"yt_dlp"`
	FFmpeg string `yaml:"ffmpeg"`
}

// DefaultTools looks both tools up on PATH.
func DefaultTools() Tools {
	return Tools{YtDlp: ToolYtDlp, FFmpeg: ToolFFmpeg}
}

var installHints = map[string][]string{
	ToolYtDlp: {
		"install it with: pip install yt-dlp",
	},
	ToolFFmpeg: {
		"macOS: brew install ffmpeg",
		"or download it from https://ffmpeg.org/download.html",
	},
}

// MissingToolError is returned when a required tool cannot be run.
type MissingToolError struct {
	Tool string
	Hint []string
	Err  error
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("%s is required but not available: %v", e.Tool, e.Err)
}

func (e *MissingToolError) Unwrap() error {
	return e.Err
}

type versionProbe struct {
	tool       string
	executable string
	flag       string
}

func probes(tools Tools) []versionProbe {
	return []versionProbe{
		{tool: ToolYtDlp, executable: tools.YtDlp, flag: "--version"},
		{tool: ToolFFmpeg, executable: tools.FFmpeg, flag: "-version"},
	}
}

// CheckDependencies runs every tool's version command and fails on the first
// one that cannot be started or exits non-zero.
func CheckDependencies(ctx context.Context, runner Runner, tools Tools, logger *zap.Logger) error {
	for _, p := range probes(tools) {
		res, err := runner.Run(ctx, p.executable, p.flag)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &MissingToolError{Tool: p.tool, Hint: installHints[p.tool], Err: err}
		}
		logger.Info("dependency available",
			zap.String("tool", p.tool),
			zap.String("executable", p.executable),
			zap.String("version", firstLine(res.Stdout)))
	}
	return nil
}

// EnsureDependencies behaves like CheckDependencies but asks the installer for
// any missing tool and checks again. The returned Tools point at the installed
// executables.
func EnsureDependencies(ctx context.Context, runner Runner, installer Installer, tools Tools, logger *zap.Logger) (Tools, error) {
	attempted := map[string]bool{}
	for {
		err := CheckDependencies(ctx, runner, tools, logger)
		var missing *MissingToolError
		if err == nil || installer == nil || !errors.As(err, &missing) || attempted[missing.Tool] {
			return tools, err
		}
		attempted[missing.Tool] = true

		logger.Warn("installing missing dependency", zap.String("tool", missing.Tool), zap.Error(missing.Err))
		path, installErr := installer.Install(ctx, missing.Tool)
		if installErr != nil {
			return tools, &MissingToolError{
				Tool: missing.Tool,
				Hint: missing.Hint,
				Err:  fmt.Errorf("automatic install failed: %w", installErr),
			}
		}

		switch missing.Tool {
		case ToolYtDlp:
			tools.YtDlp = path
		case ToolFFmpeg:
			tools.FFmpeg = path
		}
		logger.Info("dependency installed", zap.String("tool", missing.Tool), zap.String("path", path))
	}
}

func firstLine(b []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(b))
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}
