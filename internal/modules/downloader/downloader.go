package downloader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"songfetch/internal/models"
	"songfetch/internal/modules/toolchain"
	"strings"

	"go.uber.org/zap"
)

const (
	audioFormat  = "mp3"
	audioQuality = "192K"
)

// Downloader fetches a single video with yt-dlp and keeps only its audio as MP3.
type Downloader struct {
	runner    toolchain.Runner
	tools     toolchain.Tools
	outputDir string
	logger    *zap.Logger
}

// New creates a Downloader writing into outputDir.
//
// Parameters:
//   - runner: Runs the yt-dlp subprocess.
//   - tools: Resolved yt-dlp and ffmpeg executables.
//   - outputDir: Existing directory the MP3 files are written to.
//   - logger: Logger for download progress and tool errors.
//
// Returns:
//   - A pointer to a new Downloader instance.
func New(runner toolchain.Runner, tools toolchain.Tools, outputDir string, logger *zap.Logger) *Downloader {
	return &Downloader{
		runner:    runner,
		tools:     tools,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Args returns the yt-dlp arguments for extracting url's audio into outputDir/filename.mp3.
func Args(url, outputDir, filename string, tools toolchain.Tools) []string {
	args := []string{
		"--extract-audio",
		"--audio-format", audioFormat,
		"--audio-quality", audioQuality,
		"--output", filepath.Join(outputDir, filename+".%(ext)s"),
		"--no-playlist",
	}
	if tools.FFmpeg != "" && tools.FFmpeg != toolchain.ToolFFmpeg {
		args = append(args, "--ffmpeg-location", tools.FFmpeg)
	}
	return append(args, url)
}

// Download runs yt-dlp for url. Success is decided by the exit status alone.
func (d *Downloader) Download(ctx context.Context, url, filename string) models.Outcome {
	outcome := models.Outcome{
		Filename: filename + "." + audioFormat,
		Path:     filepath.Join(d.outputDir, filename+"."+audioFormat),
	}

	d.logger.Info("downloading", zap.String("url", url))
	_, err := d.runner.Run(ctx, d.tools.YtDlp, Args(url, d.outputDir, filename, d.tools)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			outcome.Error = ctxErr
			return outcome
		}
		outcome.Error = fmt.Errorf("download failed: %w", err)
		if errors.Is(err, toolchain.ErrInterrupted) {
			d.logger.Debug("download interrupted", zap.String("url", url))
			return outcome
		}

		fields := []zap.Field{zap.String("url", url), zap.Error(err)}
		var cmdErr *toolchain.CommandError
		if errors.As(err, &cmdErr) {
			fields = append(fields, zap.Int("exit_code", cmdErr.ExitCode), zap.String("stderr", strings.TrimSpace(cmdErr.Stderr)))
		}
		d.logger.Error("download failed", fields...)
		return outcome
	}

	d.logger.Info("download complete", zap.String("file", outcome.Filename))
	return outcome
}
