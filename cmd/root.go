package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"songfetch/internal/config"
	"songfetch/internal/modules/downloader"
	"songfetch/internal/modules/filereader"
	"songfetch/internal/modules/persistence"
	"songfetch/internal/modules/pipeline"
	"songfetch/internal/modules/search"
	"songfetch/internal/modules/summary"
	"songfetch/internal/modules/toolchain"

	"github.com/k0kubun/go-ansi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the command talks to outside the process.
type Dependencies struct {
	Runner    toolchain.Runner
	Installer toolchain.Installer
	Progress  io.Writer
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, logger *zap.Logger, level zap.AtomicLevel) int {
	rootCmd := NewRootCmd(logger, level, Dependencies{
		Runner:    toolchain.NewExecRunner(),
		Installer: toolchain.NewCacheInstaller(),
		Progress:  ansi.NewAnsiStdout(),
	})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var missing *toolchain.MissingToolError
		if !errors.As(err, &missing) {
			logger.Error("execution failed", zap.Error(err))
		}
		return 1
	}
	return 0
}

// NewRootCmd builds the songfetch command.
func NewRootCmd(logger *zap.Logger, level zap.AtomicLevel, deps Dependencies) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "songfetch [song...]",
		Short: "Download songs as MP3 by searching YouTube",
		Long: `Search YouTube for each song title, download the best match and keep its
audio as a 192 kbps MP3 file. Songs are processed one at a time with a short
pause in between. Requires yt-dlp and ffmpeg.

Songs are taken from --songs first, then from the positional arguments, then
from --file, and processed in that order. Names are used as typed. When no
song is given at all a built-in list is downloaded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}
			if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cmd, args, cfg, logger, level, deps)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringArrayP(config.FlagSongs, "s", nil, "Song to download (repeatable); replaces the default list")
	flags.StringP(config.FlagFile, "f", "", "File with one song per line")
	flags.StringP(config.FlagOutput, "o", persistence.DefaultOutputDir, "Output directory")
	flags.IntP(config.FlagDelay, "d", 2, "Delay between downloads in seconds")
	flags.Bool(config.FlagNoCheckDeps, false, "Skip the yt-dlp/ffmpeg dependency check")
	flags.Bool(config.FlagInstallDeps, false, "Install missing yt-dlp/ffmpeg automatically")
	flags.Bool(config.FlagReport, false, "Write a YAML report of the batch into the output directory")
	flags.Bool(config.FlagProgress, false, "Show a progress bar")
	flags.BoolP(config.FlagVerbose, "v", false, "Enable debug logging")

	return rootCmd
}

func run(ctx context.Context, cmd *cobra.Command, args []string, cfg *config.Config, logger *zap.Logger, level zap.AtomicLevel, deps Dependencies) error {
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	level.SetLevel(lvl)

	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	songs, err := collectSongs(ctx, cfg, args, logger)
	if err != nil {
		return err
	}

	output := persistence.New(cfg.OutputDir)
	outputDir, err := output.Prepare()
	if err != nil {
		return err
	}

	tools := cfg.Tools
	if cfg.CheckDeps {
		var installer toolchain.Installer
		if cfg.InstallDeps {
			installer = deps.Installer
		}
		tools, err = toolchain.EnsureDependencies(ctx, deps.Runner, installer, tools, logger)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(stdout, "\nDownload cancelled by user")
				return nil
			}
			printMissingTool(stderr, err)
			return err
		}
	} else {
		logger.Debug("dependency check skipped")
	}

	opts := pipeline.Options{
		Songs:      songs,
		Delay:      cfg.Delay(),
		OutputDir:  outputDir,
		Searcher:   search.New(deps.Runner, tools.YtDlp, logger),
		Downloader: downloader.New(deps.Runner, tools, outputDir, logger),
	}
	if cfg.Progress && deps.Progress != nil {
		opts.Progress = pipeline.NewProgressBar(len(songs), deps.Progress)
	}

	result, err := pipeline.New(opts, logger).Run(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		fmt.Fprintln(stdout, "\nDownload cancelled by user")
	}

	summary.Print(stdout, result)

	if cfg.Report {
		path, err := output.WriteReport(result)
		if err != nil {
			logger.Error("failed to write report", zap.Error(err))
		} else {
			logger.Info("report written", zap.String("path", path))
		}
	}
	return nil
}

// ErrNoSongs is returned when songs were given but none of them is usable.
var ErrNoSongs = errors.New("no songs given")

// collectSongs merges --songs, positional and --file songs in that order. The
// default list is used only when none of the three sources was given at all.
func collectSongs(ctx context.Context, cfg *config.Config, args []string, logger *zap.Logger) ([]string, error) {
	given := len(cfg.Songs) > 0 || len(args) > 0 || cfg.SongsFile != ""

	var fromFile []string
	if cfg.SongsFile != "" {
		var err error
		fromFile, err = filereader.ReadSongs(ctx, cfg.SongsFile, logger)
		if err != nil {
			return nil, fmt.Errorf("read song list: %w", err)
		}
	}

	songs := pipeline.Songs(cfg.Songs, args, fromFile)
	if len(songs) == 0 {
		if given {
			return nil, fmt.Errorf("%w: every song name was empty", ErrNoSongs)
		}
		logger.Debug("no songs given, using default list", zap.Int("songs", len(config.DefaultSongs)))
		songs = append([]string(nil), config.DefaultSongs...)
	}
	return songs, nil
}

func printMissingTool(w io.Writer, err error) {
	var missing *toolchain.MissingToolError
	if !errors.As(err, &missing) {
		fmt.Fprintf(w, "✗ %v\n", err)
		return
	}
	fmt.Fprintf(w, "✗ %s is required but could not be run: %v\n", missing.Tool, missing.Err)
	for _, hint := range missing.Hint {
		fmt.Fprintf(w, "  %s\n", hint)
	}
	fmt.Fprintln(w, "  or rerun with --install-deps, or skip this check with --no-check-deps")
}
