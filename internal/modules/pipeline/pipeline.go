package pipeline

import (
	"context"
	"errors"
	"fmt"
	"songfetch/internal/models"
	"songfetch/internal/modules/filename"
	"songfetch/internal/modules/search"
	"songfetch/internal/modules/toolchain"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// DefaultDelay is the pause between two consecutive songs.
const DefaultDelay = 2 * time.Second

// ErrNoFilename is recorded for songs whose name and match title both sanitize to nothing.
var ErrNoFilename = errors.New("no usable filename")

// Searcher finds the best match for a song request.
type Searcher interface {
	Search(ctx context.Context, query string) models.Match
}

// Downloader saves the audio of url as filename in the output directory.
type Downloader interface {
	Download(ctx context.Context, url, filename string) models.Outcome
}

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configures a Pipeline. Songs, Searcher and Downloader are required.
type Options struct {
	Songs      []string
	Delay      time.Duration
	OutputDir  string
	Searcher   Searcher
	Downloader Downloader
	Sleep      SleepFunc                // defaults to Sleep
	Progress   *progressbar.ProgressBar // optional
}

// Pipeline processes a batch of song requests one at a time: search, then
// download, then wait before the next song.
type Pipeline struct {
	opts   Options
	logger *zap.Logger
}

// New creates a new Pipeline instance with the given options and logger.
//
// Parameters:
//   - opts: Songs to process and the collaborators that search and download them.
//   - logger: Logger for logging pipeline events.
//
// Returns:
//   - A pointer to a new Pipeline instance. A nil Sleep defaults to the context-aware Sleep.
func New(opts Options, logger *zap.Logger) *Pipeline {
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	return &Pipeline{
		opts:   opts,
		logger: logger,
	}
}

// Run processes every song in order and returns the accumulated result.
//
// Parameters:
//   - ctx: Context for cancellation. A cancelled context stops the batch.
//
// Returns:
//   - The batch result. After a cancellation, or a tool stopped by Ctrl-C, it
//     holds the songs finished so far with Interrupted set, and the song in
//     flight is counted neither as successful nor as failed.
//   - The context error when the batch was interrupted, nil otherwise.
func (p *Pipeline) Run(ctx context.Context) (models.BatchResult, error) {
	songs := p.opts.Songs
	result := models.BatchResult{
		RunID:      uuid.NewString(),
		OutputDir:  p.opts.OutputDir,
		Successful: []string{},
		Failed:     []string{},
		StartedAt:  time.Now(),
	}

	p.logger.Info("starting batch download",
		zap.String("run_id", result.RunID),
		zap.Int("songs", len(songs)),
		zap.String("output_dir", p.opts.OutputDir))

	interrupt := func(err error) (models.BatchResult, error) {
		result.Interrupted = true
		result.FinishedAt = time.Now()
		p.logger.Warn("batch interrupted",
			zap.Int("processed", result.Total()),
			zap.Int("remaining", len(songs)-result.Total()),
			zap.Error(err))
		return result, err
	}

	for i, song := range songs {
		if err := ctx.Err(); err != nil {
			return interrupt(err)
		}

		p.logger.Info(fmt.Sprintf("[%d/%d] %s", i+1, len(songs), song))

		outcome := p.processSong(ctx, song)
		if outcome.Error != nil {
			// a terminal Ctrl-C reaches the tool before ctx is cancelled
			if errors.Is(outcome.Error, toolchain.ErrInterrupted) {
				return interrupt(context.Canceled)
			}
			if err := ctx.Err(); err != nil {
				return interrupt(err)
			}
		}

		if outcome.Error == nil {
			result.Successful = append(result.Successful, song)
		} else {
			result.Failed = append(result.Failed, song)
		}
		p.advanceProgress()

		if i < len(songs)-1 {
			p.logger.Info("waiting before next song", zap.Duration("delay", p.opts.Delay))
			if err := p.opts.Sleep(ctx, p.opts.Delay); err != nil {
				return interrupt(err)
			}
		}
	}

	result.FinishedAt = time.Now()
	p.logger.Info("batch download finished",
		zap.Int("successful", len(result.Successful)),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)))
	return result, nil
}

// processSong searches for song and downloads the match. A panic in either
// step is reported as the song's failure.
func (p *Pipeline) processSong(ctx context.Context, song string) (outcome models.Outcome) {
	outcome.Song = song
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("unexpected error while processing song", zap.String("song", song), zap.Any("panic", r))
			outcome = models.Outcome{Song: song, Error: fmt.Errorf("unexpected error: %v", r)}
		}
	}()

	p.logger.Info("searching", zap.String("song", song))
	match := p.opts.Searcher.Search(ctx, song)
	if !match.Found() {
		outcome.Error = match.Error
		if outcome.Error == nil {
			outcome.Error = search.ErrNotFound
		}
		if !isInterruption(outcome.Error) {
			p.logger.Warn("not found", zap.String("song", song), zap.Error(outcome.Error))
		}
		return outcome
	}

	fields := []zap.Field{zap.String("title", match.Title), zap.String("url", match.URL)}
	if match.Duration > 0 {
		fields = append(fields, zap.String("duration", search.FormatDuration(match.Duration)))
	}
	p.logger.Info("found video", fields...)

	name := filename.Sanitize(song)
	if name == "" {
		name = filename.Sanitize(match.Title)
	}
	if name == "" {
		outcome.Error = fmt.Errorf("%w for %q", ErrNoFilename, song)
		p.logger.Warn("cannot derive filename", zap.String("song", song))
		return outcome
	}

	dl := p.opts.Downloader.Download(ctx, match.URL, name)
	dl.Song = song
	return dl
}

func (p *Pipeline) advanceProgress() {
	if p.opts.Progress == nil {
		return
	}
	if err := p.opts.Progress.Add(1); err != nil {
		p.logger.Debug("progress bar update failed", zap.Error(err))
	}
}

// Sleep waits for d unless ctx is cancelled first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isInterruption(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, toolchain.ErrInterrupted)
}

// Songs joins song lists in order. Names are kept as typed; only empty
// strings are dropped.
func Songs(lists ...[]string) []string {
	var songs []string
	for _, list := range lists {
		for _, s := range list {
			if s != "" {
				songs = append(songs, s)
			}
		}
	}
	return songs
}
