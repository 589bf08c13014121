// Package search looks up the single best video for a song request through yt-dlp.
package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"songfetch/internal/models"
	"songfetch/internal/modules/toolchain"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound marks a query that produced no usable result.
var ErrNotFound = errors.New("no match found")

const searchPrefix = "ytsearch:"

// videoRecord is the subset of yt-dlp's --dump-json output we read.
type videoRecord struct {
	WebpageURL string   `json:"webpage_url"`
	Title      string   `json:"title"`
	Duration   *float64 `json:"duration"`
}

// Searcher asks yt-dlp for the top result of a query.
type Searcher struct {
	runner toolchain.Runner
	ytdlp  string
	logger *zap.Logger
}

// New creates a Searcher that runs the given yt-dlp executable.
//
// Parameters:
//   - runner: Runs the yt-dlp subprocess.
//   - ytdlp: Name or path of the yt-dlp executable.
//   - logger: Logger for search misses.
//
// Returns:
//   - A pointer to a new Searcher instance.
func New(runner toolchain.Runner, ytdlp string, logger *zap.Logger) *Searcher {
	return &Searcher{runner: runner, ytdlp: ytdlp, logger: logger}
}

// Args returns the yt-dlp arguments used to search for query.
func Args(query string) []string {
	return []string{
		"--dump-json",
		"--playlist-end", "1",
		searchPrefix + query,
	}
}

// Search never fails outright: problems are reported through Match.Error,
// wrapping ErrNotFound, or the context error when the search was cancelled.
func (s *Searcher) Search(ctx context.Context, query string) models.Match {
	match := models.Match{Query: query}

	res, err := s.runner.Run(ctx, s.ytdlp, Args(query)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			match.Error = ctxErr
			return match
		}
		match.Error = fmt.Errorf("%w: search failed: %w", ErrNotFound, err)
		s.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		return match
	}

	line := firstRecord(res.Stdout)
	if line == "" {
		match.Error = fmt.Errorf("%w: empty search output", ErrNotFound)
		s.logger.Warn("search returned nothing", zap.String("query", query))
		return match
	}

	var rec videoRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		match.Error = fmt.Errorf("%w: unreadable search result: %w", ErrNotFound, err)
		s.logger.Warn("failed to parse search result", zap.String("query", query), zap.Error(err))
		return match
	}
	if rec.WebpageURL == "" {
		match.Error = fmt.Errorf("%w: result has no url", ErrNotFound)
		s.logger.Warn("search result has no url", zap.String("query", query))
		return match
	}

	match.URL = rec.WebpageURL
	match.Title = rec.Title
	if rec.Duration != nil && *rec.Duration > 0 {
		match.Duration = int(*rec.Duration)
	}

	s.logger.Debug("search matched",
		zap.String("query", query),
		zap.String("url", match.URL),
		zap.String("title", match.Title),
		zap.Int("duration", match.Duration))
	return match
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func firstRecord(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	// yt-dlp records run well past bufio's default 64KiB line limit
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}
