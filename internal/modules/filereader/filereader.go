package filereader

import (
	"bufio"
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
)

// ReadSongs reads one song request per line from path. Blank lines and lines
// starting with # are skipped.
func ReadSongs(ctx context.Context, path string, logger *zap.Logger) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	songs := []string{}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			logger.Warn("song list reading interrupted", zap.Error(ctx.Err()))
			return nil, ctx.Err()
		default:
			song := strings.TrimSpace(scanner.Text())
			if song == "" || strings.HasPrefix(song, "#") {
				continue
			}
			logger.Debug("read song", zap.String("song", song))
			songs = append(songs, song)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	logger.Info("finished reading song list", zap.String("path", path), zap.Int("total_songs", len(songs)))
	return songs, nil
}
