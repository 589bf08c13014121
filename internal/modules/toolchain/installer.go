package toolchain

import (
	"context"
	"fmt"

	"github.com/lrstanley/go-ytdlp"
)

// Installer fetches a tool and returns the path of its executable.
type Installer interface {
	Install(ctx context.Context, tool string) (string, error)
}

// CacheInstaller downloads yt-dlp and ffmpeg into go-ytdlp's user cache.
type CacheInstaller struct{}

// NewCacheInstaller returns an Installer that fetches tools into the user cache.
func NewCacheInstaller() *CacheInstaller {
	return &CacheInstaller{}
}

func (i *CacheInstaller) Install(ctx context.Context, tool string) (string, error) {
	var (
		resolved *ytdlp.ResolvedInstall
		err      error
	)
	switch tool {
	case ToolYtDlp:
		resolved, err = ytdlp.Install(ctx, nil)
	case ToolFFmpeg:
		resolved, err = ytdlp.InstallFFmpeg(ctx, nil)
	default:
		return "", fmt.Errorf("no installer for %q", tool)
	}
	if err != nil {
		return "", fmt.Errorf("install %s: %w", tool, err)
	}
	return resolved.Executable, nil
}
