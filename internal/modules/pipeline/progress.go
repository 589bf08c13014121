package pipeline

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// NewProgressBar renders batch progress, one step per song, to w.
func NewProgressBar(total int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Downloading songs...[reset]"),
	)
}
