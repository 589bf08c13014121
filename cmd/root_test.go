package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"songfetch/internal/config"
	"songfetch/internal/modules/persistence"
	"songfetch/internal/modules/toolchain"
	"songfetch/internal/modules/toolchain/toolchaintest"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type fakeTools struct {
	missingTool  string
	notFound     map[string]bool
	failDownload map[string]bool
	onSearch     func(query string)
}

func (f *fakeTools) respond(ctx context.Context, call toolchaintest.Call) (toolchain.Result, error) {
	switch {
	case call.Name == f.missingTool:
		return toolchaintest.Exit(call, -1, "not found")
	case len(call.Args) == 1 && strings.HasSuffix(call.Args[0], "version"):
		return toolchaintest.Stdout(call.Name + " 1.0\n")
	case len(call.Args) > 0 && call.Args[0] == "--dump-json":
		query := strings.TrimPrefix(call.Args[len(call.Args)-1], "ytsearch:")
		if f.onSearch != nil {
			f.onSearch(query)
		}
		if f.notFound[query] {
			return toolchaintest.Stdout("")
		}
		return toolchaintest.Stdout(`{"webpage_url":"https://www.youtube.com/watch?v=` + query + `","title":"` + query + ` MV","duration":245}`)
	case len(call.Args) > 0 && call.Args[0] == "--extract-audio":
		url := call.Args[len(call.Args)-1]
		if f.failDownload[strings.TrimPrefix(url, "https://www.youtube.com/watch?v=")] {
			return toolchaintest.Exit(call, 1, "ERROR: Video unavailable")
		}
		return toolchaintest.Stdout("")
	}
	return toolchaintest.Exit(call, 2, "unexpected call")
}

type harness struct {
	runner *toolchaintest.Runner
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func execute(t *testing.T, ctx context.Context, tools *fakeTools, args ...string) (*harness, error) {
	t.Helper()
	color.NoColor = true

	h := &harness{
		runner: &toolchaintest.Runner{Respond: tools.respond},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	rootCmd := NewRootCmd(zaptest.NewLogger(t), zap.NewAtomicLevel(), Dependencies{
		Runner:   h.runner,
		Progress: &bytes.Buffer{},
	})
	rootCmd.SetArgs(args)
	rootCmd.SetOut(h.stdout)
	rootCmd.SetErr(h.stderr)
	return h, rootCmd.ExecuteContext(ctx)
}

func TestRoot_BatchRun(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	tools := &fakeTools{
		notFound:     map[string]bool{"青鸟": true},
		failDownload: map[string]bool{"my all": true},
	}

	h, err := execute(t, context.Background(), tools,
		"-s", "secret base", "--songs", "青鸟", "my all",
		"-o", outDir, "-d", "0", "--report", "--progress")
	require.NoError(t, err)

	assert.Len(t, h.runner.CallsWith("--version"), 1)
	assert.Len(t, h.runner.CallsWith("-version"), 1)
	assert.Len(t, h.runner.CallsWith("--dump-json"), 3)
	downloads := h.runner.CallsWith("--extract-audio")
	require.Len(t, downloads, 2)
	assert.Contains(t, downloads[0].Args, filepath.Join(mustAbs(t, outDir), "secret base.%(ext)s"))

	out := h.stdout.String()
	assert.Contains(t, out, "Successful: 1")
	assert.Contains(t, out, "Failed: 2")
	assert.Contains(t, out, "  - secret base\n")
	assert.Contains(t, out, "  - 青鸟\n")
	assert.Contains(t, out, "  - my all\n")
	assert.Contains(t, out, "Files saved in: "+mustAbs(t, outDir))

	assert.DirExists(t, outDir)
	assert.FileExists(t, filepath.Join(outDir, persistence.ReportFilename))
}

func TestRoot_DefaultSongs(t *testing.T) {
	h, err := execute(t, context.Background(), &fakeTools{}, "-o", t.TempDir(), "-d", "0", "--no-check-deps")
	require.NoError(t, err)

	assert.Empty(t, h.runner.CallsWith("--version"))
	assert.Len(t, h.runner.CallsWith("--dump-json"), len(config.DefaultSongs))
	assert.Contains(t, h.stdout.String(), "Successful: 11")
}

func TestRoot_SongsFromFile(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "songs.txt")
	require.NoError(t, os.WriteFile(list, []byte("# weekend\n绊\n\n留在我身边\n"), 0644))

	h, err := execute(t, context.Background(), &fakeTools{}, "first", "-f", list, "-o", dir, "-d", "0")
	require.NoError(t, err)

	searches := h.runner.CallsWith("--dump-json")
	require.Len(t, searches, 3)
	assert.Equal(t, "ytsearch:first", searches[0].Args[len(searches[0].Args)-1])
	assert.Equal(t, "ytsearch:绊", searches[1].Args[len(searches[1].Args)-1])
	assert.Equal(t, "ytsearch:留在我身边", searches[2].Args[len(searches[2].Args)-1])
}

func TestRoot_SongOrder(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "songs.txt")
	require.NoError(t, os.WriteFile(list, []byte("from file\n"), 0644))

	h, err := execute(t, context.Background(), &fakeTools{}, "positional", "-s", "flag", "-f", list, "-o", dir, "-d", "0", "--no-check-deps")
	require.NoError(t, err)

	searches := h.runner.CallsWith("--dump-json")
	require.Len(t, searches, 3)
	assert.Equal(t, "ytsearch:flag", searches[0].Args[len(searches[0].Args)-1])
	assert.Equal(t, "ytsearch:positional", searches[1].Args[len(searches[1].Args)-1])
	assert.Equal(t, "ytsearch:from file", searches[2].Args[len(searches[2].Args)-1])
}

func TestRoot_EmptySongs(t *testing.T) {
	dir := t.TempDir()
	commentsOnly := filepath.Join(dir, "songs.txt")
	require.NoError(t, os.WriteFile(commentsOnly, []byte("# nothing yet\n\n"), 0644))

	tests := []struct {
		name string
		args []string
	}{
		{name: "empty flag", args: []string{"-s", ""}},
		{name: "empty positional", args: []string{""}},
		{name: "file without songs", args: []string{"-f", commentsOnly}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "-o", t.TempDir(), "-d", "0", "--no-check-deps")
			h, err := execute(t, context.Background(), &fakeTools{}, args...)

			assert.ErrorIs(t, err, ErrNoSongs)
			assert.Empty(t, h.runner.CallsWith("--dump-json"))
		})
	}
}

func TestRoot_BlankSongKeptAsTyped(t *testing.T) {
	h, err := execute(t, context.Background(), &fakeTools{}, "-s", "   ", "-o", t.TempDir(), "-d", "0", "--no-check-deps")
	require.NoError(t, err)

	searches := h.runner.CallsWith("--dump-json")
	require.Len(t, searches, 1)
	assert.Equal(t, "ytsearch:   ", searches[0].Args[len(searches[0].Args)-1])
	assert.Contains(t, h.stdout.String(), "Successful: 1")
}

func TestRoot_MissingDependency(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		wantHint string
	}{
		{name: "yt-dlp", tool: "yt-dlp", wantHint: "pip install yt-dlp"},
		{name: "ffmpeg", tool: "ffmpeg", wantHint: "brew install ffmpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := execute(t, context.Background(), &fakeTools{missingTool: tt.tool}, "-s", "x", "-o", t.TempDir())

			var missing *toolchain.MissingToolError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.tool, missing.Tool)
			assert.Contains(t, h.stderr.String(), tt.wantHint)
			assert.Empty(t, h.runner.CallsWith("--dump-json"))
		})
	}
}

func TestRoot_CancelMidBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tools := &fakeTools{onSearch: func(query string) {
		if query == "b" {
			cancel()
		}
	}}

	h, err := execute(t, ctx, tools, "a", "b", "c", "-o", t.TempDir(), "-d", "0", "--no-check-deps")
	require.NoError(t, err)

	out := h.stdout.String()
	assert.Contains(t, out, "Download cancelled by user")
	assert.Contains(t, out, "Download interrupted")
	assert.Contains(t, out, "Successful: 1")
	assert.Contains(t, out, "Failed: 0")
	assert.Len(t, h.runner.CallsWith("--dump-json"), 2)
}

func TestRoot_InvalidOptions(t *testing.T) {
	_, err := execute(t, context.Background(), &fakeTools{}, "--delay=-1", "-o", t.TempDir())
	assert.Error(t, err)

	_, err = execute(t, context.Background(), &fakeTools{}, "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRoot_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "songfetch.yaml")
	cfg := "songs: [\"config song\"]\noutput_dir: " + filepath.Join(dir, "music") + "\ndelay_seconds: 0\ncheck_deps: false\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	h, err := execute(t, context.Background(), &fakeTools{}, "-c", cfgPath)
	require.NoError(t, err)

	assert.Empty(t, h.runner.CallsWith("--version"))
	searches := h.runner.CallsWith("--dump-json")
	require.Len(t, searches, 1)
	assert.Equal(t, "ytsearch:config song", searches[0].Args[len(searches[0].Args)-1])
	assert.DirExists(t, filepath.Join(dir, "music"))
}

func mustAbs(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}
