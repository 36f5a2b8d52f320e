package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const downloadFormat = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestvideo+bestaudio/best"

// Downloader fetches videos with yt-dlp into a single directory.
type Downloader struct {
	binary string
	dir    string
	runner Runner
	prefix func() string
}

func NewDownloader(binary, dir string, runner Runner) *Downloader {
	return &Downloader{
		binary: binary,
		dir:    dir,
		runner: runner,
		prefix: func() string { return uuid.NewString()[:8] },
	}
}

// Fetch downloads url and returns the path of the merged mp4. Each call
// writes under its own file prefix so concurrent audits of the same video
// never share a file. On failure every file carrying that prefix, including
// yt-dlp's .part and per-format fragments, is removed.
func (d *Downloader) Fetch(ctx context.Context, url string) (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating downloads dir: %w", ErrFetchFailed, err)
	}

	prefix := d.prefix() + "-"
	path, err := d.fetch(ctx, url, prefix)
	if err != nil {
		d.discard(prefix)
		return "", err
	}
	return path, nil
}

func (d *Downloader) fetch(ctx context.Context, url, prefix string) (string, error) {
	template := filepath.Join(d.dir, prefix+"%(id)s.%(ext)s")
	stdout, stderr, err := d.runner.Run(ctx, d.binary,
		"--format", downloadFormat,
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"--quiet",
		"--output", template,
		"--print", "after_move:filepath",
		url,
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrFetchFailed, ctx.Err())
		}
		if msg := lastLine(stderr); msg != "" {
			return "", fmt.Errorf("%w: %s", ErrFetchFailed, msg)
		}
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	path := finalLine(stdout)
	if path == "" {
		return "", fmt.Errorf("%w: yt-dlp reported no output file", ErrFetchFailed)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: downloaded file missing: %w", ErrFetchFailed, err)
	}
	if info.Size() == 0 {
		os.Remove(path)
		return "", fmt.Errorf("%w: downloaded file is empty", ErrFetchFailed)
	}
	return path, nil
}

// discard removes every file in the downloads dir whose name starts with prefix.
func (d *Downloader) discard(prefix string) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		slog.Warn("failed to list downloads dir", "dir", d.dir, "error", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		p := filepath.Join(d.dir, e.Name())
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to remove partial download", "path", p, "error", err)
		}
	}
}
