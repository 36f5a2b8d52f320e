package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_ReturnsPrintedPath(t *testing.T) {
	dir := t.TempDir()
	runner := newFakeRunner()
	runner.on("yt-dlp", func(args []string) ([]byte, []byte, error) {
		tmpl := argAfter(args, "--output")
		path := strings.Replace(strings.Replace(tmpl, "%(id)s", "abc123", 1), "%(ext)s", "mp4", 1)
		writeFile(t, path, "video-bytes")
		return []byte(path + "\n"), nil, nil
	})

	d := NewDownloader("yt-dlp", dir, runner)
	d.prefix = func() string { return "deadbeef" }

	path, err := d.Fetch(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "deadbeef-abc123.mp4"), path)

	calls := runner.callsTo("yt-dlp")
	require.Len(t, calls, 1)
	args := calls[0].args
	assert.Equal(t, downloadFormat, argAfter(args, "--format"))
	assert.Equal(t, "mp4", argAfter(args, "--merge-output-format"))
	assert.Equal(t, "after_move:filepath", argAfter(args, "--print"))
	assert.Contains(t, args, "--no-playlist")
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", args[len(args)-1])
}

func TestFetch_UniquePrefixPerCall(t *testing.T) {
	runner := newFakeRunner()
	var templates []string
	runner.on("yt-dlp", func(args []string) ([]byte, []byte, error) {
		templates = append(templates, argAfter(args, "--output"))
		return nil, []byte("ERROR: stop"), errors.New("exit status 1")
	})

	d := NewDownloader("yt-dlp", t.TempDir(), runner)
	_, _ = d.Fetch(context.Background(), "https://youtu.be/x")
	_, _ = d.Fetch(context.Background(), "https://youtu.be/x")

	require.Len(t, templates, 2)
	assert.NotEqual(t, templates[0], templates[1])
}

func TestFetch_CommandFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.on("yt-dlp", func([]string) ([]byte, []byte, error) {
		return nil, []byte("ERROR: [youtube] abc: Video unavailable\n"), errors.New("exit status 1")
	})

	_, err := NewDownloader("yt-dlp", t.TempDir(), runner).Fetch(context.Background(), "https://youtu.be/abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Contains(t, err.Error(), "Video unavailable")
}

func TestFetch_NoPathPrinted(t *testing.T) {
	runner := newFakeRunner()
	runner.on("yt-dlp", func([]string) ([]byte, []byte, error) { return nil, nil, nil })

	_, err := NewDownloader("yt-dlp", t.TempDir(), runner).Fetch(context.Background(), "https://youtu.be/abc")
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestFetch_EmptyFileRemoved(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.mp4")
	runner := newFakeRunner()
	runner.on("yt-dlp", func([]string) ([]byte, []byte, error) {
		writeFile(t, path, "")
		return []byte(path), nil, nil
	})

	_, err := NewDownloader("yt-dlp", dir, runner).Fetch(context.Background(), "https://youtu.be/abc")
	assert.ErrorIs(t, err, ErrFetchFailed)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetch_FailureRemovesPartialFiles(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "cafef00d-abc123.mp4")
	writeFile(t, other, "another job's video")

	runner := newFakeRunner()
	runner.on("yt-dlp", func(args []string) ([]byte, []byte, error) {
		base := strings.Replace(argAfter(args, "--output"), "%(id)s", "abc123", 1)
		writeFile(t, strings.Replace(base, "%(ext)s", "f137.mp4.part", 1), "partial")
		writeFile(t, strings.Replace(base, "%(ext)s", "f140.m4a", 1), "audio")
		return nil, []byte("ERROR: connection reset\n"), errors.New("exit status 1")
	})

	d := NewDownloader("yt-dlp", dir, runner)
	d.prefix = func() string { return "deadbeef" }

	_, err := d.Fetch(context.Background(), "https://youtu.be/abc123")
	require.ErrorIs(t, err, ErrFetchFailed)
	assert.Contains(t, err.Error(), "connection reset")

	left, err := filepath.Glob(filepath.Join(dir, "deadbeef-*"))
	require.NoError(t, err)
	assert.Empty(t, left)

	_, err = os.Stat(other)
	assert.NoError(t, err, "files of other downloads are kept")
}

func TestFetch_MissingOutputRemovesPartialFiles(t *testing.T) {
	dir := t.TempDir()
	runner := newFakeRunner()
	runner.on("yt-dlp", func(args []string) ([]byte, []byte, error) {
		base := strings.Replace(argAfter(args, "--output"), "%(id)s", "abc123", 1)
		writeFile(t, strings.Replace(base, "%(ext)s", "webm.part", 1), "partial")
		return []byte(filepath.Join(dir, "gone.mp4") + "\n"), nil, nil
	})

	d := NewDownloader("yt-dlp", dir, runner)
	d.prefix = func() string { return "deadbeef" }

	_, err := d.Fetch(context.Background(), "https://youtu.be/abc123")
	require.ErrorIs(t, err, ErrFetchFailed)

	left, err := filepath.Glob(filepath.Join(dir, "deadbeef-*"))
	require.NoError(t, err)
	assert.Empty(t, left)
}
