package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kiranshivaraju/brandguard/pkg/textutil"
)

// minSegmentRunes drops OCR noise such as stray letters and punctuation.
const minSegmentRunes = 3

// OCROptions controls frame sampling.
type OCROptions struct {
	Language   string
	Interval   time.Duration
	FrameWidth int
	MaxFrames  int
}

// OCR samples frames with ffmpeg and reads them with tesseract.
type OCR struct {
	ffmpeg    string
	tesseract string
	opts      OCROptions
	runner    Runner
}

func NewOCR(ffmpeg, tesseract string, opts OCROptions, runner Runner) *OCR {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.FrameWidth <= 0 {
		opts.FrameWidth = 640
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = 12
	}
	return &OCR{ffmpeg: ffmpeg, tesseract: tesseract, opts: opts, runner: runner}
}

// ExtractText returns the distinct text segments visible in the sampled
// frames of path, in first-seen order.
func (o *OCR) ExtractText(ctx context.Context, path string) ([]string, error) {
	tmp, err := os.MkdirTemp("", "brandguard-frames-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	frames, err := o.sampleFrames(ctx, path, tmp)
	if err != nil {
		return nil, err
	}

	var segments []string
	for i, frame := range frames {
		stdout, stderr, err := o.runner.Run(ctx, o.tesseract, frame, "stdout", "-l", o.opts.Language)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("ocr failed on frame", "frame", i, "error", lastLine(stderr))
			continue
		}
		for _, line := range strings.Split(string(stdout), "\n") {
			line = textutil.Clean(line)
			if utf8.RuneCountInString(line) >= minSegmentRunes {
				segments = append(segments, line)
			}
		}
	}

	out := textutil.DedupeFold(segments)
	slog.Debug("ocr complete", "segments", len(out), "frames", len(frames))
	return out, nil
}

func (o *OCR) sampleFrames(ctx context.Context, path, dir string) ([]string, error) {
	filter := fmt.Sprintf("fps=1/%g,scale='min(%d,iw)':-2", o.opts.Interval.Seconds(), o.opts.FrameWidth)
	_, stderr, err := o.runner.Run(ctx, o.ffmpeg,
		"-nostdin", "-y", "-loglevel", "error",
		"-i", path,
		"-vf", filter,
		"-frames:v", fmt.Sprint(o.opts.MaxFrames),
		filepath.Join(dir, "frame-%03d.png"),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("sampling frames: %s", lastLine(stderr))
	}

	frames, err := filepath.Glob(filepath.Join(dir, "frame-*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(frames)
	return frames, nil
}
