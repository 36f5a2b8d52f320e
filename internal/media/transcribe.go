package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kiranshivaraju/brandguard/pkg/textutil"
)

// WhisperOptions select the whisper model and forced language.
type WhisperOptions struct {
	Model    string
	Language string
}

// Transcriber extracts the audio track with ffmpeg and transcribes it with
// the whisper CLI.
type Transcriber struct {
	ffmpeg  string
	whisper string
	opts    WhisperOptions
	runner  Runner
}

func NewTranscriber(ffmpeg, whisper string, opts WhisperOptions, runner Runner) *Transcriber {
	if opts.Model == "" {
		opts.Model = "tiny"
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	return &Transcriber{ffmpeg: ffmpeg, whisper: whisper, opts: opts, runner: runner}
}

// Transcribe returns the cleaned transcript of path. A video with no audio
// stream yields an empty transcript.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	tmp, err := os.MkdirTemp("", "brandguard-audio-")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	wav := filepath.Join(tmp, "audio.wav")
	_, stderr, err := t.runner.Run(ctx, t.ffmpeg,
		"-nostdin", "-y", "-loglevel", "error",
		"-i", path,
		"-vn", "-ac", "1", "-ar", "16000", "-f", "wav",
		wav,
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if noAudio(stderr) {
			slog.Info("video has no audio stream", "path", path)
			return "", nil
		}
		return "", fmt.Errorf("extracting audio: %s", lastLine(stderr))
	}

	_, stderr, err = t.runner.Run(ctx, t.whisper, wav,
		"--model", t.opts.Model,
		"--language", t.opts.Language,
		"--output_format", "txt",
		"--output_dir", tmp,
		"--fp16", "False",
		"--condition_on_previous_text", "False",
		"--verbose", "False",
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("whisper: %s", lastLine(stderr))
	}

	raw, err := os.ReadFile(filepath.Join(tmp, "audio.txt"))
	if err != nil {
		return "", fmt.Errorf("reading whisper output: %w", err)
	}
	transcript := textutil.Clean(string(raw))
	slog.Debug("transcription complete", "chars", len(transcript))
	return transcript, nil
}

var noAudioMarkers = [][]byte{
	[]byte("does not contain any stream"),
	[]byte("matches no streams"),
	[]byte("Output file is empty"),
}

func noAudio(stderr []byte) bool {
	for _, m := range noAudioMarkers {
		if bytes.Contains(stderr, m) {
			return true
		}
	}
	return false
}
