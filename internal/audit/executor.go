package audit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/kiranshivaraju/brandguard/internal/ai"
	"github.com/kiranshivaraju/brandguard/internal/report"
	"github.com/kiranshivaraju/brandguard/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Fetcher downloads the video at url and returns the local file path.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Transcriber turns the audio track of a local video into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// TextExtractor reads the text shown on screen in a local video.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) ([]string, error)
}

// Retriever returns up to k regulatory passages relevant to query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// Collaborators are the stage implementations an Executor drives.
// All of them are shared between concurrent runs.
type Collaborators struct {
	Fetcher     Fetcher
	Transcriber Transcriber
	Extractor   TextExtractor
	Retriever   Retriever
	Judge       models.AIProvider
}

// Executor drives a single job through the audit pipeline and records its
// progress in the Table.
type Executor struct {
	table        *Table
	deps         Collaborators
	topK         int
	judgeTimeout time.Duration

	now        func() time.Time
	removeFile func(string) error
	observe    func(models.Job)
}

// NewExecutor creates an Executor writing into table.
func NewExecutor(table *Table, deps Collaborators, topK int, judgeTimeout time.Duration) *Executor {
	return &Executor{
		table:        table,
		deps:         deps,
		topK:         topK,
		judgeTimeout: judgeTimeout,
		now:          time.Now,
		removeFile:   os.Remove,
	}
}

// Run executes the pipeline for job id and always leaves the job terminal.
// The slot is released after the terminal state is recorded, whatever happens.
func (e *Executor) Run(ctx context.Context, id, url string, slot *Slot) {
	defer slot.Release()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in audit run", "job_id", id, "error", r, "stack", string(debug.Stack()))
			e.fail(id, fmt.Errorf("internal error: %v", r))
		}
	}()

	rep, err := e.pipeline(ctx, id, url)
	if err != nil {
		e.fail(id, err)
		return
	}
	e.finish(id, rep)
}

func (e *Executor) pipeline(ctx context.Context, id, url string) (models.Report, error) {
	e.advance(id, models.JobStatusDownloading, 1)
	path, err := e.deps.Fetcher.Fetch(ctx, url)
	if err != nil {
		return models.Report{}, fmt.Errorf("download failed: %w", err)
	}
	defer e.cleanup(id, path)

	e.advance(id, models.JobStatusTranscribing, 2)
	transcript, onScreen, err := e.extract(ctx, id, path)
	if err != nil {
		return models.Report{}, err
	}
	if strings.TrimSpace(transcript) == "" && len(onScreen) == 0 {
		return models.Report{}, ErrNoContent
	}

	e.advance(id, models.JobStatusRetrieving, 4)
	query := strings.TrimSpace(transcript + " " + strings.Join(onScreen, " "))
	rules, err := e.deps.Retriever.Retrieve(ctx, query, e.topK)
	if err != nil {
		return models.Report{}, fmt.Errorf("rule retrieval failed: %w", err)
	}
	slog.Info("rules retrieved", "job_id", id, "count", len(rules))

	e.advance(id, models.JobStatusJudging, 5)
	judgeCtx, cancel := context.WithTimeout(ctx, e.judgeTimeout)
	defer cancel()

	raw, err := e.deps.Judge.Judge(judgeCtx, models.JudgeRequest{
		Transcript:   transcript,
		OnScreenText: onScreen,
		Rules:        rules,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ai.ErrInferenceTimeout) {
			err = fmt.Errorf("%w after %s", ai.ErrInferenceTimeout, e.judgeTimeout)
		}
		return models.Report{}, fmt.Errorf("judging failed: %w", err)
	}

	rep := report.Normalize(raw)
	slog.Info("audit verdict",
		"job_id", id,
		"violation", rep.Violation,
		"severity", rep.Severity,
		"confidence", rep.Confidence,
	)
	return rep, nil
}

// extract runs transcription and on-screen text extraction side by side.
// Status moves to ocr as soon as the transcript is ready, even if text
// extraction is still going.
func (e *Executor) extract(ctx context.Context, id, path string) (string, []string, error) {
	var (
		transcript string
		onScreen   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverInto(&err)
		text, err := e.deps.Transcriber.Transcribe(gctx, path)
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}
		transcript = text
		e.advance(id, models.JobStatusOCR, 3)
		return nil
	})
	g.Go(func() (err error) {
		defer recoverInto(&err)
		lines, err := e.deps.Extractor.ExtractText(gctx, path)
		if err != nil {
			return fmt.Errorf("on-screen text extraction failed: %w", err)
		}
		onScreen = lines
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", nil, err
	}
	return transcript, onScreen, nil
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("internal error: %v", r)
	}
}

// advance moves a running job forward. Steps never go backwards and
// terminal jobs are left alone.
func (e *Executor) advance(id string, status models.JobStatus, step int) {
	var took float64
	moved := e.update(id, func(j *models.Job, now time.Time) bool {
		if j.Status.Terminal() || step < j.Step {
			return false
		}
		j.Status = status
		j.Step = step
		j.ElapsedSeconds = elapsed(j.CreatedAt, now)
		took = j.ElapsedSeconds
		return true
	})
	if moved {
		slog.Info("audit stage",
			"job_id", id,
			"stage", status,
			"event", "stage_start",
			"step", step,
			"elapsed_seconds", took,
		)
	}
}

func (e *Executor) finish(id string, rep models.Report) {
	var took float64
	e.update(id, func(j *models.Job, now time.Time) bool {
		if j.Status.Terminal() {
			return false
		}
		j.Status = models.JobStatusDone
		j.Step = models.TotalSteps
		j.Result = &rep
		j.Error = nil
		j.FinishedAt = &now
		j.ElapsedSeconds = elapsed(j.CreatedAt, now)
		took = j.ElapsedSeconds
		return true
	})
	slog.Info("audit stage",
		"job_id", id,
		"stage", models.JobStatusDone,
		"event", "stage_complete",
		"elapsed_seconds", took,
	)
}

func (e *Executor) fail(id string, cause error) {
	msg := cause.Error()
	var (
		stage models.JobStatus
		took  float64
	)
	e.update(id, func(j *models.Job, now time.Time) bool {
		if j.Status.Terminal() {
			return false
		}
		stage = j.Status
		j.Status = models.JobStatusError
		j.Result = nil
		j.Error = &msg
		j.FinishedAt = &now
		j.ElapsedSeconds = elapsed(j.CreatedAt, now)
		took = j.ElapsedSeconds
		return true
	})
	slog.Warn("audit stage",
		"job_id", id,
		"stage", stage,
		"event", "stage_failure",
		"elapsed_seconds", took,
		"error", msg,
	)
}

func (e *Executor) update(id string, fn func(*models.Job, time.Time) bool) bool {
	now := e.now()
	var snap models.Job
	changed := false
	err := e.table.Mutate(id, func(j *models.Job) {
		if changed = fn(j, now); changed {
			snap = j.Clone()
		}
	})
	if err != nil {
		slog.Warn("audit job vanished from table", "job_id", id, "error", err)
		return false
	}
	if changed && e.observe != nil {
		e.observe(snap)
	}
	return changed
}

func (e *Executor) cleanup(id, path string) {
	if err := e.removeFile(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to remove downloaded video", "job_id", id, "path", path, "error", err)
	}
}

func elapsed(start, now time.Time) float64 {
	return math.Round(now.Sub(start).Seconds()*10) / 10
}
