package audit

import (
	"context"
	"testing"
	"time"

	"github.com/kiranshivaraju/brandguard/internal/ai/mock"
	"github.com/kiranshivaraju/brandguard/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(stages *fakeStages, capacity int) *Service {
	return NewService(stages.collaborators(mock.NewMockProvider()), Options{
		RetentionTTL:  time.Hour,
		MaxConcurrent: capacity,
		TopK:          3,
		JudgeTimeout:  time.Second,
	})
}

func waitTerminal(t *testing.T, svc *Service, id string) models.Job {
	t.Helper()
	var job models.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = svc.Status(id)
		return err == nil && job.Status.Terminal()
	}, 5*time.Second, 5*time.Millisecond)
	return job
}

func TestSubmit_ReturnsPendingImmediately(t *testing.T) {
	release := make(chan struct{})
	stages := &fakeStages{
		fetchFunc: func(context.Context, string) (string, error) {
			<-release
			return "/tmp/v.mp4", nil
		},
	}
	svc := newTestService(stages, 2)
	svc.exec.removeFile = func(string) error { return nil }

	start := time.Now()
	job, err := svc.Submit(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	assert.Len(t, job.ID, idLength)
	assert.Equal(t, models.JobStatusPending, job.Status)

	close(release)
	done := waitTerminal(t, svc, job.ID)
	assert.Equal(t, models.JobStatusDone, done.Status)
}

func TestSubmit_AdmissionRejectsNPlusOne(t *testing.T) {
	release := make(chan struct{})
	stages := &fakeStages{
		fetchFunc: func(context.Context, string) (string, error) {
			<-release
			return "/tmp/v.mp4", nil
		},
	}
	svc := newTestService(stages, 2)
	svc.exec.removeFile = func(string) error { return nil }

	first, err := svc.Submit(context.Background(), "u1")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), "u2")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "u3")
	assert.ErrorIs(t, err, ErrCapacityExhausted)
	assert.Equal(t, 2, svc.Stats().Tracked, "rejected submissions are never recorded")

	close(release)
	waitTerminal(t, svc, first.ID)
	require.NoError(t, svc.Wait(context.Background()))

	_, err = svc.Submit(context.Background(), "u4")
	assert.NoError(t, err)
	require.NoError(t, svc.Wait(context.Background()))
	assert.Equal(t, 0, svc.Stats().Active)
}

func TestSubmit_RetriesIDCollision(t *testing.T) {
	svc := newTestService(&fakeStages{}, 2)
	svc.exec.removeFile = func(string) error { return nil }
	_, err := svc.table.Create("taken001", time.Now())
	require.NoError(t, err)

	ids := []string{"taken001", "taken001", "fresh001"}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	job, err := svc.Submit(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, "fresh001", job.ID)
	require.NoError(t, svc.Wait(context.Background()))
}

func TestSubmit_GivesUpAfterRepeatedCollisions(t *testing.T) {
	svc := newTestService(&fakeStages{}, 1)
	_, err := svc.table.Create("taken001", time.Now())
	require.NoError(t, err)
	svc.newID = func() string { return "taken001" }

	_, err = svc.Submit(context.Background(), "u")
	assert.ErrorIs(t, err, ErrDuplicateJob)
	assert.Equal(t, 0, svc.gate.InUse(), "slot returned when no id could be allocated")
}

func TestStatus_NotFound(t *testing.T) {
	svc := newTestService(&fakeStages{}, 1)
	_, err := svc.Status("nope0000")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestStatus_SweepsExpiredJobs(t *testing.T) {
	svc := newTestService(&fakeStages{}, 1)
	svc.exec.removeFile = func(string) error { return nil }

	job, err := svc.Submit(context.Background(), "u")
	require.NoError(t, err)
	waitTerminal(t, svc, job.ID)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Status(job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestWait_HonoursContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	stages := &fakeStages{
		fetchFunc: func(context.Context, string) (string, error) {
			<-block
			return "", context.Canceled
		},
	}
	svc := newTestService(stages, 1)

	_, err := svc.Submit(context.Background(), "u")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Wait(ctx), context.DeadlineExceeded)
}

func TestSubmit_DetachedFromRequestContext(t *testing.T) {
	svc := newTestService(&fakeStages{}, 1)
	svc.exec.removeFile = func(string) error { return nil }

	ctx, cancel := context.WithCancel(context.Background())
	job, err := svc.Submit(ctx, "u")
	require.NoError(t, err)
	cancel()

	done := waitTerminal(t, svc, job.ID)
	assert.Equal(t, models.JobStatusDone, done.Status)
}
