package models

import "time"

// JobStatus is the externally visible stage of an audit job.
type JobStatus string

const (
	JobStatusPending      JobStatus = "pending"
	JobStatusDownloading  JobStatus = "downloading"
	JobStatusTranscribing JobStatus = "transcribing"
	JobStatusOCR          JobStatus = "ocr"
	JobStatusRetrieving   JobStatus = "retrieving"
	JobStatusJudging      JobStatus = "judging"
	JobStatusDone         JobStatus = "done"
	JobStatusError        JobStatus = "error"
)

// TotalSteps is the number of progress steps a job reports.
const TotalSteps = 5

// Terminal reports whether no further transitions can happen from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// Job tracks one audit run. The API returns the ID on POST /audit;
// the client polls GET /audit/{taskId} until status is done or error.
type Job struct {
	ID             string     `json:"taskId"`
	Status         JobStatus  `json:"status"`
	Step           int        `json:"step"`
	TotalSteps     int        `json:"totalSteps"`
	ElapsedSeconds float64    `json:"elapsedSeconds"`
	Result         *Report    `json:"result"`
	Error          *string    `json:"error"`
	CreatedAt      time.Time  `json:"-"`
	FinishedAt     *time.Time `json:"-"`
}

// Clone returns a deep copy safe to hand to readers outside the job table.
func (j Job) Clone() Job {
	out := j
	if j.Result != nil {
		r := j.Result.Clone()
		out.Result = &r
	}
	if j.Error != nil {
		msg := *j.Error
		out.Error = &msg
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		out.FinishedAt = &t
	}
	return out
}
