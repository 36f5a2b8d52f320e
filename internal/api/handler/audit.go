package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/kiranshivaraju/brandguard/internal/api/response"
	"github.com/kiranshivaraju/brandguard/internal/audit"
	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// capacityRetryAfter is the Retry-After hint for a full service.
const capacityRetryAfter = 30 * time.Second

// maxBodyBytes caps the POST /audit body.
const maxBodyBytes = 1 << 16

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// Auditor is the job service the audit handlers depend on.
type Auditor interface {
	Submit(ctx context.Context, url string) (models.Job, error)
	Status(id string) (models.Job, error)
}

// SubmitRequest is the body of POST /audit.
type SubmitRequest struct {
	YoutubeURL string `json:"youtubeUrl" validate:"required,http_url"`
}

type submitResponse struct {
	TaskID string           `json:"taskId"`
	Status models.JobStatus `json:"status"`
}

// NewSubmitHandler returns an http.HandlerFunc for POST /audit.
func NewSubmitHandler(svc Auditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Error(w, http.StatusRequestEntityTooLarge, response.CodeInvalidRequest,
					fmt.Sprintf("Request body exceeds %d bytes", maxBodyBytes), nil)
				return
			}
			response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "Invalid JSON body", nil)
			return
		}
		if err := validate.Struct(req); err != nil {
			response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest,
				"youtubeUrl must be an http(s) URL", validationDetails(err))
			return
		}

		job, err := svc.Submit(r.Context(), req.YoutubeURL)
		if err != nil {
			switch {
			case errors.Is(err, audit.ErrCapacityExhausted):
				response.TooManyRequests(w, capacityRetryAfter, response.CodeCapacityExhausted,
					"All audit slots are busy; try again shortly")
			default:
				slog.Error("submit audit", "error", err)
				response.Internal(w)
			}
			return
		}

		response.Accepted(w, submitResponse{TaskID: job.ID, Status: job.Status})
	}
}

// NewStatusHandler returns an http.HandlerFunc for GET /audit/{taskId}.
func NewStatusHandler(svc Auditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "taskId")

		job, err := svc.Status(id)
		if err != nil {
			if errors.Is(err, audit.ErrJobNotFound) {
				response.Error(w, http.StatusNotFound, response.CodeTaskNotFound,
					fmt.Sprintf("No audit task with id %q", id), nil)
				return
			}
			slog.Error("audit status", "task_id", id, "error", err)
			response.Internal(w)
			return
		}

		response.JSON(w, job)
	}
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag()))
	}
	return details
}
