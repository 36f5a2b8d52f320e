package audit

import (
	"time"

	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// Sweep evicts terminal jobs that finished more than ttl before now and
// returns how many were removed. Jobs still running are never touched.
func Sweep(t *Table, now time.Time, ttl time.Duration) int {
	return t.RemoveWhere(func(j *models.Job) bool {
		return j.FinishedAt != nil && now.Sub(*j.FinishedAt) > ttl
	})
}
