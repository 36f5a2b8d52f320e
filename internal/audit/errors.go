package audit

import "errors"

var (
	// ErrCapacityExhausted is returned by Submit when every admission slot is held.
	ErrCapacityExhausted = errors.New("audit capacity exhausted")
	// ErrJobNotFound is returned for unknown or already swept job ids.
	ErrJobNotFound = errors.New("audit job not found")
	// ErrDuplicateJob is returned by Table.Create when the id is already tracked.
	ErrDuplicateJob = errors.New("audit job already exists")
	// ErrNoContent fails a job whose video yielded neither speech nor on-screen text.
	ErrNoContent = errors.New("no transcript or on-screen text could be extracted")
)
