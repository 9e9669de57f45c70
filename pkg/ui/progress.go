package ui

import (
	"time"
)

// StatusTracker keeps track of harvest progress across sets
type StatusTracker struct {
	TotalFetched int
	TotalFailed  int
	StartTime    time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		StartTime: time.Now(),
	}
}

// IncrementFetched increments the fetched counter
func (st *StatusTracker) IncrementFetched() {
	st.TotalFetched++
}

// IncrementFailed increments the failed counter
func (st *StatusTracker) IncrementFailed() {
	st.TotalFailed++
}

// Elapsed returns the time since tracking started
func (st *StatusTracker) Elapsed() time.Duration {
	return time.Since(st.StartTime)
}

// Rate returns the average fetch rate in records per minute
func (st *StatusTracker) Rate() float64 {
	elapsed := st.Elapsed().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.TotalFetched) / elapsed
}
