package cycle

import "time"

// Status of a cycle run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Run is the operator-facing record of one RunCycle invocation.
type Run struct {
	ID         string     `json:"id"`
	Site       string     `json:"site"`
	Status     Status     `json:"status"`
	Page       int        `json:"page"`
	ListingURL string     `json:"listing_url,omitempty"`
	Counts     Counts     `json:"counts"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Counts summarise what a cycle did.
type Counts struct {
	Found           int `json:"found"`
	New             int `json:"new"`
	Completed       int `json:"completed"`
	AlreadyImported int `json:"already_imported"`
	Errored         int `json:"errored"`
}

// Processed is the number of pages that left pending during the run.
func (c Counts) Processed() int { return c.Completed + c.AlreadyImported + c.Errored }
