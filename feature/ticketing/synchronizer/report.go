package synchronizer

import (
	"time"

	"ticketing-sync/feature/ticketing/plan"
	"ticketing-sync/feature/ticketing/store"
)

// Phase is the step a connection run has reached.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseFetching  Phase = "fetching"
	PhaseDiffing   Phase = "diffing"
	PhaseLocking   Phase = "locking"
	PhaseApplying  Phase = "applying"
	PhaseCommitted Phase = "committed"
	PhaseFailed    Phase = "failed"
)

// Status is the outcome of a connection run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ConnectionReport describes the run of one connection.
type ConnectionReport struct {
	TicketingSystemID string `json:"ticketing_system_id"`
	Provider          string `json:"provider"`
	Status            Status `json:"status"`
	// Phase is PhaseCommitted or PhaseFailed once the run is over.
	Phase Phase `json:"phase"`
	// FailedAt is the phase that failed.
	FailedAt   Phase        `json:"failed_at,omitempty"`
	Summary    plan.Summary `json:"summary"`
	Steps      []store.Step `json:"steps,omitempty"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Report describes one synchronization of an organization.
type Report struct {
	OrganizationID string             `json:"organization_id"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
	Connections    []ConnectionReport `json:"connections"`
}

// Failed counts the failed connections.
func (r *Report) Failed() int {
	n := 0
	for _, c := range r.Connections {
		if c.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Outcome is the payload published after each connection run.
type Outcome struct {
	OrganizationID    string       `json:"organization_id"`
	TicketingSystemID string       `json:"ticketing_system_id"`
	Provider          string       `json:"provider"`
	Status            Status       `json:"status"`
	Summary           plan.Summary `json:"summary"`
	Error             string       `json:"error,omitempty"`
	OccurredAt        time.Time    `json:"occurred_at"`
}
