package models

import (
	"time"

	"github.com/google/uuid"
)

// Aggregation job types consumed from the queue.
const (
	JobUpdatePlayer  = "update-player"
	JobUpdateTeam    = "update-team"
	JobBatchPlayers  = "batch-players"
	JobBatchTeams    = "batch-teams"
	JobFullRecompute = "full-recompute"
)

// Job states.
const (
	JobStateQueued    = "queued"
	JobStateActive    = "active"
	JobStateCompleted = "completed"
	JobStateFailed    = "failed"
	JobStateStalled   = "stalled"
)

// AggregationJob is the unit of work the pool consumes. Exactly one of
// SteamID/TeamID/SteamIDs/TeamIDs is set depending on Type; full-recompute
// sets none.
type AggregationJob struct {
	ID   uuid.UUID `json:"id"`
	Type string    `json:"type" validate:"required,oneof=update-player update-team batch-players batch-teams full-recompute"`

	SteamID  string   `json:"steam_id,omitempty" validate:"required_if=Type update-player"`
	TeamID   string   `json:"team_id,omitempty" validate:"required_if=Type update-team"`
	SteamIDs []string `json:"steam_ids,omitempty" validate:"required_if=Type batch-players,omitempty,min=1"`
	TeamIDs  []string `json:"team_ids,omitempty" validate:"required_if=Type batch-teams,omitempty,min=1"`

	Window            string `json:"window,omitempty"`
	TriggeredByDemoID string `json:"triggered_by_demo_id,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// JobResult reports what a completed job did. Errors collects per-item
// failures from batch jobs; a batch completes even when some items fail.
type JobResult struct {
	Type           string        `json:"type"`
	PlayersUpdated int           `json:"players_updated"`
	TeamsUpdated   int           `json:"teams_updated"`
	Duration       time.Duration `json:"duration"`
	Errors         []string      `json:"errors"`
}

// JobStatus is the externally visible state of a job.
type JobStatus struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	State      string     `json:"state"`
	Progress   int        `json:"progress"` // integer percent
	StallCount int        `json:"stall_count"`
	Result     *JobResult `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
