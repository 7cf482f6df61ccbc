package types

import "time"

// Result is the externally reported outcome of one optimization run.
type Result struct {
	// RunID uniquely identifies the run.
	RunID string `json:"runId"`

	// State is the terminal refinement state.
	State RunState `json:"state"`

	// Attributes lists the declared attribute types in declaration order.
	Attributes []string `json:"attributes"`

	// Placements holds one entry per item, ordered by container then input order.
	Placements []Placement `json:"placements"`

	// Containers holds one summary per container, ordered by container id.
	Containers []ContainerSummary `json:"containers"`

	// TotalScore is the sum of container scores (lower is better).
	TotalScore float64 `json:"totalScore"`

	// TotalViolation is the sum of container upper-bound violations.
	TotalViolation int `json:"totalViolation"`

	// PenaltyContainers maps each item, in input order, to its container in the
	// best-by-penalty arrangement.
	PenaltyContainers []int `json:"penaltyContainers"`

	// PenaltyViolation is the total violation of the best-by-penalty arrangement.
	PenaltyViolation int `json:"penaltyViolation"`

	// Stats holds run bookkeeping.
	Stats RunStats `json:"stats"`
}

// Placement is the final container of one item.
type Placement struct {
	ContainerID int               `json:"container"`
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Attributes  map[string]string `json:"attributes"`
}

// ContainerSummary describes one container of the final arrangement.
type ContainerSummary struct {
	ContainerID int     `json:"container"`
	Score       float64 `json:"score"`
	Violation   int     `json:"violation"`
	Size        int     `json:"size"`

	// Counts maps attribute type to value to member count (zero counts omitted).
	Counts map[string]map[string]int `json:"counts"`
}

// RunStats records what happened during a run.
type RunStats struct {
	StartedAt            time.Time     `json:"startedAt"`
	Elapsed              time.Duration `json:"elapsed"`
	InitialScore         float64       `json:"initialScore"`
	Iterations           int           `json:"iterations"`
	Improvements         int           `json:"improvements"`
	Anomalies            int           `json:"anomalies"`
	DistinctArrangements int           `json:"distinctArrangements"`
}
