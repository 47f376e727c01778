package project

import "time"

// Artifact kinds.
const (
	KindReport  = "report"
	KindChart   = "chart"
	KindProfile = "profile"
)

// Artifact records one file produced into a project.
type Artifact struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Path        string    `json:"path"` // relative to the project root
	Description string    `json:"description"`
	RunID       string    `json:"run_id,omitempty"`
	Bytes       int64     `json:"bytes"`
	AddedAt     time.Time `json:"added_at"`
}
