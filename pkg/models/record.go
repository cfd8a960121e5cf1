package models

import (
	"encoding/json"
	"time"
)

// Record statuses. The store treats status as advisory: it persists
// whatever the writer supplies and never enforces the draft -> submitted
// direction. A later save may revert a submitted record to draft
// (last write wins).
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
)

// Record is one draft/submission value stored per (user, data-type, id).
type Record struct {
	Data      json.RawMessage `json:"data"`
	Status    string          `json:"status"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Submitted reports whether the record has been finalized by the user.
// Anything other than the exact submitted status counts as draft,
// including malformed records.
func (r *Record) Submitted() bool {
	return r != nil && r.Status == StatusSubmitted
}

// ComparisonProgress is the read-only composite view assembled from two
// independent keys per (user, repository URL). No cross-key invariant is
// enforced: either half may be absent.
type ComparisonProgress struct {
	Plan      json.RawMessage `json:"plan,omitempty"`
	Completed []string        `json:"completed"`
}
