// Package keys owns the key naming scheme for the flat key-value
// namespace. Readers enumerate through the per (user, data-type) index;
// only bulk delete and the index reconciler fall back to prefix scans.
package keys

import (
	"fmt"
	"strings"
)

// Prefix namespaces every jurydb key in the backing store.
const Prefix = "review"

// IndexID is the reserved item id under which the progress index for a
// (user, data-type) pair is stored. Callers must reject it as a real
// item id (see ValidateItemID).
const IndexID = "_index"

// Data-type tags partitioning a user's records.
const (
	TypeBackground  = "background"
	TypeScale       = "scale"
	TypeSimilar     = "similar"
	TypeComparison  = "comparison"
	TypeOriginality = "originality"
	TypeProfile     = "profile"

	// TypeEvaluationPlan addresses the singleton per-user plan blob,
	// independent of the index/progress bookkeeping.
	TypeEvaluationPlan = "evaluation_plan"

	// Comparison-progress halves, keyed per repository URL.
	TypeComparisonPlan      = "comparison_plan"
	TypeComparisonCompleted = "comparison_completed"
)

// ScreenTypes are the data-types the progress aggregator walks.
var ScreenTypes = []string{
	TypeBackground,
	TypeScale,
	TypeSimilar,
	TypeComparison,
	TypeOriginality,
}

// AllTypes is every enumerated data-type; bulk delete walks this set.
var AllTypes = []string{
	TypeBackground,
	TypeScale,
	TypeSimilar,
	TypeComparison,
	TypeOriginality,
	TypeProfile,
	TypeEvaluationPlan,
	TypeComparisonPlan,
	TypeComparisonCompleted,
}

// NormalizeUser lower-cases a user identifier (wallet addresses are
// case-insensitive; mixed-case checksummed forms must hit the same keys).
func NormalizeUser(user string) string {
	return strings.ToLower(strings.TrimSpace(user))
}

// Record returns the key for a (user, data-type, id) triple. With id
// empty the key addresses the singleton record for the pair.
func Record(user, dataType, id string) string {
	if id == "" {
		return fmt.Sprintf("%s:%s:%s", Prefix, NormalizeUser(user), dataType)
	}
	return fmt.Sprintf("%s:%s:%s:%s", Prefix, NormalizeUser(user), dataType, id)
}

// UserPrefix returns the key prefix covering everything stored for a
// user. The trailing separator keeps users that share a prefix apart.
func UserPrefix(user string) string {
	return fmt.Sprintf("%s:%s:", Prefix, NormalizeUser(user))
}

// Index returns the progress-index key for a (user, data-type) pair.
func Index(user, dataType string) string {
	return Record(user, dataType, IndexID)
}

// Plan returns the singleton evaluation-plan key for a user.
func Plan(user string) string {
	return Record(user, TypeEvaluationPlan, "")
}

// Profile returns the singleton profile key for a user.
func Profile(user string) string {
	return Record(user, TypeProfile, "")
}

// ValidateItemID rejects ids that would collide with the reserved index
// slot. Everything else is accepted; ids may contain any characters
// (repository URLs are used verbatim as comparison ids).
func ValidateItemID(id string) error {
	if id == IndexID {
		return fmt.Errorf("item id %q is reserved", IndexID)
	}
	return nil
}
