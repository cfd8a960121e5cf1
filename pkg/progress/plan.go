package progress

import (
	"encoding/json"
	"errors"
	"fmt"

	"jurydb/pkg/keys"
	"jurydb/pkg/logger"
	"jurydb/pkg/models"
	"jurydb/pkg/store"
)

// SavePlan overwrites the singleton evaluation plan for a user. No
// history is retained.
func (s *Store) SavePlan(user string, plan json.RawMessage) error {
	if user == "" {
		return fmt.Errorf("user required")
	}
	if len(plan) == 0 {
		return fmt.Errorf("plan required")
	}
	if err := s.kv.Set(keys.Plan(user), plan); err != nil {
		logger.Error("save_plan_failed", "user", keys.NormalizeUser(user), "error", err)
		return err
	}
	logger.Info("plan_saved", "user", keys.NormalizeUser(user))
	return nil
}

// GetPlan returns the stored plan blob or nil when absent.
func (s *Store) GetPlan(user string) (json.RawMessage, error) {
	v, err := s.kv.Get(keys.Plan(user))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return json.RawMessage(v), nil
}

// SaveComparisonPlan stores the comparison plan half for (user, repo).
func (s *Store) SaveComparisonPlan(user, repo string, plan json.RawMessage) error {
	if user == "" || repo == "" {
		return fmt.Errorf("user and repo required")
	}
	return s.kv.Set(keys.Record(user, keys.TypeComparisonPlan, repo), plan)
}

// AddCompletedComparison appends a completed comparison to the list kept
// for (user, repo). Appending an already-present entry is a no-op.
func (s *Store) AddCompletedComparison(user, repo, comparison string) error {
	if user == "" || repo == "" || comparison == "" {
		return fmt.Errorf("user, repo and comparison required")
	}
	key := keys.Record(user, keys.TypeComparisonCompleted, repo)
	var done []string
	if v, err := s.kv.Get(key); err == nil {
		if err := json.Unmarshal(v, &done); err != nil {
			return fmt.Errorf("invalid stored completed list: %w", err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	for _, d := range done {
		if d == comparison {
			return nil
		}
	}
	done = append(done, comparison)
	b, err := json.Marshal(done)
	if err != nil {
		return fmt.Errorf("failed to marshal completed list: %w", err)
	}
	return s.kv.Set(key, b)
}

// GetComparisonProgress assembles the read-only composite view for
// (user, repo) from two independent gets. Either half may be absent;
// no cross-key invariant is enforced.
func (s *Store) GetComparisonProgress(user, repo string) (*models.ComparisonProgress, error) {
	out := &models.ComparisonProgress{Completed: []string{}}
	if v, err := s.kv.Get(keys.Record(user, keys.TypeComparisonPlan, repo)); err == nil {
		out.Plan = json.RawMessage(v)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if v, err := s.kv.Get(keys.Record(user, keys.TypeComparisonCompleted, repo)); err == nil {
		var done []string
		if err := json.Unmarshal(v, &done); err != nil {
			return nil, fmt.Errorf("invalid stored completed list: %w", err)
		}
		out.Completed = done
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return out, nil
}
