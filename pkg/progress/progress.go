// Package progress implements the per-user draft/submission bookkeeping
// on top of the flat KV contract: record upsert with index maintenance,
// record fetch, the progress aggregator and bulk delete.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jurydb/pkg/keys"
	"jurydb/pkg/logger"
	"jurydb/pkg/models"
	"jurydb/pkg/store"
)

// Store executes every operation against an injected KV handle so the
// core stays testable with the in-memory backend.
type Store struct {
	kv store.KV
}

// New returns a Store operating on the given KV.
func New(kv store.KV) *Store {
	return &Store{kv: kv}
}

// SaveRecord upserts the record for (user, dataType, id) and, when id is
// non-empty, adds the id to the progress index for the pair. The two
// writes are independent: if the index write fails after the record
// write succeeded the record stays invisible to enumeration until a
// later save of the same id repeats the index update.
//
// An empty status defaults to draft. Status is not validated beyond
// that; the writer decides, and a re-save may revert submitted to draft.
func (s *Store) SaveRecord(user, dataType, id string, payload json.RawMessage, status string) error {
	if user == "" {
		return fmt.Errorf("user required")
	}
	if dataType == "" {
		return fmt.Errorf("dataType required")
	}
	if id != "" {
		if err := keys.ValidateItemID(id); err != nil {
			return err
		}
	}
	if status == "" {
		status = models.StatusDraft
	}
	rec := models.Record{
		Data:      payload,
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	key := keys.Record(user, dataType, id)
	if err := s.kv.Set(key, b); err != nil {
		logger.Error("save_record_failed", "key", key, "error", err)
		return err
	}
	logger.Info("record_saved", "user", keys.NormalizeUser(user), "type", dataType, "id", id, "status", status)

	if id == "" {
		return nil
	}
	if err := s.addToIndex(user, dataType, id); err != nil {
		logger.Error("save_record_index_failed", "user", keys.NormalizeUser(user), "type", dataType, "id", id, "error", err)
		return err
	}
	return nil
}

// GetRecord returns the stored record or nil when absent. Unknown data
// types are looked up the same way as enumerated ones.
func (s *Store) GetRecord(user, dataType, id string) (*models.Record, error) {
	v, err := s.kv.Get(keys.Record(user, dataType, id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var rec models.Record
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, fmt.Errorf("invalid stored record: %w", err)
	}
	return &rec, nil
}

// Index returns the set of item ids ever saved under (user, dataType).
// An absent index reads as empty.
func (s *Store) Index(user, dataType string) ([]string, error) {
	v, err := s.kv.Get(keys.Index(user, dataType))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(v, &ids); err != nil {
		return nil, fmt.Errorf("invalid stored index: %w", err)
	}
	return ids, nil
}

// addToIndex reads the current index, appends id if absent and writes
// the index back. Adding a present id is a no-op, so saving the same id
// any number of times leaves exactly one entry.
func (s *Store) addToIndex(user, dataType, id string) error {
	ids, err := s.Index(user, dataType)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	b, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return s.kv.Set(keys.Index(user, dataType), b)
}

// writeIndex replaces the index stored at key. An empty set deletes the
// key instead of storing an empty list. Used by the reconciler.
func (s *Store) writeIndex(key string, ids []string) error {
	if len(ids) == 0 {
		return s.kv.Delete(key)
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return s.kv.Set(key, b)
}

// GetProgress aggregates per screen-type and overall counts for a user.
// Total is the index length: an indexed id whose record is missing still
// counts toward total and is classified as draft, matching how the
// index/record pair can drift without cross-key atomicity.
func (s *Store) GetProgress(user string) (*models.Progress, error) {
	out := &models.Progress{Screens: make(map[string]models.ScreenProgress, len(keys.ScreenTypes))}
	for _, dt := range keys.ScreenTypes {
		ids, err := s.Index(user, dt)
		if err != nil {
			return nil, fmt.Errorf("read index for %s: %w", dt, err)
		}
		sp := models.ScreenProgress{Total: len(ids)}
		for _, id := range ids {
			rec, err := s.GetRecord(user, dt, id)
			if err != nil {
				// malformed records count as draft, not as failures
				logger.Warn("progress_record_unreadable", "user", keys.NormalizeUser(user), "type", dt, "id", id, "error", err)
				continue
			}
			if rec.Submitted() {
				sp.Submitted++
			}
		}
		sp.Draft = sp.Total - sp.Submitted
		out.Screens[dt] = sp
		out.Overall.Total += sp.Total
		out.Overall.Submitted += sp.Submitted
	}
	return out, nil
}

// DeleteUser removes everything stored under the user's key prefix:
// indexed records, the indexes themselves, singleton records and the
// per-repository comparison keys. A prefix sweep rather than an
// index walk, so records an index never learned about (failed index
// writes, per-repo comparison data) are removed too. Deleting absent
// keys is a no-op, so a rerun after a partial failure completes the
// operation. Step failures are logged and the first one is returned.
func (s *Store) DeleteUser(user string) error {
	if user == "" {
		return fmt.Errorf("user required")
	}
	ks, err := s.kv.ListKeys(keys.UserPrefix(user))
	if err != nil {
		return fmt.Errorf("list keys for %s: %w", keys.NormalizeUser(user), err)
	}
	var firstErr error
	for _, k := range ks {
		if err := s.kv.Delete(k); err != nil {
			logger.Error("delete_user_key_failed", "user", keys.NormalizeUser(user), "key", k, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return fmt.Errorf("delete user %s incomplete: %w", keys.NormalizeUser(user), firstErr)
	}
	logger.Info("user_deleted", "user", keys.NormalizeUser(user), "keys", len(ks))
	return nil
}
