package progress

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"jurydb/pkg/keys"
	"jurydb/pkg/logger"
	"jurydb/pkg/store"
)

// ReconcileIndexes walks every progress index in the store and drops
// entries whose record is missing. Such orphans appear when a record
// delete succeeded but the matching index update did not (the two keys
// are never written atomically). Readers already tolerate orphans by
// counting them as drafts; the sweep just stops them from inflating
// totals forever.
//
// Returns the number of dropped entries. The sweep checks ctx between
// indexes so a shutdown does not wait for a full pass.
func (s *Store) ReconcileIndexes(ctx context.Context) (int, error) {
	idxKeys, err := s.kv.ListKeys(keys.Prefix + ":")
	if err != nil {
		return 0, err
	}
	suffix := ":" + keys.IndexID
	dropped := 0
	for _, ik := range idxKeys {
		if !strings.HasSuffix(ik, suffix) {
			continue
		}
		select {
		case <-ctx.Done():
			return dropped, ctx.Err()
		default:
		}
		v, err := s.kv.Get(ik)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return dropped, err
		}
		var ids []string
		if err := json.Unmarshal(v, &ids); err != nil {
			logger.Warn("reconcile_index_unreadable", "key", ik, "error", err)
			continue
		}
		base := strings.TrimSuffix(ik, suffix)
		kept := ids[:0]
		for _, id := range ids {
			if _, err := s.kv.Get(base + ":" + id); err == nil {
				kept = append(kept, id)
				continue
			} else if !errors.Is(err, store.ErrNotFound) {
				return dropped, err
			}
			dropped++
			logger.Info("reconcile_dropped_orphan", "index", ik, "id", id)
		}
		if len(kept) == len(ids) {
			continue
		}
		if err := s.writeIndex(ik, kept); err != nil {
			return dropped, err
		}
	}
	return dropped, nil
}
