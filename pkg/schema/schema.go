// Package schema tracks the store format version (a single integer kept
// under a system key) and runs idempotent migrations when the binary's
// version is ahead of the stored one.
package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jurydb/pkg/keys"
	"jurydb/pkg/logger"
	"jurydb/pkg/store"
)

// Version is the store format version this binary writes.
const Version = 1

const (
	systemVersionKey    = "system:schema_version"
	systemInProgressKey = "system:migration_in_progress"
)

// Run checks the stored schema version and runs migrations if needed.
// Returns (invoked, error): invoked is true if migration work ran.
func Run(ctx context.Context, kv store.KV) (bool, error) {
	stored := storedVersion(kv)
	logger.Info("schema_version_check", "stored", stored, "running", Version)
	if stored == Version {
		return false, nil
	}
	if stored > Version {
		return false, fmt.Errorf("store schema version %d is newer than binary version %d", stored, Version)
	}

	marker := map[string]string{
		"from":       strconv.Itoa(stored),
		"to":         strconv.Itoa(Version),
		"started_at": time.Now().UTC().Format(time.RFC3339),
	}
	mb, _ := json.Marshal(marker)
	if err := kv.Set(systemInProgressKey, mb); err != nil {
		return true, fmt.Errorf("failed to write in-progress marker: %w", err)
	}

	if err := sync(ctx, kv, stored); err != nil {
		logger.Error("schema_sync_failed", "from", stored, "to", Version, "error", err)
		return true, err
	}

	if err := kv.Set(systemVersionKey, []byte(strconv.Itoa(Version))); err != nil {
		return true, fmt.Errorf("failed to persist new version: %w", err)
	}
	if err := kv.Delete(systemInProgressKey); err != nil {
		logger.Error("schema_delete_inprogress_failed", "error", err)
	}
	logger.Info("schema_version_persisted", "version", Version)
	return true, nil
}

// sync performs upgrade work between versions. Edit in-place for
// migration logic; every step must be idempotent.
func sync(ctx context.Context, kv store.KV, from int) error {
	logger.Info("schema_sync_start", "from", from, "to", Version)

	// Migration to v1: backfill progress indexes from existing record
	// keys. Pre-index stores wrote records without maintaining the
	// per (user, data-type) index, leaving them invisible to the
	// aggregator. Scanning record keys is safe here because the layout
	// is fixed: review:<user>:<type>:<id>, user ids never contain the
	// separator (rejected at the write boundary), and only the id
	// segment may, which is why it is left unsplit.
	if from < 1 {
		if err := backfillIndexes(ctx, kv); err != nil {
			return err
		}
	}

	logger.Info("schema_sync_done", "from", from, "to", Version)
	return nil
}

func backfillIndexes(ctx context.Context, kv store.KV) error {
	all, err := kv.ListKeys(keys.Prefix + ":")
	if err != nil {
		return err
	}
	for _, k := range all {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		parts := strings.SplitN(k, ":", 4)
		if len(parts) < 4 {
			continue // singleton record, nothing to index
		}
		user, dataType, id := parts[1], parts[2], parts[3]
		if id == keys.IndexID {
			continue
		}
		indexed := false
		for _, st := range keys.ScreenTypes {
			if dataType == st {
				indexed = true
				break
			}
		}
		if !indexed {
			continue
		}
		if err := addToIndex(kv, user, dataType, id); err != nil {
			logger.Error("schema_backfill_index_failed", "key", k, "error", err)
			return err
		}
	}
	return nil
}

func addToIndex(kv store.KV, user, dataType, id string) error {
	key := keys.Index(user, dataType)
	var ids []string
	if v, err := kv.Get(key); err == nil {
		if err := json.Unmarshal(v, &ids); err != nil {
			return fmt.Errorf("invalid stored index %s: %w", key, err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
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
		return err
	}
	return kv.Set(key, b)
}

func storedVersion(kv store.KV) int {
	v, err := kv.Get(systemVersionKey)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(v)))
	if err != nil {
		return 0
	}
	return n
}
