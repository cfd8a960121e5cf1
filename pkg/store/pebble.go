package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"jurydb/pkg/logger"
)

// Pebble is the production KV backed by a Pebble database. All writes
// are synced; durability of a saved draft matters more than write
// throughput at this scale.
type Pebble struct {
	db   *pebble.DB
	path string
}

// Open opens (or creates) a Pebble database at the given path.
func Open(path string) (*Pebble, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("pebble_opened", "path", path)
	return &Pebble{db: db, path: path}, nil
}

// Close closes the underlying database.
func (p *Pebble) Close() error {
	if p.db == nil {
		return nil
	}
	if err := p.db.Close(); err != nil {
		return err
	}
	p.db = nil
	logger.Info("pebble_closed", "path", p.path)
	return nil
}

// Ready reports whether the store is opened and usable.
func (p *Pebble) Ready() bool {
	return p != nil && p.db != nil
}

// Get returns the raw value for the given key, or ErrNotFound.
func (p *Pebble) Get(key string) ([]byte, error) {
	if p.db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		logger.Error("get_key_failed", "key", key, "error", err)
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	logger.Debug("get_key_ok", "key", key, "len", len(out))
	return out, nil
}

// Set stores a key/value pair.
func (p *Pebble) Set(key string, value []byte) error {
	if p.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if err := p.db.Set([]byte(key), value, pebble.Sync); err != nil {
		logger.Error("save_key_failed", "key", key, "error", err)
		return err
	}
	logger.Debug("save_key_ok", "key", key, "len", len(value))
	return nil
}

// Delete removes a key. Deleting an absent key is a no-op, which keeps
// bulk delete idempotent and safe to rerun.
func (p *Pebble) Delete(key string) error {
	if p.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		logger.Error("delete_key_failed", "key", key, "error", err)
		return err
	}
	logger.Debug("delete_key_ok", "key", key)
	return nil
}

// ListKeys returns all keys that start with the given prefix. If prefix
// is empty it returns every key in the DB.
func (p *Pebble) ListKeys(prefix string) ([]string, error) {
	if p.db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []string
	if prefix == "" {
		for iter.First(); iter.Valid(); iter.Next() {
			k := append([]byte(nil), iter.Key()...)
			out = append(out, string(k))
		}
		return out, iter.Error()
	}
	pfx := []byte(prefix)
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		k := append([]byte(nil), iter.Key()...)
		out = append(out, string(k))
	}
	return out, iter.Error()
}
