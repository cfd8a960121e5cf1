package store

import (
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process KV used by tests and by callers that want the
// progress core without a disk-backed database. It mirrors the Pebble
// semantics: last write wins per key, deletes of absent keys succeed.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte

	// FailSet, when non-nil, makes Set fail for keys the func matches.
	// Tests use it to exercise partial-failure paths (e.g. an index
	// write failing after the record write succeeded).
	FailSet func(key string) error
}

// NewMemory returns an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{m: make(map[string][]byte)}
}

func (s *Memory) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Memory) Set(key string, value []byte) error {
	if s.FailSet != nil {
		if err := s.FailSet(key); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = append([]byte(nil), value...)
	return nil
}

func (s *Memory) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *Memory) ListKeys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for k := range s.m {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Len returns the number of stored keys.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
