package store

import "errors"

// ErrNotFound is returned by Get when the key is absent. Callers treat
// absence as a normal outcome, not a failure.
var ErrNotFound = errors.New("key not found")

// KV is the flat key-value contract the progress core is built on.
// Values are opaque JSON text. The backend guarantees last-write-wins
// per individual key and nothing across keys.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	ListKeys(prefix string) ([]string, error)
}
