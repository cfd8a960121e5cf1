package validation

import (
	"fmt"
	"strings"
	"sync"

	"jurydb/pkg/keys"
)

// Rules holds the runtime validation settings applied at the HTTP
// boundary. Set once during startup.
type Rules struct {
	// MaxPayloadBytes bounds the JSON payload of a single record.
	// Zero means no limit.
	MaxPayloadBytes int64
	// MaxUserLen bounds the user identifier length.
	MaxUserLen int
}

var (
	rulesMu sync.RWMutex
	rules   = Rules{MaxUserLen: 128}
)

// SetRules installs the validation rules.
func SetRules(r Rules) {
	rulesMu.Lock()
	defer rulesMu.Unlock()
	if r.MaxUserLen == 0 {
		r.MaxUserLen = 128
	}
	rules = r
}

func get() Rules {
	rulesMu.RLock()
	defer rulesMu.RUnlock()
	return rules
}

// ValidateUser checks a user identifier. The store is permissive about
// the identifier's shape (any opaque string keys records), but ':' is
// the key separator and would make record keys ambiguous, so it is
// rejected along with empty and oversized values.
func ValidateUser(user string) error {
	if user == "" {
		return fmt.Errorf("user required")
	}
	if strings.Contains(user, ":") {
		return fmt.Errorf("user must not contain ':'")
	}
	if max := get().MaxUserLen; len(user) > max {
		return fmt.Errorf("user too long")
	}
	return nil
}

// ValidateSave checks the fields of a record upsert. Unknown data-types
// are accepted; only missing fields and reserved ids fail.
func ValidateSave(user, dataType, id string, payloadLen int) error {
	if err := ValidateUser(user); err != nil {
		return err
	}
	if dataType == "" {
		return fmt.Errorf("dataType required")
	}
	if id != "" {
		if err := keys.ValidateItemID(id); err != nil {
			return err
		}
	}
	if max := get().MaxPayloadBytes; max > 0 && int64(payloadLen) > max {
		return fmt.Errorf("payload too large")
	}
	return nil
}

// KnownDataType reports whether dataType is in the enumerated set. Used
// for logging only; reads and writes stay permissive.
func KnownDataType(dataType string) bool {
	for _, dt := range keys.AllTypes {
		if dt == dataType {
			return true
		}
	}
	return false
}
