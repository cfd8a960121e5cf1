package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"jurydb/pkg/config"
	"jurydb/pkg/keys"
	"jurydb/pkg/logger"
	"jurydb/pkg/utils"
)

// Role represents the resolved caller role for a request.
type Role int

const (
	RoleUnauth Role = iota
	RoleFrontend
	RoleBackend
	RoleAdmin
)

// SecConfig mirrors the security-related configuration used to drive
// authentication, CORS and rate limiting behavior. Shared by limiter.go
// and gateway.go.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	IPWhitelist    []string
	BackendKeys    map[string]struct{}
	FrontendKeys   map[string]struct{}
	AdminKeys      map[string]struct{}
}

type ctxUserKey struct{}

// RequireSignedUser verifies HMAC signature headers and injects the
// verified wallet address into the request context. The signature is
// computed over the lower-cased address, so checksummed and lower-case
// forms of the same wallet verify against the same signature.
func RequireSignedUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.Header.Get("X-Role-Name")
		userID := keys.NormalizeUser(r.Header.Get("X-User-ID"))
		sig := strings.TrimSpace(r.Header.Get("X-User-Signature"))

		// Backend/admin callers may omit the signature entirely; handlers
		// then accept a user from body or query. A signature, when
		// present, is still verified.
		if role == "backend" || role == "admin" {
			if sig == "" {
				next.ServeHTTP(w, r)
				return
			}
		}

		if sig == "" || userID == "" {
			logger.Warn("missing_signature_headers", "path", r.URL.Path, "remote", r.RemoteAddr)
			utils.JSONError(w, http.StatusUnauthorized, "missing signature headers")
			return
		}

		keySet := config.GetSigningKeys()
		if len(keySet) == 0 {
			logger.Error("no_signing_keys_configured")
			utils.JSONError(w, http.StatusInternalServerError, "server misconfigured: no signing secrets available")
			return
		}

		ok := false
		for k := range keySet {
			mac := hmac.New(sha256.New, []byte(k))
			mac.Write([]byte(userID))
			expected := hex.EncodeToString(mac.Sum(nil))
			if hmac.Equal([]byte(expected), []byte(sig)) {
				ok = true
				break
			}
		}
		if !ok {
			logger.Warn("invalid_signature", "user", userID)
			utils.JSONError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
		logger.Info("signature_verified", "user", userID)
		ctx := context.WithValue(r.Context(), ctxUserKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the verified user address or empty string.
func UserIDFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxUserKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func validateUserID(u string) (bool, string) {
	if u == "" {
		return false, "user required"
	}
	if len(u) > 128 {
		return false, "user too long"
	}
	return true, ""
}

// ResolveUserFromRequest is the single canonical resolver handlers call
// to decide which identity keys the data. A signature-verified address
// (in context) is authoritative: any conflicting user supplied via
// query, header or body is rejected. Without a signature, backend/admin
// roles may supply the user directly; frontend callers get 401.
//
// Returns (user, status, message); status is zero on success.
func ResolveUserFromRequest(r *http.Request, bodyUser string) (string, int, string) {
	bodyUser = keys.NormalizeUser(bodyUser)
	queryUser := keys.NormalizeUser(firstQueryUser(r))

	if id := UserIDFromContext(r.Context()); id != "" {
		if queryUser != "" && queryUser != id {
			logger.Warn("user_mismatch_signature_query", "signature", id, "query", queryUser, "path", r.URL.Path)
			return "", http.StatusForbidden, "user mismatch between signature and query param"
		}
		if bodyUser != "" && bodyUser != id {
			logger.Warn("user_mismatch_signature_body", "signature", id, "body", bodyUser, "path", r.URL.Path)
			return "", http.StatusForbidden, "user mismatch between signature and body user"
		}
		return id, 0, ""
	}

	role := r.Header.Get("X-Role-Name")
	if role == "backend" || role == "admin" {
		for _, u := range []string{bodyUser, keys.NormalizeUser(r.Header.Get("X-User-ID")), queryUser} {
			if u == "" {
				continue
			}
			if ok, msg := validateUserID(u); !ok {
				logger.Warn("invalid_backend_user", "user", u, "path", r.URL.Path)
				return "", http.StatusBadRequest, msg
			}
			return u, 0, ""
		}
		logger.Warn("backend_missing_user", "path", r.URL.Path)
		return "", http.StatusBadRequest, "user required for backend requests"
	}

	logger.Warn("missing_user_signature", "role", role, "path", r.URL.Path)
	return "", http.StatusUnauthorized, "missing or invalid user signature"
}

// firstQueryUser accepts both parameter spellings used by the callers
// (`userAddress` on read endpoints, `user` elsewhere).
func firstQueryUser(r *http.Request) string {
	if v := r.URL.Query().Get("userAddress"); v != "" {
		return v
	}
	return r.URL.Query().Get("user")
}
