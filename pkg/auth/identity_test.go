package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"jurydb/pkg/config"
)

const signingKey = "secret-key"

func sign(user string) string {
	mac := hmac.New(sha256.New, []byte(signingKey))
	mac.Write([]byte(user))
	return hex.EncodeToString(mac.Sum(nil))
}

func setKeys(t *testing.T) {
	t.Helper()
	config.SetRuntime(&config.RuntimeConfig{
		BackendKeys: map[string]struct{}{signingKey: {}},
		SigningKeys: map[string]struct{}{signingKey: {}},
	})
}

func signedRequest(t *testing.T, h http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/user-progress", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRequireSignedUserAcceptsValidSignature(t *testing.T) {
	setKeys(t)
	var got string
	h := RequireSignedUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserIDFromContext(r.Context())
	}))

	rr := signedRequest(t, h, map[string]string{
		"X-User-ID":        "0xAbC",
		"X-User-Signature": sign("0xabc"),
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "0xabc", got)
}

func TestRequireSignedUserVerifiesNormalizedAddress(t *testing.T) {
	setKeys(t)
	h := RequireSignedUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// signature computed over the lower-cased form verifies for the
	// checksummed spelling too
	rr := signedRequest(t, h, map[string]string{
		"X-User-ID":        "0xABC",
		"X-User-Signature": sign("0xabc"),
	})
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireSignedUserRejectsBadSignature(t *testing.T) {
	setKeys(t)
	h := RequireSignedUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rr := signedRequest(t, h, map[string]string{
		"X-User-ID":        "0xabc",
		"X-User-Signature": sign("0xother"),
	})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireSignedUserRejectsMissingHeaders(t *testing.T) {
	setKeys(t)
	h := RequireSignedUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rr := signedRequest(t, h, map[string]string{"X-Role-Name": "frontend"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireSignedUserLetsBackendSkipSignature(t *testing.T) {
	setKeys(t)
	called := false
	h := RequireSignedUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Empty(t, UserIDFromContext(r.Context()))
	}))

	rr := signedRequest(t, h, map[string]string{"X-Role-Name": "backend"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)
}

func TestResolveUserPrefersSignedIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/user-progress?userAddress=0xABC", nil)
	req = req.WithContext(withUser(req, "0xabc"))

	user, status, _ := ResolveUserFromRequest(req, "")
	require.Zero(t, status)
	require.Equal(t, "0xabc", user)
}

func TestResolveUserRejectsConflictingQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/user-progress?userAddress=0xother", nil)
	req = req.WithContext(withUser(req, "0xabc"))

	_, status, _ := ResolveUserFromRequest(req, "")
	require.Equal(t, http.StatusForbidden, status)
}

func TestResolveUserRejectsConflictingBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/save-progress", nil)
	req = req.WithContext(withUser(req, "0xabc"))

	_, status, _ := ResolveUserFromRequest(req, "0xOther")
	require.Equal(t, http.StatusForbidden, status)
}

func TestResolveUserBackendFallbackOrder(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/save-progress?user=0xquery", nil)
	req.Header.Set("X-Role-Name", "backend")
	req.Header.Set("X-User-ID", "0xHeader")

	// body wins over header and query for backend callers
	user, status, _ := ResolveUserFromRequest(req, "0xBody")
	require.Zero(t, status)
	require.Equal(t, "0xbody", user)

	user, status, _ = ResolveUserFromRequest(req, "")
	require.Zero(t, status)
	require.Equal(t, "0xheader", user)
}

func TestResolveUserBackendWithoutUserIs400(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/save-progress", nil)
	req.Header.Set("X-Role-Name", "backend")

	_, status, _ := ResolveUserFromRequest(req, "")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestResolveUserFrontendWithoutSignatureIs401(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/user-progress?userAddress=0xabc", nil)
	req.Header.Set("X-Role-Name", "frontend")

	_, status, _ := ResolveUserFromRequest(req, "")
	require.Equal(t, http.StatusUnauthorized, status)
}

// withUser injects a verified identity the way RequireSignedUser does.
func withUser(r *http.Request, user string) context.Context {
	return context.WithValue(r.Context(), ctxUserKey{}, user)
}
