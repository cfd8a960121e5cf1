package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"jurydb/pkg/keys"
	"jurydb/pkg/logger"
	"jurydb/pkg/utils"

	"github.com/gorilla/mux"
)

// RegisterSigning registers the signature issuance endpoint onto the
// provided router. The endpoint sits behind the security middleware and
// uses the caller's API key value as the signing secret, so a signature
// issued here verifies against the same key set the gate checks.
func RegisterSigning(r *mux.Router) {
	r.HandleFunc("/_sign", signHandler).Methods(http.MethodPost)
}

// signHandler handles POST /_sign. It computes an HMAC-SHA256 signature
// over the lower-cased user address using the caller's API key as the
// secret. Only backend roles may request signatures; the key comes from
// the Authorization (Bearer) or X-API-Key header.
func signHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	role := r.Header.Get("X-Role-Name")
	if role != "backend" {
		logger.Warn("sign_forbidden", "role", role, "remote", r.RemoteAddr)
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}

	auth := r.Header.Get("Authorization")
	var key string
	if len(auth) > 7 && (auth[:7] == "Bearer " || auth[:7] == "bearer ") {
		key = auth[7:]
	}
	if key == "" {
		key = r.Header.Get("X-API-Key")
	}
	if key == "" {
		logger.Warn("sign_missing_api_key", "remote", r.RemoteAddr)
		utils.JSONError(w, http.StatusUnauthorized, "missing api key")
		return
	}

	var payload struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.UserID == "" {
		logger.Warn("sign_invalid_payload", "error", err, "remote", r.RemoteAddr)
		utils.JSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	// Sign the normalized form so checksummed and lower-case spellings
	// of the same wallet yield the same signature.
	user := keys.NormalizeUser(payload.UserID)
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(user))
	sig := hex.EncodeToString(mac.Sum(nil))

	logger.Info("signature_issued", "remote", r.RemoteAddr)
	utils.JSONWrite(w, http.StatusOK, map[string]string{"userId": user, "signature": sig})
}
