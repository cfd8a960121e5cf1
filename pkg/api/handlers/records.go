package handlers

import (
	"encoding/json"
	"net/http"

	"jurydb/pkg/auth"
	"jurydb/pkg/logger"
	"jurydb/pkg/progress"
	"jurydb/pkg/telemetry"
	"jurydb/pkg/utils"
	"jurydb/pkg/validation"

	"github.com/gorilla/mux"
)

// RegisterRecords registers the record save/fetch endpoints onto the
// provided router.
func RegisterRecords(r *mux.Router, s *progress.Store) {
	r.HandleFunc("/save-progress", saveRecord(s)).Methods(http.MethodPost)
	r.HandleFunc("/save-progress", getRecord(s)).Methods(http.MethodGet)
}

// saveRecord handles POST /save-progress. The request body carries the
// record fields; the effective user comes from the identity resolver,
// not from whatever the body claims. All validation completes before
// any store write.
func saveRecord(s *progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var body struct {
			User     string          `json:"user"`
			DataType string          `json:"dataType"`
			ID       string          `json:"id"`
			Payload  json.RawMessage `json:"payload"`
			Status   string          `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.JSONError(w, http.StatusBadRequest, "invalid json")
			return
		}

		user, status, msg := auth.ResolveUserFromRequest(r, body.User)
		if status != 0 {
			utils.JSONError(w, status, msg)
			return
		}
		if err := validation.ValidateSave(user, body.DataType, body.ID, len(body.Payload)); err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !validation.KnownDataType(body.DataType) {
			logger.Info("unknown_data_type_saved", "type", body.DataType, "user", user)
		}

		if err := s.SaveRecord(user, body.DataType, body.ID, body.Payload, body.Status); err != nil {
			logger.Error("save_progress_failed", "user", user, "type", body.DataType, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "failed to save progress")
			return
		}
		telemetry.RecordSaves.WithLabelValues(body.DataType, effectiveStatus(body.Status)).Inc()
		utils.JSONWrite(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// getRecord handles GET /save-progress?userAddress&type&id. An absent
// record answers 200 with an empty object so clients need no 404 path.
func getRecord(s *progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		user, status, msg := auth.ResolveUserFromRequest(r, "")
		if status != 0 {
			utils.JSONError(w, status, msg)
			return
		}
		dataType := r.URL.Query().Get("type")
		if dataType == "" {
			utils.JSONError(w, http.StatusBadRequest, "type required")
			return
		}
		id := r.URL.Query().Get("id")

		rec, err := s.GetRecord(user, dataType, id)
		if err != nil {
			logger.Error("get_progress_failed", "user", user, "type", dataType, "id", id, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "failed to read progress")
			return
		}
		if rec == nil {
			utils.JSONWrite(w, http.StatusOK, map[string]any{})
			return
		}
		utils.JSONWrite(w, http.StatusOK, rec)
	}
}

func effectiveStatus(status string) string {
	if status == "" {
		return "draft"
	}
	return status
}
