package handlers

import (
	"net/http"

	"jurydb/pkg/auth"
	"jurydb/pkg/logger"
	"jurydb/pkg/progress"
	"jurydb/pkg/telemetry"
	"jurydb/pkg/utils"

	"github.com/gorilla/mux"
)

// RegisterProgress registers the aggregate progress and bulk delete
// endpoints onto the provided router.
func RegisterProgress(r *mux.Router, s *progress.Store) {
	r.HandleFunc("/user-progress", getProgress(s)).Methods(http.MethodGet)
	r.HandleFunc("/user-progress", deleteUser(s)).Methods(http.MethodDelete)
}

// getProgress handles GET /user-progress?userAddress. A user with no
// stored records gets all-zero counts, not an error.
func getProgress(s *progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		user, status, msg := auth.ResolveUserFromRequest(r, "")
		if status != 0 {
			utils.JSONError(w, status, msg)
			return
		}

		p, err := s.GetProgress(user)
		if err != nil {
			logger.Error("user_progress_failed", "user", user, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "failed to read progress")
			return
		}
		utils.JSONWrite(w, http.StatusOK, p)
	}
}

// deleteUser handles DELETE /user-progress?userAddress. The sweep is
// idempotent; a retry after a partial failure finishes the removal.
func deleteUser(s *progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		user, status, msg := auth.ResolveUserFromRequest(r, "")
		if status != 0 {
			utils.JSONError(w, status, msg)
			return
		}

		if err := s.DeleteUser(user); err != nil {
			logger.Error("delete_user_failed", "user", user, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "failed to delete user data")
			return
		}
		telemetry.UserDeletes.Inc()
		utils.JSONWrite(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "user data deleted",
		})
	}
}
