package handlers

import (
	"encoding/json"
	"net/http"

	"jurydb/pkg/auth"
	"jurydb/pkg/logger"
	"jurydb/pkg/progress"
	"jurydb/pkg/utils"
	"jurydb/pkg/validation"

	"github.com/gorilla/mux"
)

// RegisterComparisons registers the per-repo comparison progress
// endpoints onto the provided router.
func RegisterComparisons(r *mux.Router, s *progress.Store) {
	r.HandleFunc("/comparison-progress", getComparisonProgress(s)).Methods(http.MethodGet)
	r.HandleFunc("/comparison-progress", saveComparisonProgress(s)).Methods(http.MethodPost)
}

// getComparisonProgress handles GET /comparison-progress?userAddress&repo.
// The view joins the stored plan and completed list; either half may be
// absent and reads as empty.
func getComparisonProgress(s *progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		user, status, msg := auth.ResolveUserFromRequest(r, "")
		if status != 0 {
			utils.JSONError(w, status, msg)
			return
		}
		repo := r.URL.Query().Get("repo")
		if repo == "" {
			utils.JSONError(w, http.StatusBadRequest, "repo required")
			return
		}

		cp, err := s.GetComparisonProgress(user, repo)
		if err != nil {
			logger.Error("comparison_progress_failed", "user", user, "repo", repo, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "failed to read comparison progress")
			return
		}
		utils.JSONWrite(w, http.StatusOK, cp)
	}
}

// saveComparisonProgress handles POST /comparison-progress. The body may
// carry a plan to store, a completed comparison to append, or both.
func saveComparisonProgress(s *progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var body struct {
			UserAddress string          `json:"userAddress"`
			Repo        string          `json:"repo"`
			Plan        json.RawMessage `json:"plan"`
			Completed   string          `json:"completed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.JSONError(w, http.StatusBadRequest, "invalid json")
			return
		}

		user, status, msg := auth.ResolveUserFromRequest(r, body.UserAddress)
		if status != 0 {
			utils.JSONError(w, status, msg)
			return
		}
		if err := validation.ValidateUser(user); err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.Repo == "" {
			utils.JSONError(w, http.StatusBadRequest, "repo required")
			return
		}
		if len(body.Plan) == 0 && body.Completed == "" {
			utils.JSONError(w, http.StatusBadRequest, "plan or completed required")
			return
		}

		if len(body.Plan) > 0 {
			if err := s.SaveComparisonPlan(user, body.Repo, body.Plan); err != nil {
				logger.Error("save_comparison_plan_failed", "user", user, "repo", body.Repo, "error", err)
				utils.JSONError(w, http.StatusInternalServerError, "failed to save comparison plan")
				return
			}
		}
		if body.Completed != "" {
			if err := s.AddCompletedComparison(user, body.Repo, body.Completed); err != nil {
				logger.Error("add_completed_comparison_failed", "user", user, "repo", body.Repo, "error", err)
				utils.JSONError(w, http.StatusInternalServerError, "failed to record completed comparison")
				return
			}
		}
		utils.JSONWrite(w, http.StatusOK, map[string]any{"ok": true})
	}
}
