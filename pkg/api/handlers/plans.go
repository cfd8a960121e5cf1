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

// RegisterPlans registers the evaluation plan endpoints onto the
// provided router.
func RegisterPlans(r *mux.Router, s *progress.Store) {
	r.HandleFunc("/save-evaluation-plan", savePlan(s)).Methods(http.MethodPost)
	r.HandleFunc("/save-evaluation-plan", getPlan(s)).Methods(http.MethodGet)
}

// savePlan handles POST /save-evaluation-plan. The plan is a single
// overwritten blob per user; no history is kept.
func savePlan(s *progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var body struct {
			UserAddress string          `json:"userAddress"`
			Plan        json.RawMessage `json:"plan"`
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
		if len(body.Plan) == 0 {
			utils.JSONError(w, http.StatusBadRequest, "plan required")
			return
		}

		if err := s.SavePlan(user, body.Plan); err != nil {
			logger.Error("save_plan_http_failed", "user", user, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "failed to save evaluation plan")
			return
		}
		utils.JSONWrite(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "evaluation plan saved",
		})
	}
}

// getPlan handles GET /save-evaluation-plan?userAddress. An absent plan
// answers 200 with a JSON null body.
func getPlan(s *progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		user, status, msg := auth.ResolveUserFromRequest(r, "")
		if status != 0 {
			utils.JSONError(w, status, msg)
			return
		}

		plan, err := s.GetPlan(user)
		if err != nil {
			logger.Error("get_plan_failed", "user", user, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "failed to read evaluation plan")
			return
		}
		if plan == nil {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("null"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(plan)
	}
}
