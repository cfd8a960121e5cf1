// Package api assembles the JSON HTTP surface over the progress store.
package api

import (
	"net/http"

	"jurydb/pkg/api/handlers"
	"jurydb/pkg/auth"
	"jurydb/pkg/progress"

	"github.com/gorilla/mux"
)

// Handler returns the application router. Every data route runs behind
// the signature middleware; role gating and rate limiting happen in the
// outer security middleware before requests reach this router.
func Handler(s *progress.Store) http.Handler {
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return auth.RequireSignedUser(next)
	})

	handlers.RegisterRecords(r, s)
	handlers.RegisterProgress(r, s)
	handlers.RegisterPlans(r, s)
	handlers.RegisterComparisons(r, s)
	handlers.RegisterSigning(r)

	return r
}
