package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/quizdeck/quizdeck/internal/auth/middleware"
	"github.com/quizdeck/quizdeck/internal/quiz"
	"github.com/quizdeck/quizdeck/internal/rbac"
)

// ListUserAttemptsHandler serves all attempts by a user, newest first, with
// test metadata joined. Callers may only read their own history unless their
// role carries attempt:view-all.
func ListUserAttemptsHandler(svc *quiz.Service) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		sub := authmw.SubjectFromContext(r.Context())
		role := authmw.RoleFromContext(r.Context())

		if userID != sub && !checker.Has(role, "attempt:view-all") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		list, err := svc.History(r.Context(), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, list)
	}
}
