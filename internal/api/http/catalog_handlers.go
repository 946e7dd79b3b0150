package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizdeck/quizdeck/internal/quiz"
)

// ListCategoriesHandler serves the browsable categories.
func ListCategoriesHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := svc.Categories(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, cats)
	}
}

// ListTestsHandler serves test metadata, optionally filtered by category via
// the query string or the /categories/{categoryID}/tests route.
func ListTestsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID := chi.URLParam(r, "categoryID")
		if categoryID == "" {
			categoryID = r.URL.Query().Get("category")
		}
		tests, err := svc.Tests(r.Context(), categoryID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, tests)
	}
}
