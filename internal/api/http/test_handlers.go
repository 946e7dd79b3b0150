package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	authmw "github.com/quizdeck/quizdeck/internal/auth/middleware"
	"github.com/quizdeck/quizdeck/internal/quiz"
)

var validate = validator.New()

// GetTestHandler serves test metadata for the instructions page. Questions
// are never included here.
func GetTestHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")
		info, err := svc.TestInfo(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, info)
	}
}

// GetTestQuestionsHandler serves the question list for an attempt. The
// payload never carries answer keys, and serving it stamps the start of the
// caller's time window.
func GetTestQuestionsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")
		sub := authmw.SubjectFromContext(r.Context())
		set, err := svc.StartQuestions(r.Context(), id, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, set)
	}
}

// SubmitTestHandler grades a submission and persists exactly one attempt.
// The attempt owner is the JWT subject; a user field in the body, like the
// isCorrect flags, is ignored.
func SubmitTestHandler(svc *quiz.Service) http.HandlerFunc {
	type submitReq struct {
		Answers   []quiz.SubmittedAnswer `json:"answers" validate:"dive"`
		TimeTaken int                    `json:"timeTaken" validate:"gte=0"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")
		sub := authmw.SubjectFromContext(r.Context())

		var req submitReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := svc.Submit(r.Context(), id, sub, req.Answers, req.TimeTaken)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, res)
	}
}

// GetResultsHandler serves the caller's most recent attempt for a test,
// fully joined; this is the only projection that includes correctOption.
func GetResultsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")
		sub := authmw.SubjectFromContext(r.Context())
		review, err := svc.Review(r.Context(), id, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, review)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrTestNotFound),
		errors.Is(err, quiz.ErrCategoryNotFound),
		errors.Is(err, quiz.ErrAttemptNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrTimeExpired):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
