package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prepsetu/prepsetu-backend/internal/question"
)

func ListSubjectsHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjects, err := store.ListSubjects(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"subjects": subjects})
	}
}

func ListChaptersHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := chi.URLParam(r, "subject")
		chapters, err := store.ListChapters(r.Context(), subject)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"chapters": chapters})
	}
}

// GET /pyq?subject=Physics&year=2019&type=objective
// Lists a past-year paper without starting a session (browse mode): answer
// keys are stripped.
func PastYearHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := question.PastYearOpts{
			Subject: r.URL.Query().Get("subject"),
			Year:    r.URL.Query().Get("year"),
			Type:    r.URL.Query().Get("type"),
		}
		if opts.Subject == "" || opts.Year == "" {
			http.Error(w, "subject and year required", 400)
			return
		}
		qs, err := store.FetchPastYear(r.Context(), opts)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		out := make([]question.Question, 0, len(qs))
		for _, q := range qs {
			out = append(out, q.Public())
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"questions": out})
	}
}

// POST /questions/import: admin bulk upload, JSON body
// { "chapters": [Chapter...], "questions": [Question...] }
func ImportQuestionsHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Chapters  []question.Chapter  `json:"chapters"`
			Questions []question.Question `json:"questions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		for _, c := range req.Chapters {
			if c.ID == "" || c.Subject == "" || c.Name.EN == "" {
				http.Error(w, "chapter needs id, subject and name", 400)
				return
			}
			if err := store.PutChapter(r.Context(), c); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
		}
		n, err := store.BulkInsert(r.Context(), req.Questions)
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"chapters": len(req.Chapters), "questions": n})
	}
}
