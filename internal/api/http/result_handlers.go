package http

import (
	"encoding/json"
	"net/http"

	auth "github.com/prepsetu/prepsetu-backend/internal/auth/middleware"
	"github.com/prepsetu/prepsetu-backend/internal/result"
)

// GET /leaderboard?limit=50
func LeaderboardHandler(store *result.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		rows, err := store.Leaderboard(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"leaderboard": rows})
	}
}

// GET /me/stats
func MyStatsHandler(store *result.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.Stats(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(st)
	}
}

// GET /me/results?limit=20&offset=0
func MyResultsHandler(store *result.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
		rows, err := store.ListResults(r.Context(), auth.SubjectFromContext(r.Context()), limit, offset)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": rows})
	}
}
