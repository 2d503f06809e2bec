package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/prepsetu/prepsetu-backend/internal/auth/middleware"
	"github.com/prepsetu/prepsetu-backend/internal/question"
	"github.com/prepsetu/prepsetu-backend/internal/session"
)

// SessionDeps bundles what the session endpoints need.
type SessionDeps struct {
	Manager   *session.Manager
	Questions question.Store
	Supplier  *session.Supplier
	Reporter  session.Reporter
}

// POST /sessions  { "subject": "...", "chapter_ids": ["..."] }
// Starts an infinity practice session. The 2-chapter minimum lives here,
// at the API boundary, not inside the session controller.
func StartInfinityHandler(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Subject    string   `json:"subject"`
			ChapterIDs []string `json:"chapter_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		distinct := map[string]struct{}{}
		chapters := make([]string, 0, len(req.ChapterIDs))
		for _, id := range req.ChapterIDs {
			if _, dup := distinct[id]; dup || id == "" {
				continue
			}
			distinct[id] = struct{}{}
			chapters = append(chapters, id)
		}
		if len(chapters) < 2 {
			http.Error(w, "select at least 2 chapters", 400)
			return
		}
		userID := auth.SubjectFromContext(r.Context())
		ctrl, err := session.StartInfinity(r.Context(), session.Config{
			UserID:     userID,
			Subject:    req.Subject,
			ChapterIDs: chapters,
			Supplier:   d.Supplier,
			Reporter:   d.Reporter,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		id := d.Manager.Add(userID, ctrl)
		_ = json.NewEncoder(w).Encode(map[string]any{"session_id": id, "snapshot": ctrl.Snapshot()})
	}
}

// POST /sessions/pyq  { "subject": "...", "year": "...", "type": "objective" }
// Starts a fixed-length past-year session: no replenishment loop applies.
func StartPastYearHandler(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Subject string `json:"subject"`
			Year    string `json:"year"`
			Type    string `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.Subject == "" || req.Year == "" {
			http.Error(w, "subject and year required", 400)
			return
		}
		qs, err := d.Questions.FetchPastYear(r.Context(), question.PastYearOpts{
			Subject: req.Subject, Year: req.Year, Type: req.Type,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		userID := auth.SubjectFromContext(r.Context())
		ctrl, err := session.StartFixed(session.Config{
			UserID:   userID,
			Subject:  req.Subject,
			Reporter: d.Reporter,
		}, qs)
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		id := d.Manager.Add(userID, ctrl)
		_ = json.NewEncoder(w).Encode(map[string]any{"session_id": id, "snapshot": ctrl.Snapshot()})
	}
}

func GetSessionHandler(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookup(w, r, d)
		if !ok {
			return
		}
		_ = json.NewEncoder(w).Encode(ctrl.Snapshot())
	}
}

// POST /sessions/{sessionID}/answer  { "option": "B" }
func AnswerHandler(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookup(w, r, d)
		if !ok {
			return
		}
		var req struct {
			Option question.OptionTag `json:"option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		rec, q, err := ctrl.Answer(req.Option)
		if err != nil {
			http.Error(w, err.Error(), sessionErrStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"answer":         rec,
			"correct_option": q.Correct,
			"explanation":    q.Explanation,
		})
	}
}

func NextHandler(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookup(w, r, d)
		if !ok {
			return
		}
		finished, err := ctrl.Next(r.Context())
		if err != nil {
			http.Error(w, err.Error(), sessionErrStatus(err))
			return
		}
		resp := map[string]any{"finished": finished}
		if finished {
			sc, err := ctrl.Finish(r.Context())
			if err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			// The scorecard rides along in this response; the session is gone.
			d.Manager.Remove(chi.URLParam(r, "sessionID"))
			resp["scorecard"] = sc
		} else {
			resp["snapshot"] = ctrl.Snapshot()
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func PrevHandler(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookup(w, r, d)
		if !ok {
			return
		}
		if err := ctrl.Prev(); err != nil {
			http.Error(w, err.Error(), sessionErrStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(ctrl.Snapshot())
	}
}

// POST /sessions/{sessionID}/jump  { "index": 4 }
func JumpHandler(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookup(w, r, d)
		if !ok {
			return
		}
		var req struct {
			Index int `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if err := ctrl.Jump(req.Index); err != nil {
			http.Error(w, err.Error(), sessionErrStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(ctrl.Snapshot())
	}
}

// POST /sessions/{sessionID}/back is the client's back-navigation signal;
// it raises the exit-confirmation overlay.
func BackHandler(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookup(w, r, d)
		if !ok {
			return
		}
		ctrl.HandleBack()
		_ = json.NewEncoder(w).Encode(ctrl.Snapshot())
	}
}

func ResumeHandler(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookup(w, r, d)
		if !ok {
			return
		}
		ctrl.Resume()
		_ = json.NewEncoder(w).Encode(ctrl.Snapshot())
	}
}

// POST /sessions/{sessionID}/exit leaves without a scorecard. Per-answer
// progress already reported stands.
func ExitHandler(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookup(w, r, d)
		if !ok {
			return
		}
		ctrl.Exit()
		d.Manager.Remove(chi.URLParam(r, "sessionID"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func FinishHandler(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := lookup(w, r, d)
		if !ok {
			return
		}
		sc, err := ctrl.Finish(r.Context())
		if err != nil {
			http.Error(w, err.Error(), sessionErrStatus(err))
			return
		}
		d.Manager.Remove(chi.URLParam(r, "sessionID"))
		_ = json.NewEncoder(w).Encode(sc)
	}
}

func lookup(w http.ResponseWriter, r *http.Request, d SessionDeps) (*session.Controller, bool) {
	id := chi.URLParam(r, "sessionID")
	ctrl, err := d.Manager.Get(id, auth.SubjectFromContext(r.Context()))
	if err != nil {
		http.Error(w, err.Error(), 404)
		return nil, false
	}
	return ctrl, true
}

func sessionErrStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrReplenishing):
		return http.StatusConflict
	case errors.Is(err, session.ErrNotActive), errors.Is(err, session.ErrExited):
		return http.StatusConflict
	case errors.Is(err, session.ErrBadOption):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
