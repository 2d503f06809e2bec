package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/prepsetu/prepsetu-backend/internal/rbac"
	"github.com/prepsetu/prepsetu-backend/internal/storage"
)

// MountFigures serves question figure blobs. Upload is admin-only; fetch is
// open to any authenticated user.
func MountFigures(r chi.Router, bs storage.BlobStore) {
	// POST /figures/{questionID}
	r.With(rbac.Require("question:import")).Post("/{questionID}", func(w http.ResponseWriter, r *http.Request) {
		questionID := chi.URLParam(r, "questionID")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		key := "figures/" + questionID + "/" + hdr.Filename
		if _, err := bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"key": key})
	})

	// GET /figures/*  -> returns the blob at whatever follows /figures/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get("figures/" + key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		_, _ = io.Copy(w, rc)
	})
}
