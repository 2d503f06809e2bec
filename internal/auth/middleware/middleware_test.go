package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prepsetu/prepsetu-backend/internal/rbac"
)

func TestIssueAndParse(t *testing.T) {
	svc := NewAuthService("secret")
	tok, err := svc.IssueJWT("u1", "student")
	require.NoError(t, err)

	claims, err := svc.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Sub)
	require.Equal(t, "student", claims.Role)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := NewAuthService("secret").IssueJWT("u1", "student")
	require.NoError(t, err)

	_, err = NewAuthService("other").Parse(tok)
	require.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	svc := NewAuthService("secret")
	var gotSub, gotRole string
	h := JWTMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	// no token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// garbage token
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Authorization", "Bearer nope")
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid token puts sub and role in context
	tok, err := svc.IssueJWT("u7", "admin")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u7", gotSub)
	require.Equal(t, "admin", gotRole)
}
