package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManagerScopesSessionsToOwner(t *testing.T) {
	m := NewManager()
	c, err := StartFixed(Config{UserID: "u1", Subject: "Physics", Reporter: &fakeReporter{}}, fixedQuestions(2))
	require.NoError(t, err)

	id := m.Add("u1", c)

	got, err := m.Get(id, "u1")
	require.NoError(t, err)
	require.Same(t, c, got)

	_, err = m.Get(id, "u2")
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Get("nope", "u1")
	require.ErrorIs(t, err, ErrSessionNotFound)

	m.Remove(id)
	_, err = m.Get(id, "u1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}
