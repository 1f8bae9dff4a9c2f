package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartly/api/internal/apperr"
	"cartly/api/internal/models"
)

func seedSession(t *testing.T, store *fakeSessionStore, id, userID, token, agent string) {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), models.Session{
		ID:        id,
		UserID:    userID,
		Token:     token,
		IPAddress: "203.0.113.1",
		UserAgent: agent,
	}))
}

func TestListSessionsMarksCurrentNewestFirst(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewSessionService(store, zerolog.Nop())

	seedSession(t, store, "s1", "u1", "tok-old", "laptop")
	seedSession(t, store, "s2", "u1", "tok-current", "phone")
	seedSession(t, store, "s3", "u2", "tok-other-user", "tablet")

	infos, err := svc.List(context.Background(), "u1", "tok-current")
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "s2", infos[0].ID, "newest first")
	assert.True(t, infos[0].IsCurrent)
	assert.Equal(t, "s1", infos[1].ID)
	assert.False(t, infos[1].IsCurrent)
}

func TestRevokeOthers(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewSessionService(store, zerolog.Nop())

	seedSession(t, store, "s1", "u1", "tok-a", "laptop")
	seedSession(t, store, "s2", "u1", "tok-b", "phone")
	seedSession(t, store, "s3", "u1", "tok-current", "desktop")

	count, err := svc.RevokeOthers(context.Background(), "u1", "tok-current")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	infos, err := svc.List(context.Background(), "u1", "tok-current")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.True(t, infos[0].IsCurrent)
}

func TestRevokeOthersGuards(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewSessionService(store, zerolog.Nop())

	seedSession(t, store, "s1", "u2", "tok-foreign", "laptop")

	_, err := svc.RevokeOthers(context.Background(), "u1", "tok-unknown")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = svc.RevokeOthers(context.Background(), "u1", "tok-foreign")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestRevokeOne(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewSessionService(store, zerolog.Nop())

	seedSession(t, store, "mine", "u1", "tok-current", "desktop")
	seedSession(t, store, "other-device", "u1", "tok-b", "phone")
	seedSession(t, store, "foreign", "u2", "tok-c", "tablet")

	err := svc.Revoke(context.Background(), "u1", "missing", "tok-current")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = svc.Revoke(context.Background(), "u1", "foreign", "tok-current")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	err = svc.Revoke(context.Background(), "u1", "mine", "tok-current")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err), "current session must go through logout")

	require.NoError(t, svc.Revoke(context.Background(), "u1", "other-device", "tok-current"))

	infos, err := svc.List(context.Background(), "u1", "tok-current")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "mine", infos[0].ID)
}
