package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveAndGet(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	sess := testSession()
	require.NoError(t, s.SaveSession(ctx, sess))
	require.NotEmpty(t, sess.ID)

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Name, got.Name)
	assert.Len(t, got.Mappings, 1)

	// The returned session is a copy.
	got.Name = "mutated"
	again, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Name, again.Name)
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, err := s.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = s.DeleteSession(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_ListAndDelete(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	first := testSession()
	require.NoError(t, s.SaveSession(ctx, first))
	second := testSession()
	second.Name = "orders import"
	require.NoError(t, s.SaveSession(ctx, second))

	all, err := s.ListSessions(ctx, SessionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := s.ListSessions(ctx, SessionFilter{Name: "orders import"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, second.ID, filtered[0].ID)

	require.NoError(t, s.DeleteSession(ctx, first.ID))
	remaining, err := s.ListSessions(ctx, SessionFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
