package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "daily_intake_2026-10-18", `{"a":1}`))
			require.NoError(t, s.Set(ctx, "daily_intake_2026-10-19", `{"a":2}`))
			require.NoError(t, s.Set(ctx, "user_goals", `{}`))

			v, err := s.Get(ctx, "daily_intake_2026-10-19")
			require.NoError(t, err)
			assert.Equal(t, `{"a":2}`, v)

			require.NoError(t, s.Set(ctx, "daily_intake_2026-10-19", `{"a":3}`))
			v, err = s.Get(ctx, "daily_intake_2026-10-19")
			require.NoError(t, err)
			assert.Equal(t, `{"a":3}`, v)

			keys, err := s.Keys(ctx, "daily_intake_")
			require.NoError(t, err)
			assert.Equal(t, []string{"daily_intake_2026-10-18", "daily_intake_2026-10-19"}, keys)

			require.NoError(t, s.Delete(ctx, "user_goals"))
			_, err = s.Get(ctx, "user_goals")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Ping(ctx))
			require.NoError(t, s.Clear(ctx))
			keys, err = s.Keys(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var got record
	found, err := GetJSON(ctx, s, "rec", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, s, "rec", record{Name: "x", Count: 2}))
	found, err = GetJSON(ctx, s, "rec", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, record{Name: "x", Count: 2}, got)

	require.NoError(t, s.Set(ctx, "bad", "{not json"))
	_, err = GetJSON(ctx, s, "bad", &got)
	assert.Error(t, err)
}

func TestMemoryStore_SetError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("disk full")

	s.SetError(boom)
	assert.ErrorIs(t, s.Set(ctx, "k", "v"), boom)
	_, err := GetJSON(ctx, s, "k", &struct{}{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Ping(ctx), boom)

	s.SetError(nil)
	assert.NoError(t, s.Set(ctx, "k", "v"))
}
