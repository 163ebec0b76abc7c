package sqlite

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/huddle/internal/store"
)

var _ store.Backend = (*Store)(nil)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, ok, err := s.Get(ctx, "extendedSportsConfig")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "extendedSportsConfig", "[]"))
	require.NoError(t, s.Set(ctx, "extendedSportsConfig", `[{"name":"Yoga"}]`))

	v, ok, err := s.Get(ctx, "extendedSportsConfig")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"name":"Yoga"}]`, v)

	require.NoError(t, s.Set(ctx, "empty", ""))
	v, ok, err = s.Get(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)

	assert.NoError(t, s.Ping(ctx))
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "huddle.db")

	first, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "k", "v"))
	require.NoError(t, first.Close())

	second, err := NewStore(path)
	require.NoError(t, err)
	defer second.Close()

	version, err := second.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)

	v, ok, err := second.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestStore_Closed(t *testing.T) {
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, _, err = s.Get(context.Background(), "k")
	assert.Error(t, err)
}

func increment(value string, found bool) (string, error) {
	n := 0
	if found {
		var err error
		if n, err = strconv.Atoi(value); err != nil {
			return "", err
		}
	}
	return strconv.Itoa(n + 1), nil
}

func TestStore_Modify(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "huddle.db")

	// two stores on one file behave like two processes
	a, err := NewStore(path)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewStore(path)
	require.NoError(t, err)
	defer b.Close()

	var g errgroup.Group
	for _, s := range []*Store{a, b} {
		g.Go(func() error {
			for range 10 {
				if err := s.Modify(ctx, "counter", increment); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	v, ok, err := b.Get(ctx, "counter")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "20", v)

	// a failing fn rolls back and leaves the store usable
	err = a.Modify(ctx, "counter", func(string, bool) (string, error) { return "", assert.AnError })
	require.ErrorIs(t, err, assert.AnError)
	require.NoError(t, a.Modify(ctx, "counter", increment))

	v, _, err = a.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "21", v)
}
