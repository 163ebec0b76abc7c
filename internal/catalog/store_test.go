package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/huddle/internal/domain"
	"github.com/MrSnakeDoc/huddle/internal/store/memory"
)

// fakeKV is an in-process Persistence with failure injection.
type fakeKV struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
	gets   int
	sets   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) failSets(err error) {
	f.mu.Lock()
	f.setErr = err
	f.mu.Unlock()
}

func (f *fakeKV) raw(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key]
}

func loadedStore(t *testing.T, kv *fakeKV, opts ...Option) *Store {
	t.Helper()
	s := New(kv, opts...)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestLoad_SeedsEmptyStorage(t *testing.T) {
	kv := newFakeKV()
	s := loadedStore(t, kv)

	assert.True(t, s.Ready())
	assert.Equal(t, uint64(1), s.Revision())
	if diff := cmp.Diff(domain.DefaultSports(), s.Sports()); diff != "" {
		t.Errorf("seeded sports mismatch (-want +got):\n%s", diff)
	}

	persisted, err := decode(kv.raw(DefaultKey))
	require.NoError(t, err)
	assert.Len(t, persisted, 7)
}

func TestLoad_SeedIdempotent(t *testing.T) {
	kv := newFakeKV()
	s := loadedStore(t, kv)
	first := s.Sports()
	setsAfterSeed := kv.sets

	require.NoError(t, s.Load(context.Background()))

	if diff := cmp.Diff(first, s.Sports()); diff != "" {
		t.Errorf("second load changed collection (-first +second):\n%s", diff)
	}
	assert.Equal(t, setsAfterSeed, kv.sets, "second load must not re-seed")
	assert.Len(t, s.Sports(), 7)
}

func TestLoad_SeedForcesVisible(t *testing.T) {
	kv := newFakeKV()
	seed := []domain.Sport{{Name: "Chess", Hidden: true}}
	s := loadedStore(t, kv, WithSeed(seed))

	assert.Equal(t, []domain.Sport{{Name: "Chess"}}, s.Sports())
}

func TestLoad_BlobVariants(t *testing.T) {
	tests := []struct {
		name   string
		stored *string
		want   []string
	}{
		{name: "missing key seeds", stored: nil, want: domain.Names(domain.DefaultSports())},
		{name: "empty string seeds", stored: ptr(""), want: domain.Names(domain.DefaultSports())},
		{name: "json null is empty", stored: ptr("null"), want: []string{}},
		{name: "empty array is empty", stored: ptr("[]"), want: []string{}},
		{name: "stored list wins", stored: ptr(`[{"name":"Chess","color":"#123456","icon":"game-controller-outline","hidden":true}]`), want: []string{"Chess"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newFakeKV()
			if tt.stored != nil {
				kv.data[DefaultKey] = *tt.stored
			}
			s := loadedStore(t, kv)
			assert.Equal(t, tt.want, s.Names())
		})
	}
}

func TestLoad_DuplicatesAccepted(t *testing.T) {
	kv := newFakeKV()
	kv.data[DefaultKey] = `[{"name":"Yoga"},{"name":"Yoga","hidden":true},{"name":"Run"}]`
	s := loadedStore(t, kv)

	assert.Equal(t, []string{"Yoga", "Yoga", "Run"}, s.Names())

	// toggle flips every match
	require.NoError(t, s.ToggleVisibility(context.Background(), "Yoga"))
	sports := s.Sports()
	assert.True(t, sports[0].Hidden)
	assert.False(t, sports[1].Hidden)

	// delete removes every match
	require.NoError(t, s.Delete(context.Background(), "Yoga"))
	assert.Equal(t, []string{"Run"}, s.Names())
}

func TestLoad_FailureKeepsState(t *testing.T) {
	ctx := context.Background()

	t.Run("read error", func(t *testing.T) {
		kv := newFakeKV()
		s := loadedStore(t, kv)
		before := s.Snapshot()

		kv.getErr = errors.New("connection refused")
		err := s.Load(ctx)

		require.Error(t, err)
		var pe *PersistenceError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, OpRead, pe.Op)
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("malformed blob", func(t *testing.T) {
		kv := newFakeKV()
		s := loadedStore(t, kv)
		before := s.Snapshot()

		kv.data[DefaultKey] = "{not json"
		err := s.Load(ctx)

		require.ErrorIs(t, err, ErrMalformed)
		assert.True(t, IsPersistence(err))
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("seed write error", func(t *testing.T) {
		kv := newFakeKV()
		kv.setErr = errors.New("read-only")
		s := New(kv)

		err := s.Load(ctx)
		require.Error(t, err)
		assert.True(t, IsPersistence(err))
		assert.False(t, s.Ready())
		assert.Equal(t, uint64(0), s.Revision())
		assert.Empty(t, s.Sports())
	})
}

func TestMutations_NotReady(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeKV())

	assert.ErrorIs(t, s.Add(ctx, domain.Sport{Name: "Chess"}), ErrNotReady)
	assert.ErrorIs(t, s.ToggleVisibility(ctx, "Yoga"), ErrNotReady)
	assert.ErrorIs(t, s.Delete(ctx, "Yoga"), ErrNotReady)
	assert.ErrorIs(t, s.Edit(ctx, "Yoga", domain.Sport{Name: "Yoga"}), ErrNotReady)
	assert.ErrorIs(t, s.ReplaceAll(ctx, nil), ErrNotReady)
	assert.False(t, s.Ready())
}

func TestReplaceAll_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	s := loadedStore(t, kv)

	want := []domain.Sport{
		{Name: "Chess", Color: "#123456", Icon: "game-controller-outline"},
		{Name: "Rowing", Color: "#000000", Icon: "boat-outline", Hidden: true},
	}
	require.NoError(t, s.ReplaceAll(ctx, want))

	fresh := New(kv)
	require.NoError(t, fresh.Load(ctx))
	if diff := cmp.Diff(want, fresh.Sports()); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceAll_Empty(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	s := loadedStore(t, kv)

	require.NoError(t, s.ReplaceAll(ctx, nil))
	assert.Empty(t, s.Sports())
	assert.Equal(t, "[]", kv.raw(DefaultKey))

	// An emptied catalog stays empty on reload.
	require.NoError(t, s.Load(ctx))
	assert.Empty(t, s.Sports())
}

func TestReplaceAll_Rejects(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newFakeKV())
	rev := s.Revision()

	err := s.ReplaceAll(ctx, []domain.Sport{{Name: "A"}, {Name: " A "}})
	assert.ErrorIs(t, err, ErrDuplicateName)

	var ve *ValidationError
	err = s.ReplaceAll(ctx, []domain.Sport{{Name: "A"}, {Name: ""}})
	assert.ErrorAs(t, err, &ve)

	assert.Equal(t, rev, s.Revision())
	assert.Len(t, s.Sports(), 7)
}

func TestToggleVisibility(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newFakeKV())
	original := s.Sports()

	require.NoError(t, s.ToggleVisibility(ctx, "Yoga"))
	y, _ := s.Get("Yoga")
	assert.True(t, y.Hidden)

	require.NoError(t, s.ToggleVisibility(ctx, "Yoga"))
	if diff := cmp.Diff(original, s.Sports()); diff != "" {
		t.Errorf("double toggle should restore collection (-want +got):\n%s", diff)
	}

	var nf *NotFoundError
	err := s.ToggleVisibility(ctx, "Chess")
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Chess", nf.Name)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newFakeKV())

	require.NoError(t, s.Add(ctx, domain.Sport{Name: "  Chess ", Color: "#123456", Icon: "game-controller-outline"}))
	got, ok := s.Get("Chess")
	require.True(t, ok)
	assert.Equal(t, domain.Sport{Name: "Chess", Color: "#123456", Icon: "game-controller-outline"}, got)
	assert.Equal(t, "Chess", s.Names()[len(s.Names())-1], "add appends")

	err := s.Add(ctx, domain.Sport{Name: "Chess"})
	var de *DuplicateError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Chess", de.Name)

	// names are case-sensitive
	require.NoError(t, s.Add(ctx, domain.Sport{Name: "chess"}))

	var ve *ValidationError
	require.ErrorAs(t, s.Add(ctx, domain.Sport{Name: "   "}), &ve)
	assert.Equal(t, "name", ve.Field)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newFakeKV())

	require.NoError(t, s.Delete(ctx, "Football"))
	assert.False(t, s.Contains("Football"))
	assert.Len(t, s.Sports(), 6)

	assert.ErrorIs(t, s.Delete(ctx, "Football"), ErrNotFound)
}

func TestEdit(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newFakeKV())

	t.Run("overwrites every field", func(t *testing.T) {
		require.NoError(t, s.Edit(ctx, "Tennis", domain.Sport{Name: "Tennis", Color: "#000000", Icon: "tennisball-outline", Hidden: true}))
		got, _ := s.Get("Tennis")
		assert.Equal(t, domain.Sport{Name: "Tennis", Color: "#000000", Icon: "tennisball-outline", Hidden: true}, got)
	})

	t.Run("rename keeps position", func(t *testing.T) {
		idx := indexOf(s.Names(), "Cycling")
		require.NoError(t, s.Edit(ctx, "Cycling", domain.Sport{Name: "Biking", Color: "#66BB6A", Icon: "bicycle"}))
		assert.Equal(t, "Biking", s.Names()[idx])
		assert.False(t, s.Contains("Cycling"))
	})

	t.Run("rename onto existing name", func(t *testing.T) {
		err := s.Edit(ctx, "Biking", domain.Sport{Name: "Yoga"})
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("unknown sport", func(t *testing.T) {
		err := s.Edit(ctx, "Curling", domain.Sport{Name: "Curling"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty new name", func(t *testing.T) {
		var ve *ValidationError
		assert.ErrorAs(t, s.Edit(ctx, "Yoga", domain.Sport{}), &ve)
	})
}

func TestMutation_PersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	s := loadedStore(t, kv)
	before := s.Snapshot()
	blob := kv.raw(DefaultKey)

	kv.failSets(errors.New("disk full"))

	ops := map[string]func() error{
		"add":    func() error { return s.Add(ctx, domain.Sport{Name: "Chess"}) },
		"toggle": func() error { return s.ToggleVisibility(ctx, "Yoga") },
		"delete": func() error { return s.Delete(ctx, "Yoga") },
		"edit":   func() error { return s.Edit(ctx, "Yoga", domain.Sport{Name: "Pilates"}) },
		"replace": func() error {
			return s.ReplaceAll(ctx, []domain.Sport{{Name: "Only"}})
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			var pe *PersistenceError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, OpWrite, pe.Op)
			assert.Equal(t, before, s.Snapshot())
			assert.Equal(t, blob, kv.raw(DefaultKey))
		})
	}
}

func TestMutation_CanceledContext(t *testing.T) {
	s := loadedStore(t, newFakeKV())
	rev := s.Revision()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Add(ctx, domain.Sport{Name: "Chess"}), context.Canceled)
	assert.Equal(t, rev, s.Revision())
}

func TestRevision_Monotonic(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newFakeKV())

	steps := []struct {
		name string
		op   func() error
	}{
		{"load", func() error { return s.Load(ctx) }},
		{"add", func() error { return s.Add(ctx, domain.Sport{Name: "Chess"}) }},
		{"toggle", func() error { return s.ToggleVisibility(ctx, "Chess") }},
		{"edit", func() error { return s.Edit(ctx, "Chess", domain.Sport{Name: "Go"}) }},
		{"delete", func() error { return s.Delete(ctx, "Go") }},
		{"refresh", func() error { return s.Refresh(ctx) }},
		{"replace", func() error { return s.ReplaceAll(ctx, domain.DefaultSports()) }},
	}

	prev := s.Revision()
	for _, step := range steps {
		require.NoError(t, step.op(), step.name)
		cur := s.Revision()
		assert.Greater(t, cur, prev, "revision after %s", step.name)
		prev = cur
	}

	// failures leave it untouched
	require.Error(t, s.Delete(ctx, "Curling"))
	assert.Equal(t, prev, s.Revision())
}

func TestScenario_ToggleAddDelete(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newFakeKV())

	require.Len(t, s.Sports(), 7)
	require.Len(t, s.VisibleSports(), 7)

	require.NoError(t, s.ToggleVisibility(ctx, "Yoga"))
	assert.Len(t, s.VisibleSports(), 6)
	assert.NotContains(t, domain.Names(s.VisibleSports()), "Yoga")

	require.NoError(t, s.Add(ctx, domain.Sport{Name: "Chess", Color: "#123456", Icon: "game-controller-outline"}))
	assert.Len(t, s.Sports(), 8)
	assert.Len(t, s.VisibleSports(), 7)

	require.NoError(t, s.Delete(ctx, "Football"))
	assert.Len(t, s.Sports(), 7)
	assert.Len(t, s.VisibleSports(), 6)

	visible := domain.Names(s.VisibleSports())
	assert.NotContains(t, visible, "Football")
	assert.NotContains(t, visible, "Yoga")
	assert.Contains(t, s.Names(), "Yoga")
	assert.Equal(t, []string{"Swimming", "Running", "Basketball", "Cycling", "Tennis", "Chess"}, visible)
}

func TestConcurrentAdds_NoLostUpdate(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	s := loadedStore(t, kv)

	const n = 32
	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			return s.Add(ctx, domain.Sport{Name: fmt.Sprintf("Sport-%02d", i)})
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, s.Sports(), 7+n)
	assert.Equal(t, uint64(1+n), s.Revision())

	// the persisted blob holds every add too
	fresh := New(kv)
	require.NoError(t, fresh.Load(ctx))
	assert.Len(t, fresh.Sports(), 7+n)
	for i := range n {
		assert.True(t, fresh.Contains(fmt.Sprintf("Sport-%02d", i)))
	}
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newFakeKV())

	var g errgroup.Group
	for i := range 10 {
		g.Go(func() error {
			return s.ToggleVisibility(ctx, domain.DefaultSports()[i%7].Name)
		})
		g.Go(func() error {
			snap := s.Snapshot()
			if len(snap.Sports) != 7 {
				return fmt.Errorf("snapshot has %d sports", len(snap.Sports))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestReads_ReturnCopies(t *testing.T) {
	s := loadedStore(t, newFakeKV())

	sports := s.Sports()
	sports[0].Name = "Mutated"
	snap := s.Snapshot()
	snap.Sports[1].Hidden = true

	assert.Equal(t, "Swimming", s.Sports()[0].Name)
	assert.False(t, s.Sports()[1].Hidden)
}

func TestSearch(t *testing.T) {
	s := loadedStore(t, newFakeKV())
	assert.Equal(t, []string{"Football", "Basketball"}, domain.Names(s.Search("BALL")))
}

func TestWithKey(t *testing.T) {
	kv := newFakeKV()
	s := loadedStore(t, kv, WithKey("custom"))

	assert.Equal(t, "custom", s.Key())
	assert.NotEmpty(t, kv.raw("custom"))
	assert.Empty(t, kv.raw(DefaultKey))
}

func ptr(s string) *string { return &s }

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func TestMutations_KeepWritesFromOtherStores(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	server := loadedStore(t, kv)
	cli := loadedStore(t, kv)

	require.NoError(t, cli.Add(ctx, domain.Sport{Name: "Chess"}))
	require.NoError(t, server.Add(ctx, domain.Sport{Name: "Padel"}))

	names := server.Names()
	assert.Contains(t, names, "Chess", "write from the other store survives")
	assert.Contains(t, names, "Padel")

	require.NoError(t, cli.ToggleVisibility(ctx, "Yoga"))
	require.NoError(t, server.Delete(ctx, "Football"))

	fresh := loadedStore(t, kv)
	yoga, ok := fresh.Get("Yoga")
	require.True(t, ok)
	assert.True(t, yoga.Hidden)
	assert.False(t, fresh.Contains("Football"))
	assert.Equal(t, server.Sports(), fresh.Sports())
}

func TestConcurrentAdds_TwoStoresOneBackend(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	a := New(backend)
	b := New(backend)
	require.NoError(t, a.Load(ctx))
	require.NoError(t, b.Load(ctx))

	const perStore = 16
	var g errgroup.Group
	for i, s := range []*Store{a, b} {
		for j := range perStore {
			g.Go(func() error {
				return s.Add(ctx, domain.Sport{Name: fmt.Sprintf("Sport-%d-%02d", i, j)})
			})
		}
	}
	require.NoError(t, g.Wait())

	fresh := New(backend)
	require.NoError(t, fresh.Load(ctx))
	assert.Len(t, fresh.Sports(), 7+2*perStore)
}

func TestMutation_StoredValueProblems(t *testing.T) {
	ctx := context.Background()

	t.Run("read error", func(t *testing.T) {
		kv := newFakeKV()
		s := loadedStore(t, kv)
		before := s.Snapshot()

		kv.getErr = errors.New("connection refused")
		var pe *PersistenceError
		require.ErrorAs(t, s.Add(ctx, domain.Sport{Name: "Chess"}), &pe)
		assert.Equal(t, OpRead, pe.Op)
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("malformed blob", func(t *testing.T) {
		kv := newFakeKV()
		s := loadedStore(t, kv)
		before := s.Snapshot()

		kv.data[DefaultKey] = "{not json"
		require.ErrorIs(t, s.Add(ctx, domain.Sport{Name: "Chess"}), ErrMalformed)
		assert.Equal(t, before, s.Snapshot())

		// a full replace does not need the old value and repairs the blob
		require.NoError(t, s.ReplaceAll(ctx, []domain.Sport{{Name: "Chess"}}))
		assert.Equal(t, `[{"name":"Chess","color":"","icon":"","hidden":false}]`, kv.raw(DefaultKey))
	})

	t.Run("key removed after load", func(t *testing.T) {
		kv := newFakeKV()
		s := loadedStore(t, kv)

		delete(kv.data, DefaultKey)
		require.NoError(t, s.Add(ctx, domain.Sport{Name: "Chess"}))
		assert.Len(t, s.Sports(), 8)
		assert.NotEmpty(t, kv.raw(DefaultKey))
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	s := loadedStore(t, kv)
	other := loadedStore(t, kv)

	recolor := func(color string) func(domain.Sport) domain.Sport {
		return func(sport domain.Sport) domain.Sport {
			sport.Color = color
			return sport
		}
	}

	t.Run("keeps fields changed elsewhere", func(t *testing.T) {
		require.NoError(t, other.ToggleVisibility(ctx, "Yoga"))
		require.NoError(t, s.Update(ctx, "Yoga", recolor("#000000")))

		got, ok := s.Get("Yoga")
		require.True(t, ok)
		assert.Equal(t, "#000000", got.Color)
		assert.True(t, got.Hidden, "toggle from the other store survives")
	})

	t.Run("rename", func(t *testing.T) {
		require.NoError(t, s.Update(ctx, "Cycling", func(sport domain.Sport) domain.Sport {
			sport.Name = "  Biking "
			return sport
		}))
		assert.True(t, s.Contains("Biking"))
		assert.False(t, s.Contains("Cycling"))
	})

	t.Run("rename onto existing name", func(t *testing.T) {
		err := s.Update(ctx, "Biking", func(sport domain.Sport) domain.Sport {
			sport.Name = "Tennis"
			return sport
		})
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("blank name", func(t *testing.T) {
		var ve *ValidationError
		err := s.Update(ctx, "Tennis", func(sport domain.Sport) domain.Sport { return domain.Sport{} })
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("unknown sport", func(t *testing.T) {
		assert.ErrorIs(t, s.Update(ctx, "Curling", recolor("#111111")), ErrNotFound)
	})

	t.Run("legacy duplicates all change", func(t *testing.T) {
		kv := newFakeKV()
		kv.data[DefaultKey] = `[{"name":"Yoga"},{"name":"Yoga","hidden":true}]`
		s := loadedStore(t, kv)

		require.NoError(t, s.Update(ctx, "Yoga", recolor("#222222")))
		sports := s.Sports()
		assert.Equal(t, "#222222", sports[0].Color)
		assert.Equal(t, "#222222", sports[1].Color)
		assert.True(t, sports[1].Hidden)
	})
}
