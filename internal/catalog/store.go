// Package catalog owns the canonical list of sport definitions and its
// persisted copy.
package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/huddle/internal/domain"
	"github.com/MrSnakeDoc/huddle/internal/logger"
)

// DefaultKey is the persistence key the mobile app has always used.
const DefaultKey = "extendedSportsConfig"

// Persistence is the key-value collaborator the store reads and writes through.
// Get reports found=false when the key does not exist.
type Persistence interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Modifier is implemented by backends that can read, change and write one
// key as a single step, even against writers in other processes. fn gets
// the stored value and returns the one to write. When fn fails nothing is
// written. fn may run more than once if the backend retries.
type Modifier interface {
	Modify(ctx context.Context, key string, fn func(value string, found bool) (string, error)) error
}

// getThenSet gives a plain Persistence the Modifier shape. Callers hold
// writeMu, so only writers outside this Store can interleave.
type getThenSet struct {
	Persistence
}

func (p getThenSet) Modify(ctx context.Context, key string, fn func(string, bool) (string, error)) error {
	value, found, err := p.Get(ctx, key)
	if err != nil {
		return err
	}
	next, err := fn(value, found)
	if err != nil {
		return err
	}
	return p.Set(ctx, key, next)
}

// Snapshot is a collection and the revision it was read at.
type Snapshot struct {
	Revision uint64         `json:"revision"`
	Sports   []domain.Sport `json:"sports"`
}

type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithSeed replaces the built-in list used when nothing is persisted yet.
func WithSeed(seed []domain.Sport) Option {
	return func(s *Store) { s.seed = domain.Clone(seed) }
}

func WithLogger(log logger.Logger) Option {
	return func(s *Store) { s.logger = log }
}

// Store owns the in-memory view of the sports collection.
//
// Load and every mutation run one at a time under writeMu. Each mutation
// re-reads the stored collection and applies its change to that, through
// the backend's Modifier when it has one, so writes made by other processes
// since the last Load are kept. Memory is only changed after the write
// succeeded. Readers take mu and never wait on I/O.
type Store struct {
	persistence Persistence
	modifier    Modifier
	key         string
	seed        []domain.Sport
	logger      logger.Logger

	writeMu sync.Mutex

	mu       sync.RWMutex
	sports   []domain.Sport
	ready    bool
	revision uint64
}

// New creates an unloaded store. Call Load before mutating.
func New(p Persistence, opts ...Option) *Store {
	s := &Store{
		persistence: p,
		key:         DefaultKey,
		seed:        domain.DefaultSports(),
		logger:      logger.NewNop(),
		sports:      []domain.Sport{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if m, ok := p.(Modifier); ok {
		s.modifier = m
	} else {
		s.modifier = getThenSet{p}
	}
	return s
}

// Key returns the persistence key in use.
func (s *Store) Key() string { return s.key }

// ─────────────────────────────────────────────────────────────────
// Loading
// ─────────────────────────────────────────────────────────────────

// Load reads the persisted collection. When nothing is stored yet the seed
// list is persisted and adopted. On failure the previous state is kept.
func (s *Store) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	raw, found, err := s.persistence.Get(ctx, s.key)
	if err != nil {
		return s.fail(OpRead, err)
	}

	if found && raw != "" {
		sports, err := decode(raw)
		if err != nil {
			return s.fail(OpDecode, err)
		}
		if dups := domain.DuplicateNames(sports); len(dups) > 0 {
			s.logger.Warn("persisted sports contain duplicate names",
				logger.String("key", s.key),
				logger.Strings("names", dups))
		}
		rev := s.commit(sports)
		s.logger.Debug("loaded sports from storage",
			logger.Int("count", len(sports)),
			logger.Uint64("revision", rev))
		return nil
	}

	seeded := domain.Clone(s.seed)
	for i := range seeded {
		seeded[i].Hidden = false
	}
	if err := s.persist(ctx, seeded); err != nil {
		return err
	}
	rev := s.commit(seeded)
	s.logger.Info("seeded sports catalog",
		logger.String("key", s.key),
		logger.Int("count", len(seeded)),
		logger.Uint64("revision", rev))
	return nil
}

// Refresh re-reads the persisted collection, picking up external writes.
func (s *Store) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// ─────────────────────────────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────────────────────────────

// ReplaceAll persists sports verbatim and adopts it.
func (s *Store) ReplaceAll(ctx context.Context, sports []domain.Sport) error {
	next := make([]domain.Sport, 0, len(sports))
	for _, sport := range sports {
		sport = sport.Normalize()
		if err := validate(sport); err != nil {
			return err
		}
		next = append(next, sport)
	}
	if dups := domain.DuplicateNames(next); len(dups) > 0 {
		return &DuplicateError{Name: dups[0]}
	}

	return s.modify(ctx, "replace_all", func(string, bool) ([]domain.Sport, error) {
		return next, nil
	})
}

// ToggleVisibility flips Hidden on every sport named name.
func (s *Store) ToggleVisibility(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return s.mutate(ctx, "toggle", func(current []domain.Sport) ([]domain.Sport, error) {
		matched := false
		for i := range current {
			if current[i].Name == name {
				current[i].Hidden = !current[i].Hidden
				matched = true
			}
		}
		if !matched {
			return nil, &NotFoundError{Name: name}
		}
		return current, nil
	})
}

// Add appends sport. Names must be unique.
func (s *Store) Add(ctx context.Context, sport domain.Sport) error {
	sport = sport.Normalize()
	if err := validate(sport); err != nil {
		return err
	}

	return s.mutate(ctx, "add", func(current []domain.Sport) ([]domain.Sport, error) {
		if domain.Contains(current, sport.Name) {
			return nil, &DuplicateError{Name: sport.Name}
		}
		return append(current, sport), nil
	})
}

// Delete removes every sport named name.
func (s *Store) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return s.mutate(ctx, "delete", func(current []domain.Sport) ([]domain.Sport, error) {
		next := make([]domain.Sport, 0, len(current))
		for _, sport := range current {
			if sport.Name != name {
				next = append(next, sport)
			}
		}
		if len(next) == len(current) {
			return nil, &NotFoundError{Name: name}
		}
		return next, nil
	})
}

// Edit overwrites every sport named name with updated, all fields included.
// updated.Name may differ from name to rename the sport.
func (s *Store) Edit(ctx context.Context, name string, updated domain.Sport) error {
	updated = updated.Normalize()
	if err := validate(updated); err != nil {
		return err
	}
	return s.update(ctx, "edit", name, func(domain.Sport) domain.Sport { return updated })
}

// Update replaces every sport named name with fn applied to its stored
// value. fn runs inside the write, so fields it leaves alone keep whatever
// was stored at that moment.
func (s *Store) Update(ctx context.Context, name string, fn func(domain.Sport) domain.Sport) error {
	return s.update(ctx, "update", name, fn)
}

func (s *Store) update(ctx context.Context, op, name string, fn func(domain.Sport) domain.Sport) error {
	name = strings.TrimSpace(name)
	return s.mutate(ctx, op, func(current []domain.Sport) ([]domain.Sport, error) {
		var matches []int
		others := make(map[string]bool, len(current))
		for i, sport := range current {
			if sport.Name == name {
				matches = append(matches, i)
			} else {
				others[sport.Name] = true
			}
		}
		if len(matches) == 0 {
			return nil, &NotFoundError{Name: name}
		}

		for _, i := range matches {
			updated := fn(current[i]).Normalize()
			if err := validate(updated); err != nil {
				return nil, err
			}
			if others[updated.Name] {
				return nil, &DuplicateError{Name: updated.Name}
			}
			current[i] = updated
		}
		return current, nil
	})
}

// mutate runs fn against the collection as currently stored.
func (s *Store) mutate(ctx context.Context, op string, fn func([]domain.Sport) ([]domain.Sport, error)) error {
	return s.modify(ctx, op, func(raw string, found bool) ([]domain.Sport, error) {
		current, err := s.stored(raw, found)
		if err != nil {
			return nil, err
		}
		return fn(current)
	})
}

// stored decodes the value read at the start of a mutation. If the key has
// disappeared since Load, the last committed collection stands in for it.
func (s *Store) stored(raw string, found bool) ([]domain.Sport, error) {
	if !found || raw == "" {
		return s.Sports(), nil
	}
	sports, err := decode(raw)
	if err != nil {
		return nil, s.fail(OpDecode, err)
	}
	return sports, nil
}

// modify runs one serialized read-modify-write cycle and commits its result.
// Backend errors before apply ran count as reads, later ones as writes.
func (s *Store) modify(ctx context.Context, op string, apply func(raw string, found bool) ([]domain.Sport, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.Ready() {
		s.logger.Warn("sports mutation before load", logger.String("op", op))
		return ErrNotReady
	}

	var (
		next    []domain.Sport
		aborted error
		read    bool
	)
	err := s.modifier.Modify(ctx, s.key, func(raw string, found bool) (string, error) {
		read = true
		aborted = nil

		sports, err := apply(raw, found)
		if err != nil {
			aborted = err
			return "", err
		}
		encoded, err := encode(sports)
		if err != nil {
			aborted = s.fail(OpEncode, err)
			return "", aborted
		}
		next = sports
		return encoded, nil
	})
	switch {
	case aborted != nil:
		return aborted
	case err != nil && !read:
		return s.fail(OpRead, err)
	case err != nil:
		return s.fail(OpWrite, err)
	}

	rev := s.commit(next)
	s.logger.Debug("sports updated",
		logger.String("op", op),
		logger.Int("count", len(next)),
		logger.Uint64("revision", rev))
	return nil
}

func (s *Store) persist(ctx context.Context, sports []domain.Sport) error {
	raw, err := encode(sports)
	if err != nil {
		return s.fail(OpEncode, err)
	}
	if err := s.persistence.Set(ctx, s.key, raw); err != nil {
		return s.fail(OpWrite, err)
	}
	return nil
}

func (s *Store) commit(sports []domain.Sport) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sports = sports
	s.ready = true
	s.revision++
	return s.revision
}

func (s *Store) fail(op string, err error) error {
	pe := &PersistenceError{Op: op, Key: s.key, Err: err}
	s.logger.Error("sports persistence failed",
		logger.String("op", op),
		logger.String("key", s.key),
		logger.Error(err))
	return pe
}

func validate(sport domain.Sport) error {
	if err := sport.Validate(); err != nil {
		return &ValidationError{Field: "name", Message: err.Error()}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────

// Sports returns a copy of the full collection.
func (s *Store) Sports() []domain.Sport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Clone(s.sports)
}

// VisibleSports returns the non-hidden subsequence, derived on every call.
func (s *Store) VisibleSports() []domain.Sport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Visible(s.sports)
}

// Get returns the first sport named name.
func (s *Store) Get(name string) (domain.Sport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.FindByName(s.sports, name)
}

// Contains reports whether a sport named name exists.
func (s *Store) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Contains(s.sports, name)
}

// Names lists every sport name in order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Names(s.sports)
}

// Search filters the full collection by name substring, ignoring case.
func (s *Store) Search(query string) []domain.Sport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Search(s.sports, query)
}

// Snapshot returns the collection together with the revision it belongs to.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Revision: s.revision, Sports: domain.Clone(s.sports)}
}

// Revision increases by one on every successful load or mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Ready reports whether a Load has succeeded.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}
