package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"quickcart/internal/models"
	"quickcart/internal/util"

	"go.uber.org/zap"
)

// AnyVersion makes Put overwrite regardless of the stored version
const AnyVersion int64 = -1

const maxUpdateAttempts = 5

var (
	// ErrNotFound is returned by a backend that holds no document yet
	ErrNotFound = errors.New("state not found")
	// ErrVersionConflict is returned when the stored version differs from the expected one
	ErrVersionConflict = errors.New("state version conflict")
)

// Backend persists the serialized state document together with its version.
type Backend interface {
	Get(ctx context.Context) (payload []byte, version int64, err error)
	// Put writes payload as version. When expected is not AnyVersion the write
	// only happens if the stored version equals expected (0 meaning absent).
	Put(ctx context.Context, payload []byte, version, expected int64) error
	Close() error
}

// Store owns the persisted state document. Every read decodes a fresh copy,
// every write replaces the whole document.
type Store struct {
	backend Backend
	seed    func() *models.State
	mu      sync.Mutex
	logger  *zap.Logger
}

// NewStore creates a store over the given backend. seed is used when the
// backend is empty; nil falls back to the embedded catalog seed.
func NewStore(backend Backend, seed func() *models.State) *Store {
	if seed == nil {
		seed = Seed
	}
	return &Store{
		backend: backend,
		seed:    seed,
		logger:  util.GetLogger(),
	}
}

// Close closes the underlying backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// Load returns the last saved state or the seed state
func (s *Store) Load(ctx context.Context) (*models.State, error) {
	payload, version, err := s.backend.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		return s.seed(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var state models.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	state.Version = version
	return &state, nil
}

// Save overwrites the whole persisted document
func (s *Store) Save(ctx context.Context, state *models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.Version++
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.backend.Put(ctx, payload, state.Version, AnyVersion); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Update runs a read-modify-write cycle. Writers in this process are
// serialized; writers in other processes are detected through the version
// and the cycle is retried. Nothing is written when fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(state *models.State) error) error {
	ctx, span := util.StartSpan(ctx, "Store.Update")
	defer span.End()

	start := time.Now()
	defer func() {
		util.StoreUpdateLatency.Observe(time.Since(start).Seconds())
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		state, err := s.Load(ctx)
		if err != nil {
			return err
		}

		expected := state.Version
		if err := fn(state); err != nil {
			return err
		}

		state.Version = expected + 1
		payload, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to encode state: %w", err)
		}

		err = s.backend.Put(ctx, payload, state.Version, expected)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return fmt.Errorf("failed to save state: %w", err)
		}

		util.StoreConflictsTotal.Inc()
		s.logger.Warn("State version conflict, retrying",
			zap.Int64("expected_version", expected),
			zap.Int("attempt", attempt))
	}

	return fmt.Errorf("gave up after %d attempts: %w", maxUpdateAttempts, ErrVersionConflict)
}
