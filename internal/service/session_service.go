package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"sync"
	"time"

	"quickcart/internal/models"
	"quickcart/internal/store"
	"quickcart/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is an authenticated connection. It is passed explicitly to every
// operation that needs an identity.
type Session struct {
	ID        string      `json:"session_id"`
	User      models.User `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

// SessionService handles registration, login and the session registry
type SessionService struct {
	store   *store.Store
	latency time.Duration
	logger  *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionService creates a new session service
func NewSessionService(store *store.Store, opts Options) *SessionService {
	return &SessionService{
		store:    store,
		latency:  opts.Latency,
		logger:   util.GetLogger(),
		sessions: make(map[string]*Session),
	}
}

// Register creates a customer account and opens a session for it
func (s *SessionService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "SessionService.Register")
	defer span.End()

	if err := util.SimulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		util.AuthAttemptsTotal.WithLabelValues("register", "invalid_input").Inc()
		return nil, models.NewError(models.KindInvalidInput, "name, email and password are required")
	}

	var user models.User
	err := s.store.Update(ctx, func(state *models.State) error {
		if state.FindUserByEmail(email) >= 0 {
			return models.ErrEmailAlreadyRegistered
		}

		user = models.User{
			ID:       uuid.New().String(),
			Name:     name,
			Email:    email,
			Role:     models.RoleCustomer,
			Password: password,
		}
		state.Users = append(state.Users, user)

		current := user.Public()
		state.CurrentUser = &current
		return nil
	})
	if err != nil {
		util.AuthAttemptsTotal.WithLabelValues("register", "failed").Inc()
		return nil, err
	}

	util.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	s.logger.Info("User registered", zap.String("user_id", user.ID))

	return s.open(user.Public()), nil
}

// Login opens a session for the user with exactly this email and password.
// Unknown email and wrong password fail the same way.
func (s *SessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "SessionService.Login")
	defer span.End()

	if err := util.SimulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}

	var user models.User
	err := s.store.Update(ctx, func(state *models.State) error {
		idx := state.FindUserByEmail(email)
		if idx < 0 || !passwordMatches(state.Users[idx].Password, password) {
			return models.ErrInvalidCredentials
		}

		user = state.Users[idx].Public()
		current := user
		state.CurrentUser = &current
		return nil
	})
	if err != nil {
		util.AuthAttemptsTotal.WithLabelValues("login", "failed").Inc()
		return nil, err
	}

	util.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	s.logger.Info("User logged in", zap.String("user_id", user.ID))

	return s.open(user), nil
}

// passwordMatches compares stored plaintext in constant time
func passwordMatches(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// Logout closes the session and clears the persisted current user if it
// belongs to the same user. A nil session clears the pointer unconditionally.
func (s *SessionService) Logout(ctx context.Context, sess *Session) error {
	ctx, span := util.StartSpan(ctx, "SessionService.Logout")
	defer span.End()

	if sess != nil {
		s.close(sess.ID)
	}

	return s.store.Update(ctx, func(state *models.State) error {
		if state.CurrentUser == nil {
			return nil
		}
		if sess == nil || state.CurrentUser.ID == sess.User.ID {
			state.CurrentUser = nil
		}
		return nil
	})
}

// CurrentUser returns the most recently signed-in user, or nil
func (s *SessionService) CurrentUser(ctx context.Context) (*models.User, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state.CurrentUser == nil {
		return nil, nil
	}
	user := state.CurrentUser.Public()
	return &user, nil
}

// Resolve looks up an open session by id
func (s *SessionService) Resolve(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, models.ErrNotAuthenticated
	}
	cpy := *sess
	cpy.User = sess.User.Public()
	return &cpy, nil
}

// UpdateWishlist replaces the wishlist of the session user
func (s *SessionService) UpdateWishlist(ctx context.Context, sess *Session, productIDs []string) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "SessionService.UpdateWishlist")
	defer span.End()

	if sess == nil {
		return nil, models.ErrNotAuthenticated
	}

	wishlist := dedupe(productIDs)

	var user models.User
	err := s.store.Update(ctx, func(state *models.State) error {
		idx := state.FindUser(sess.User.ID)
		if idx < 0 {
			return models.ErrNotAuthenticated
		}

		state.Users[idx].Wishlist = wishlist
		user = state.Users[idx].Public()

		if state.CurrentUser != nil && state.CurrentUser.ID == user.ID {
			current := user
			state.CurrentUser = &current
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if open, ok := s.sessions[sess.ID]; ok {
		open.User = user
	}
	s.mu.Unlock()

	return &user, nil
}

// EnsureAdmin creates or promotes the configured administrator account
func (s *SessionService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return models.NewError(models.KindInvalidInput, "admin email and password are required")
	}
	if name == "" {
		name = "Administrator"
	}

	return s.store.Update(ctx, func(state *models.State) error {
		if idx := state.FindUserByEmail(email); idx >= 0 {
			state.Users[idx].Role = models.RoleAdmin
			state.Users[idx].Password = password
			return nil
		}
		state.Users = append(state.Users, models.User{
			ID:       uuid.New().String(),
			Name:     name,
			Email:    email,
			Role:     models.RoleAdmin,
			Password: password,
		})
		return nil
	})
}

func (s *SessionService) open(user models.User) *Session {
	sess := &Session{
		ID:        uuid.New().String(),
		User:      user,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	util.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	cpy := *sess
	return &cpy
}

func (s *SessionService) close(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	util.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()
}

// requireAdmin enforces the admin role at the service layer
func requireAdmin(sess *Session) error {
	if sess == nil {
		return models.ErrNotAuthenticated
	}
	if !sess.User.IsAdmin() {
		return models.ErrForbidden
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
