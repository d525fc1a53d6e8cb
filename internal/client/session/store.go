package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"oftalmo/internal/shared/models"
)

// Storage keys, mirroring the two entries of the original local storage.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrNotHydrated is returned by BearerToken before Hydrate has run.
	ErrNotHydrated = errors.New("session not hydrated")
	// ErrEmptyUser rejects a login without a user profile.
	ErrEmptyUser = errors.New("user profile required")
)

var validate = validator.New()

type credentials struct {
	Token string `validate:"required"`
}

// Store owns the session token and user profile. Hydrate, Login and
// Logout are its only mutators.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	log     *zap.Logger
	state   State
	token   string
	user    models.User
}

func NewStore(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: backend, log: log, state: StateLoading}
}

// Hydrate reads the persisted pair once. Only a token together with a
// decodable, non-empty user yields StateAuthenticated; anything else settles to
// StateUnauthenticated and removes leftovers so the pair stays consistent.
func (s *Store) Hydrate() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		return s.state, nil
	}

	token, hasToken, err := s.backend.Get(KeyToken)
	if err != nil {
		return s.state, fmt.Errorf("read %s: %w", KeyToken, err)
	}
	raw, hasUser, err := s.backend.Get(KeyUser)
	if err != nil {
		return s.state, fmt.Errorf("read %s: %w", KeyUser, err)
	}

	switch {
	case hasToken && hasUser:
		user, err := decodeSession(token, raw)
		if err != nil {
			s.log.Warn("discarding corrupt session", zap.Error(err))
			s.clearLocked()
			s.state = StateUnauthenticated
			return s.state, nil
		}
		s.token = token
		s.user = user
		s.state = StateAuthenticated
	case hasToken || hasUser:
		s.log.Warn("discarding incomplete session",
			zap.Bool("has_token", hasToken),
			zap.Bool("has_user", hasUser),
		)
		s.clearLocked()
		s.state = StateUnauthenticated
	default:
		s.state = StateUnauthenticated
	}
	s.log.Debug("session hydrated", zap.Stringer("state", s.state))
	return s.state, nil
}

// decodeSession applies the checks Login enforces to a stored pair.
func decodeSession(token, raw string) (models.User, error) {
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return models.User{}, err
	}
	if err := checkSession(token, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func checkSession(token string, user models.User) error {
	if err := validate.Struct(credentials{Token: token}); err != nil {
		return err
	}
	if user == (models.User{}) {
		return ErrEmptyUser
	}
	return nil
}

// Login persists token and user and moves to StateAuthenticated. A failed
// user write removes the token again.
func (s *Store) Login(token string, user models.User) error {
	if err := checkSession(token, user); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	encoded, err := json.Marshal(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Set(KeyToken, token); err != nil {
		return fmt.Errorf("write %s: %w", KeyToken, err)
	}
	if err := s.backend.Set(KeyUser, string(encoded)); err != nil {
		_ = s.backend.Delete(KeyToken)
		return fmt.Errorf("write %s: %w", KeyUser, err)
	}
	s.token = token
	s.user = user
	s.state = StateAuthenticated
	s.log.Info("session started", zap.Int64("user_id", user.ID))
	return nil
}

// Logout removes both entries and moves to StateUnauthenticated.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.clearLocked(); err != nil {
		return err
	}
	s.token = ""
	s.user = models.User{}
	s.state = StateUnauthenticated
	s.log.Info("session ended")
	return nil
}

func (s *Store) clearLocked() error {
	errToken := s.backend.Delete(KeyToken)
	errUser := s.backend.Delete(KeyUser)
	return errors.Join(errToken, errUser)
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// User returns the profile of an authenticated session.
func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.state == StateAuthenticated
}

// BearerToken returns the token to present, or "" when nobody is logged in.
func (s *Store) BearerToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateLoading {
		return "", ErrNotHydrated
	}
	return s.token, nil
}
