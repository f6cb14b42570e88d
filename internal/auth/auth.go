package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("token expired")
)

const defaultCacheTTL = 10 * time.Minute

// Session is a successfully validated bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Service validates the shared api token. Only its bcrypt hash is held;
// tokens that passed a comparison are cached so each request does not pay
// the bcrypt cost.
type Service struct {
	hash     []byte
	tokens   *tokenStore
	now      func() time.Time
	cacheTTL time.Duration
}

func NewService(token string) (*Service, error) {
	return newServiceWithCost(token, bcrypt.DefaultCost)
}

func newServiceWithCost(token string, cost int) (*Service, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return nil, err
	}
	return newService(hash), nil
}

// NewServiceFromHash builds a service from a bcrypt hash generated elsewhere,
// so the plaintext token never has to reach the server's environment.
func NewServiceFromHash(hash string) (*Service, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, ErrInvalidInput
	}
	return newService([]byte(hash)), nil
}

func newService(hash []byte) *Service {
	return &Service{
		hash:     hash,
		tokens:   newTokenStore(),
		now:      time.Now,
		cacheTTL: defaultCacheTTL,
	}
}

func (s *Service) ValidateToken(token string) (Session, error) {
	if strings.TrimSpace(token) == "" {
		return Session{}, ErrUnauthorized
	}
	now := s.now()
	if session, err := s.tokens.validate(now, token); err == nil {
		return session, nil
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(token)); err != nil {
		return Session{}, ErrUnauthorized
	}
	session := Session{Token: token, ExpiresAt: now.Add(s.cacheTTL)}
	s.tokens.store(session)
	return session, nil
}

type tokenStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func newTokenStore() *tokenStore {
	return &tokenStore{sessions: make(map[string]Session)}
}

func (t *tokenStore) store(session Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[session.Token] = session
}

func (t *tokenStore) validate(now time.Time, token string) (Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[token]
	if !ok {
		return Session{}, ErrUnauthorized
	}
	if !session.ExpiresAt.IsZero() && now.After(session.ExpiresAt) {
		delete(t.sessions, token)
		return Session{}, ErrTokenExpired
	}
	return session, nil
}
