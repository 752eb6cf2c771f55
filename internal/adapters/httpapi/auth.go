package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/bnema/warehouse-showcase/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultSessionTTL = 12 * time.Hour

var errInvalidCredentials = errors.New("invalid credentials")

// Operator is a dashboard login. PasswordHash is a bcrypt hash.
type Operator struct {
	Name         string `mapstructure:"name"`
	PasswordHash string `mapstructure:"password_hash"`
}

type session struct {
	operator  string
	expiresAt time.Time
}

// Authenticator checks operator passwords and tracks the bearer sessions it
// hands out. Sessions live in memory only.
type Authenticator struct {
	operators map[string]string
	ttl       time.Duration
	clock     ports.Clock

	mu       sync.Mutex
	sessions map[string]session
}

func NewAuthenticator(operators []Operator, ttl time.Duration, clock ports.Clock) (*Authenticator, error) {
	if len(operators) == 0 {
		return nil, errors.New("no operators configured")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	byName := make(map[string]string, len(operators))
	for _, operator := range operators {
		name := strings.TrimSpace(operator.Name)
		if name == "" {
			return nil, errors.New("operator without name")
		}
		if _, err := bcrypt.Cost([]byte(operator.PasswordHash)); err != nil {
			return nil, fmt.Errorf("operator %s: invalid password hash: %w", name, err)
		}
		byName[name] = operator.PasswordHash
	}

	return &Authenticator{
		operators: byName,
		ttl:       ttl,
		clock:     clock,
		sessions:  map[string]session{},
	}, nil
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (a *Authenticator) Login(name, password string) (string, time.Time, error) {
	hash, ok := a.operators[strings.TrimSpace(name)]
	if !ok {
		return "", time.Time{}, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", time.Time{}, errInvalidCredentials
	}

	token := uuid.NewString()
	expiresAt := a.clock.Now().Add(a.ttl)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.pruneLocked()
	a.sessions[token] = session{operator: strings.TrimSpace(name), expiresAt: expiresAt}

	return token, expiresAt, nil
}

// Validate returns the operator owning token.
func (a *Authenticator) Validate(token string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sessions[token]
	if !ok {
		return "", domain.ErrUnauthorized
	}
	if !a.clock.Now().Before(s.expiresAt) {
		delete(a.sessions, token)
		return "", fmt.Errorf("%w: session expired", domain.ErrUnauthorized)
	}
	return s.operator, nil
}

func (a *Authenticator) Logout(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, token)
}

func (a *Authenticator) pruneLocked() {
	now := a.clock.Now()
	for token, s := range a.sessions {
		if !now.Before(s.expiresAt) {
			delete(a.sessions, token)
		}
	}
}
