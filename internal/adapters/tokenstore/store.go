package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/bnema/warehouse-showcase/internal/ports"
)

const (
	BackendAuto = "auto"
	BackendPass = "pass"
	BackendFile = "file"
)

// backend holds at most one token.
type backend interface {
	String() string
	load(ctx context.Context) (string, error)
	save(ctx context.Context, token string) error
	clear(ctx context.Context) error
}

// Options locates the token. PassEntry is the pass(1) entry name and File the
// path of the plain-file copy.
type Options struct {
	Backend   string
	PassEntry string
	File      string
}

// Store keeps the storage API token in the first backend that accepts it.
// With BackendAuto that is the pass entry, then the file.
type Store struct {
	backends []backend
}

var _ ports.TokenStore = (*Store)(nil)

func New(opts Options) (*Store, error) {
	usePass := opts.Backend == BackendAuto || opts.Backend == "" || opts.Backend == BackendPass
	useFile := opts.Backend == BackendAuto || opts.Backend == "" || opts.Backend == BackendFile
	if !usePass && !useFile {
		return nil, fmt.Errorf("unsupported token backend %q", opts.Backend)
	}

	store := &Store{}
	if usePass {
		pass := newPassBackend(opts.PassEntry)
		if pass.entry == "" {
			return nil, errors.New("pass entry for the api token is empty")
		}
		store.backends = append(store.backends, pass)
	}
	if useFile {
		if strings.TrimSpace(opts.File) == "" {
			return nil, errors.New("token file path is empty")
		}
		store.backends = append(store.backends, newFileBackend(opts.File))
	}
	return store, nil
}

// Load returns the token from the first backend holding one. Backends that
// fail are skipped; their errors surface only when no backend has a token.
func (s *Store) Load(ctx context.Context) (string, error) {
	var failures []error
	for _, b := range s.backends {
		token, err := b.load(ctx)
		switch {
		case err == nil:
			return token, nil
		case ctx.Err() != nil:
			return "", ctx.Err()
		case !errors.Is(err, domain.ErrNoToken):
			failures = append(failures, fmt.Errorf("%s: %w", b, err))
		}
	}

	if len(failures) > 0 {
		return "", fmt.Errorf("load api token: %w", errors.Join(failures...))
	}
	return "", domain.ErrNoToken
}

// Save writes the token to the first backend that accepts it and drops any
// copy an earlier backend may still hold from a previous login.
func (s *Store) Save(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("api token is empty")
	}

	var failures []error
	for i, b := range s.backends {
		err := b.save(ctx, token)
		if err == nil {
			for _, refused := range s.backends[:i] {
				_ = refused.clear(ctx)
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		failures = append(failures, fmt.Errorf("%s: %w", b, err))
	}
	return fmt.Errorf("save api token: %w", errors.Join(failures...))
}

// Clear removes the token from every backend it can reach. It fails only when
// no backend could be cleared; a backend without a token counts as cleared.
func (s *Store) Clear(ctx context.Context) error {
	var failures []error
	for _, b := range s.backends {
		if err := b.clear(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures = append(failures, fmt.Errorf("%s: %w", b, err))
		}
	}
	if len(failures) == len(s.backends) {
		return fmt.Errorf("clear api token: %w", errors.Join(failures...))
	}
	return nil
}
