package ports

import "context"

// TokenStore keeps the storage API token saved by `ams login` outside the
// config file.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
