package ports

import "context"

// SecretStore is durable key/value storage for credentials.
// Get returns an error matching domain.ErrSecretNotFound for missing keys and
// Delete of a missing key is not an error.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
