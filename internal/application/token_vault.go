package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/waselni/waselni-cli/internal/domain"
	"github.com/waselni/waselni-cli/internal/ports"
)

const (
	accessTokenKey  = "token"
	refreshTokenKey = "refresh_token"
)

// TokenVault persists one profile's token pair in a secret store. Missing
// entries read as empty strings.
type TokenVault struct {
	store  ports.SecretStore
	prefix string
}

func NewTokenVault(store ports.SecretStore, profile domain.Profile) *TokenVault {
	return &TokenVault{store: store, prefix: profile.SecretPrefix()}
}

func (v *TokenVault) AccessTokenKey() string {
	return v.prefix + "/" + accessTokenKey
}

func (v *TokenVault) RefreshTokenKey() string {
	return v.prefix + "/" + refreshTokenKey
}

func (v *TokenVault) AccessToken(ctx context.Context) (string, error) {
	return v.get(ctx, v.AccessTokenKey())
}

func (v *TokenVault) RefreshToken(ctx context.Context) (string, error) {
	return v.get(ctx, v.RefreshTokenKey())
}

func (v *TokenVault) Load(ctx context.Context) (domain.Tokens, error) {
	access, err := v.AccessToken(ctx)
	if err != nil {
		return domain.Tokens{}, err
	}
	refresh, err := v.RefreshToken(ctx)
	if err != nil {
		return domain.Tokens{}, err
	}

	return domain.Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Save writes both tokens. When the second write fails the first one is put
// back to its previous value.
func (v *TokenVault) Save(ctx context.Context, tokens domain.Tokens) error {
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return errors.New("token pair is incomplete")
	}

	previous, err := v.AccessToken(ctx)
	if err != nil {
		return err
	}

	if err := v.store.Put(ctx, v.AccessTokenKey(), tokens.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}

	if err := v.store.Put(ctx, v.RefreshTokenKey(), tokens.RefreshToken); err != nil {
		var rollbackErr error
		if previous == "" {
			rollbackErr = v.store.Delete(ctx, v.AccessTokenKey())
		} else {
			rollbackErr = v.store.Put(ctx, v.AccessTokenKey(), previous)
		}
		if rollbackErr != nil {
			return fmt.Errorf("store refresh token and rollback access token: %w", errors.Join(err, rollbackErr))
		}

		return fmt.Errorf("store refresh token: %w", err)
	}

	return nil
}

func (v *TokenVault) SaveAccessToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("access token is empty")
	}
	if err := v.store.Put(ctx, v.AccessTokenKey(), token); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	return nil
}

// Clear removes both tokens. Both deletes are attempted even if one fails.
func (v *TokenVault) Clear(ctx context.Context) error {
	var errs []error
	if err := v.store.Delete(ctx, v.AccessTokenKey()); err != nil {
		errs = append(errs, fmt.Errorf("delete access token: %w", err))
	}
	if err := v.store.Delete(ctx, v.RefreshTokenKey()); err != nil {
		errs = append(errs, fmt.Errorf("delete refresh token: %w", err))
	}
	return errors.Join(errs...)
}

func (v *TokenVault) get(ctx context.Context, key string) (string, error) {
	value, err := v.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}
