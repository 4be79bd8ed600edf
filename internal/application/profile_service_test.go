package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/waselni/waselni-cli/internal/domain"
	"github.com/waselni/waselni-cli/internal/ports/mocks"
)

func TestResolvePrefersRequestedThenActiveThenDefault(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockProfileRepository(t)
	service := NewProfileService(repo, newMemoryStore(), nil)
	staging := domain.Profile{ID: "staging", BaseURL: "https://staging.example/api"}

	repo.EXPECT().GetByID(mock.Anything, domain.ProfileID("staging")).Return(staging, nil).Twice()
	got, err := service.Resolve(context.Background(), "staging")
	require.NoError(t, err)
	assert.Equal(t, staging, got)

	repo.EXPECT().Active(mock.Anything).Return(domain.ProfileID("staging"), nil).Once()
	got, err = service.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, staging, got)

	repo.EXPECT().Active(mock.Anything).Return(domain.ProfileID(""), nil).Once()
	repo.EXPECT().GetByID(mock.Anything, domain.DefaultProfileID).
		Return(domain.Profile{}, fmt.Errorf("profile %q: %w", "default", domain.ErrProfileNotFound)).Once()
	got, err = service.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.Profile{ID: domain.DefaultProfileID}, got)
}

func TestResolvePropagatesRepositoryFailure(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockProfileRepository(t)
	service := NewProfileService(repo, newMemoryStore(), nil)
	readErr := errors.New("decode profiles file")

	repo.EXPECT().Active(mock.Anything).Return(domain.ProfileID(""), readErr).Once()

	_, err := service.Resolve(context.Background(), "")
	require.ErrorIs(t, err, readErr)
}

func TestRecordLoginSavesIdentityAndActivatesFirstProfile(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockProfileRepository(t)
	clock := mocks.NewMockClock(t)
	service := NewProfileService(repo, newMemoryStore(), clock)
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	expected := domain.Profile{
		ID:          "default",
		BaseURL:     "http://localhost:8001/api",
		Email:       shipper.Email,
		Role:        shipper.Role,
		LastLoginAt: now,
	}

	clock.EXPECT().Now().Return(now).Once()
	repo.EXPECT().Save(mock.Anything, expected).Return(nil).Once()
	repo.EXPECT().Active(mock.Anything).Return(domain.ProfileID(""), nil).Once()
	repo.EXPECT().SetActive(mock.Anything, domain.ProfileID("default")).Return(nil).Once()

	got, err := service.RecordLogin(context.Background(), domain.Profile{ID: "default"}, "http://localhost:8001/api", shipper)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestRecordLoginKeepsExistingActiveProfile(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockProfileRepository(t)
	clock := mocks.NewMockClock(t)
	service := NewProfileService(repo, newMemoryStore(), clock)

	clock.EXPECT().Now().Return(time.Unix(0, 0)).Once()
	repo.EXPECT().Save(mock.Anything, mock.Anything).Return(nil).Once()
	repo.EXPECT().Active(mock.Anything).Return(domain.ProfileID("default"), nil).Once()

	_, err := service.RecordLogin(context.Background(), domain.Profile{ID: "staging"}, "https://staging.example/api", shipper)
	require.NoError(t, err)
}

func TestRemoveClearsTokensThenDeletes(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockProfileRepository(t)
	store := newMemoryStore()
	service := NewProfileService(repo, store, nil)
	staging := domain.Profile{ID: "staging"}

	vault := NewTokenVault(store, staging)
	require.NoError(t, vault.Save(context.Background(), domain.Tokens{AccessToken: "a", RefreshToken: "r"}))

	repo.EXPECT().GetByID(mock.Anything, domain.ProfileID("staging")).Return(staging, nil).Once()
	repo.EXPECT().Delete(mock.Anything, domain.ProfileID("staging")).Return(nil).Once()

	require.NoError(t, service.Remove(context.Background(), "staging"))

	tokens, err := vault.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, tokens.Empty())
}

func TestRemoveUnknownProfile(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockProfileRepository(t)
	service := NewProfileService(repo, newMemoryStore(), nil)

	repo.EXPECT().GetByID(mock.Anything, domain.ProfileID("ghost")).
		Return(domain.Profile{}, domain.ErrProfileNotFound).Once()

	err := service.Remove(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestListSortsProfiles(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockProfileRepository(t)
	service := NewProfileService(repo, newMemoryStore(), nil)

	repo.EXPECT().List(mock.Anything).Return([]domain.Profile{{ID: "staging"}, {ID: "default"}}, nil).Once()
	repo.EXPECT().Active(mock.Anything).Return(domain.ProfileID("staging"), nil).Once()

	profiles, active, err := service.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileID("staging"), active)
	require.Len(t, profiles, 2)
	assert.Equal(t, domain.ProfileID("default"), profiles[0].ID)
}

func TestUseRequiresKnownProfile(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockProfileRepository(t)
	service := NewProfileService(repo, newMemoryStore(), nil)

	repo.EXPECT().SetActive(mock.Anything, domain.ProfileID("ghost")).Return(domain.ErrProfileNotFound).Once()

	require.ErrorIs(t, service.Use(context.Background(), "ghost"), domain.ErrProfileNotFound)
}
