package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waselni/waselni-cli/internal/domain"
)

func newTestRepository(t *testing.T, path string) *Repository {
	t.Helper()

	config := viper.New()
	config.Set(ProfilesPathKey, path)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))
	loginAt := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)

	first := domain.Profile{
		ID:          "default",
		BaseURL:     "http://localhost:8001/api",
		Email:       "shipper@example.com",
		Role:        domain.RoleShipper,
		LastLoginAt: loginAt,
	}
	second := domain.Profile{ID: "staging", BaseURL: "https://staging.waselni.ma/api"}

	require.NoError(t, repo.Save(context.Background(), first))
	require.NoError(t, repo.Save(context.Background(), second))

	got, err := repo.GetByID(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, domain.ProfileID("staging"), profiles[1].ID)
	assert.True(t, profiles[1].LastLoginAt.IsZero())
}

func TestRepositorySaveUpdatesExistingProfile(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))

	require.NoError(t, repo.Save(context.Background(), domain.Profile{ID: "default", Email: "old@example.com"}))
	require.NoError(t, repo.Save(context.Background(), domain.Profile{ID: "default", Email: "new@example.com"}))

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "new@example.com", profiles[0].Email)
}

func TestRepositorySaveRejectsEmptyID(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))

	err := repo.Save(context.Background(), domain.Profile{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "profile id is empty")
}

func TestRepositoryActiveSelection(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))

	active, err := repo.Active(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)

	err = repo.SetActive(context.Background(), "staging")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)

	require.NoError(t, repo.Save(context.Background(), domain.Profile{ID: "staging"}))
	require.NoError(t, repo.SetActive(context.Background(), "staging"))

	active, err = repo.Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileID("staging"), active)

	require.NoError(t, repo.Delete(context.Background(), "staging"))

	active, err = repo.Active(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRepositoryDeleteMissingProfile(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))

	err := repo.Delete(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestRepositorySaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	repo, err := NewRepository(viper.New())
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), domain.Profile{ID: "default"}))

	profilesPath := filepath.Join(homeDir, ".waselni", "profiles.toml")
	assert.Equal(t, profilesPath, repo.Path())

	info, err := os.Stat(profilesPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(profilesPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRepositoryMissingFileBehaviors(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "profiles.toml"))

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, profiles)

	_, err = repo.GetByID(context.Background(), "default")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestRepositoryListMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(profilesPath, []byte("profiles = ["), 0o600))

	repo := newTestRepository(t, profilesPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode profiles file")
}

func TestRepositoryIgnoresUnparseableLoginTime(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(profilesPath, []byte(strings.Join([]string{
		"version = 1",
		"",
		"[[profiles]]",
		"id = \"default\"",
		"last_login_at = \"yesterday\"",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, profilesPath)

	profile, err := repo.GetByID(context.Background(), "default")
	require.NoError(t, err)
	assert.True(t, profile.LastLoginAt.IsZero())
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, domain.Profile{ID: "default"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRepositoryConcurrentSavesAcrossInstancesPreserveAllProfiles(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	repoA := newTestRepository(t, profilesPath)
	repoB := newTestRepository(t, profilesPath)

	const perRepoWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	write := func(repo *Repository, prefix string) {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repo.Save(context.Background(), domain.Profile{ID: domain.ProfileID(prefix + strconv.Itoa(i))})
		}
	}

	go write(repoA, "a-")
	go write(repoB, "b-")

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	profiles, err := repoA.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, profiles, perRepoWrites*2)
}

func TestRepositorySaveSerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	repo := newTestRepository(t, profilesPath)

	require.NoError(t, repo.Save(context.Background(), domain.Profile{ID: "default"}))

	data, err := os.ReadFile(profilesPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
}

func TestRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(profilesPath, []byte("version = 999\nprofiles = []\n"), 0o600))

	repo := newTestRepository(t, profilesPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported profiles schema version")
}
