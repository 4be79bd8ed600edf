package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"github.com/waselni/waselni-cli/internal/domain"
	"github.com/waselni/waselni-cli/internal/ports"
)

const (
	ProfilesPathKey    = "profiles.path"
	profilesFileMode   = 0o600
	profilesDirMode    = 0o700
	profilesConfigDir  = ".waselni"
	profilesConfigFile = "profiles.toml"
	tempFilePattern    = ".profiles-*.toml.tmp"
)

// Repository stores profiles in a single TOML file. Writes replace the file
// atomically; repositories opened on the same path share one lock.
type Repository struct {
	profilesPath string
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.ProfileRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	profilesPath := cfg.GetString(ProfilesPathKey)
	if profilesPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		profilesPath = filepath.Join(homeDir, profilesConfigDir, profilesConfigFile)
	}

	profilesPath, err := normalizePath(profilesPath)
	if err != nil {
		return nil, err
	}

	return &Repository{profilesPath: profilesPath, mu: lockForPath(profilesPath)}, nil
}

func (r *Repository) Path() string {
	return r.profilesPath
}

func (r *Repository) Save(ctx context.Context, profile domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile.ID == "" {
		return errors.New("profile id is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(profile)
	updated := false
	for i := range file.Profiles {
		if file.Profiles[i].ID == encoded.ID {
			file.Profiles[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Profiles = append(file.Profiles, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) GetByID(ctx context.Context, id domain.ProfileID) (domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Profile{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Profile{}, err
	}

	for _, entry := range file.Profiles {
		if entry.ID == string(id) {
			return fromSchema(entry), nil
		}
	}

	return domain.Profile{}, fmt.Errorf("profile %q: %w", id, domain.ErrProfileNotFound)
}

func (r *Repository) List(ctx context.Context) ([]domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.Profile, 0, len(file.Profiles))
	for _, entry := range file.Profiles {
		profiles = append(profiles, fromSchema(entry))
	}

	return profiles, nil
}

func (r *Repository) Delete(ctx context.Context, id domain.ProfileID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	kept := file.Profiles[:0]
	found := false
	for _, entry := range file.Profiles {
		if entry.ID == string(id) {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return fmt.Errorf("profile %q: %w", id, domain.ErrProfileNotFound)
	}

	file.Profiles = kept
	if file.Active == string(id) {
		file.Active = ""
	}

	return r.writeSchema(file)
}

// Active returns the selected profile, or an empty id when none was selected.
func (r *Repository) Active(ctx context.Context) (domain.ProfileID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return "", err
	}

	return domain.ProfileID(file.Active), nil
}

func (r *Repository) SetActive(ctx context.Context, id domain.ProfileID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	known := false
	for _, entry := range file.Profiles {
		if entry.ID == string(id) {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("profile %q: %w", id, domain.ErrProfileNotFound)
	}

	file.Active = string(id)
	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.profilesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := fileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read profiles file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode profiles file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	dir := filepath.Dir(r.profilesPath)
	if err := os.MkdirAll(dir, profilesDirMode); err != nil {
		return fmt.Errorf("create profiles directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode profiles file: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp profiles file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp profiles file: %w", err)
	}
	if err := tempFile.Chmod(profilesFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp profiles file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp profiles file: %w", err)
	}
	if err := os.Rename(tempName, r.profilesPath); err != nil {
		return fmt.Errorf("replace profiles file: %w", err)
	}
	cleanup = false

	return nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve profiles path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(profile domain.Profile) profileSchema {
	return profileSchema{
		ID:          string(profile.ID),
		BaseURL:     profile.BaseURL,
		Email:       profile.Email,
		Role:        string(profile.Role),
		LastLoginAt: formatTime(profile.LastLoginAt),
	}
}

func fromSchema(entry profileSchema) domain.Profile {
	return domain.Profile{
		ID:          domain.ProfileID(entry.ID),
		BaseURL:     entry.BaseURL,
		Email:       entry.Email,
		Role:        domain.Role(entry.Role),
		LastLoginAt: parseTime(entry.LastLoginAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
