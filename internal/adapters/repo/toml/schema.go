package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Active   string          `toml:"active,omitempty"`
	Profiles []profileSchema `toml:"profiles"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported profiles schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type profileSchema struct {
	ID          string `toml:"id"`
	BaseURL     string `toml:"base_url,omitempty"`
	Email       string `toml:"email,omitempty"`
	Role        string `toml:"role,omitempty"`
	LastLoginAt string `toml:"last_login_at,omitempty"`
}
