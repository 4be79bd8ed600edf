package application

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/waselni/waselni-cli/internal/domain"
	"github.com/waselni/waselni-cli/internal/ports"
)

// ProfileService manages named profiles, each pairing a backend address with
// its own stored tokens.
type ProfileService struct {
	repo  ports.ProfileRepository
	store ports.SecretStore
	clock ports.Clock
}

func NewProfileService(repo ports.ProfileRepository, store ports.SecretStore, clock ports.Clock) *ProfileService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &ProfileService{repo: repo, store: store, clock: clock}
}

// Resolve picks the requested profile, else the active one, else the default.
// A profile that was never saved is returned with only its ID set.
func (s *ProfileService) Resolve(ctx context.Context, requested domain.ProfileID) (domain.Profile, error) {
	id := requested
	if id == "" {
		active, err := s.repo.Active(ctx)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("read active profile: %w", err)
		}
		id = active
	}
	if id == "" {
		id = domain.DefaultProfileID
	}

	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.Profile{ID: id}, nil
		}
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

func (s *ProfileService) List(ctx context.Context) ([]domain.Profile, domain.ProfileID, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list profiles: %w", err)
	}
	active, err := s.repo.Active(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("read active profile: %w", err)
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, active, nil
}

func (s *ProfileService) Use(ctx context.Context, id domain.ProfileID) error {
	if err := s.repo.SetActive(ctx, id); err != nil {
		return fmt.Errorf("use profile: %w", err)
	}
	return nil
}

// RecordLogin saves the profile with the identity that just authenticated.
// The first profile ever saved becomes the active one.
func (s *ProfileService) RecordLogin(ctx context.Context, profile domain.Profile, baseURL string, user domain.User) (domain.Profile, error) {
	profile.BaseURL = baseURL
	profile.Email = user.Email
	profile.Role = user.Role
	profile.LastLoginAt = s.clock.Now().UTC()

	if err := s.repo.Save(ctx, profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}

	active, err := s.repo.Active(ctx)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("read active profile: %w", err)
	}
	if active == "" {
		if err := s.repo.SetActive(ctx, profile.ID); err != nil {
			return domain.Profile{}, fmt.Errorf("activate profile: %w", err)
		}
	}

	return profile, nil
}

// Remove clears the profile's stored tokens, then deletes it.
func (s *ProfileService) Remove(ctx context.Context, id domain.ProfileID) error {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}

	if err := NewTokenVault(s.store, profile).Clear(ctx); err != nil {
		return fmt.Errorf("clear profile tokens: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	return nil
}
