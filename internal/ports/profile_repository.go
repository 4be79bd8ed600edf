package ports

import (
	"context"

	"github.com/waselni/waselni-cli/internal/domain"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id domain.ProfileID) (domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	Save(ctx context.Context, profile domain.Profile) error
	Delete(ctx context.Context, id domain.ProfileID) error
	Active(ctx context.Context) (domain.ProfileID, error)
	SetActive(ctx context.Context, id domain.ProfileID) error
}
