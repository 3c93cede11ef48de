package room

import (
	"context"

	"github.com/google/uuid"
)

// Repositories return apperr.ErrNotFound for missing rows and
// apperr.ErrDuplicate for unique violations.

type RoomRepository interface {
	Create(ctx context.Context, r *Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*Room, error)
	// GetForUpdate locks the room row until the unit of work ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Room, error)
	GetByNumber(ctx context.Context, number string) (*Room, error)
	// Update writes number and prices only.
	Update(ctx context.Context, r *Room) error
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	List(ctx context.Context, status *Status, limit, offset int) ([]*Room, int, error)
}

type UsageRepository interface {
	Create(ctx context.Context, u *Usage) error
	GetByConsult(ctx context.Context, consultID uuid.UUID) (*Usage, error)
	// GetByConsultForUpdate locks the usage row until the unit of work ends.
	GetByConsultForUpdate(ctx context.Context, consultID uuid.UUID) (*Usage, error)
	// Close persists UsageDays and ClosedAt.
	Close(ctx context.Context, u *Usage) error
}
