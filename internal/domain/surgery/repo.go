package surgery

import (
	"context"

	"github.com/google/uuid"
)

type SurgeryRepository interface {
	Create(ctx context.Context, s *Surgery) error
	GetByID(ctx context.Context, id uuid.UUID) (*Surgery, error)
	ListByConsult(ctx context.Context, consultID uuid.UUID) ([]*Surgery, error)
	ExistsForConsult(ctx context.Context, consultID uuid.UUID) (bool, error)

	AddTeamMember(ctx context.Context, m *TeamMember) error
	ListTeam(ctx context.Context, surgeryID uuid.UUID) ([]*TeamMember, error)
}
