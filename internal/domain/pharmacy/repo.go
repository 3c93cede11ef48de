package pharmacy

import (
	"context"

	"github.com/google/uuid"
)

type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	// GetForUpdate locks the medicine row until the unit of work ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Medicine, error)
	SetStock(ctx context.Context, id uuid.UUID, stock int) error
	// List filters by a case-insensitive name fragment when name is non-empty.
	List(ctx context.Context, name string, limit, offset int) ([]*Medicine, int, error)
}

type SaleRepository interface {
	Create(ctx context.Context, s *SaleMedicine) error
	ListByConsult(ctx context.Context, consultID uuid.UUID) ([]*SaleMedicine, error)
	ExistsForConsult(ctx context.Context, consultID uuid.UUID) (bool, error)
}
