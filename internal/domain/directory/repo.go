package directory

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository returns apperr.ErrNotFound for unknown ids.
type PatientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
}

// EmployeeRepository returns apperr.ErrNotFound for unknown ids.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Employee, error)
}
