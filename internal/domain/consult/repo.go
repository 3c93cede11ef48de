package consult

import (
	"context"

	"github.com/google/uuid"
)

type ConsultRepository interface {
	Create(ctx context.Context, c *Consult) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consult, error)
	// GetForUpdate locks the consult row until the unit of work ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Consult, error)
	// Update writes patient, inpatient flag, fee and TotalCost.
	Update(ctx context.Context, c *Consult) error
	// MarkPaid freezes TotalCost and sets IsPaid/PaidAt. It fails with
	// IllegalState when the row is already paid.
	MarkPaid(ctx context.Context, c *Consult) error
	List(ctx context.Context, p Predicate, limit, offset int) ([]*Consult, int, error)

	AddEmployee(ctx context.Context, ec *EmployeeConsult) error
	ListEmployees(ctx context.Context, consultID uuid.UUID) ([]*EmployeeConsult, error)
}
