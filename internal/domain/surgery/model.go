package surgery

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backoffice/internal/domain/finance"
)

// RolePerformer marks the employee who registered and performed the surgery.
const RolePerformer = "performer"

// Surgery maps to the surgery table. SurgeryCost is billed to the patient,
// HospitalCost is the internal cost.
type Surgery struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ConsultID    uuid.UUID       `db:"consult_id" json:"consult_id"`
	Description  string          `db:"description" json:"description"`
	SurgeryCost  decimal.Decimal `db:"surgery_cost" json:"surgery_cost"`
	HospitalCost decimal.Decimal `db:"hospital_cost" json:"hospital_cost"`
	PerformedAt  time.Time       `db:"performed_at" json:"performed_at"`
	CreatedBy    uuid.UUID       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// TeamMember maps to the surgery_employee table.
type TeamMember struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SurgeryID  uuid.UUID `db:"surgery_id" json:"surgery_id"`
	EmployeeID uuid.UUID `db:"employee_id" json:"employee_id"`
	Role       string    `db:"role" json:"role"`
}

var Calculator = finance.NewCalculator(func(s Surgery) (decimal.Decimal, decimal.Decimal) {
	return s.SurgeryCost, s.HospitalCost
})
