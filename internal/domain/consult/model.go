package consult

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backoffice/internal/domain/directory"
	"github.com/hospital/backoffice/internal/domain/finance"
)

type State string

const (
	StateOpenUnpaid State = "OPEN_UNPAID"
	StatePaid       State = "PAID"
)

// Consult is one patient visit. TotalCost equals ConsultationFee until
// payment, when it is frozen to the grand total.
type Consult struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	PatientID       uuid.UUID       `db:"patient_id" json:"patient_id"`
	IsInpatient     bool            `db:"is_inpatient" json:"is_inpatient"`
	ConsultationFee decimal.Decimal `db:"consultation_fee" json:"consultation_fee"`
	TotalCost       decimal.Decimal `db:"total_cost" json:"total_cost"`
	IsPaid          bool            `db:"is_paid" json:"is_paid"`
	PaidAt          *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedBy       uuid.UUID       `db:"created_by" json:"created_by"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

func (c *Consult) State() State {
	if c.IsPaid {
		return StatePaid
	}
	return StateOpenUnpaid
}

// EmployeeConsult maps to the employee_consult table.
type EmployeeConsult struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ConsultID  uuid.UUID `db:"consult_id" json:"consult_id"`
	EmployeeID uuid.UUID `db:"employee_id" json:"employee_id"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}

// Patch carries the editable fields; nil leaves a field unchanged.
type Patch struct {
	IsInpatient     *bool            `json:"is_inpatient,omitempty"`
	ConsultationFee *decimal.Decimal `json:"consultation_fee,omitempty"`
	PatientID       *uuid.UUID       `json:"patient_id,omitempty"`
}

// Breakdown is the payable total of a consult split by charge source.
type Breakdown struct {
	ConsultID    uuid.UUID       `json:"consult_id"`
	Consultation finance.Summary `json:"consultation"`
	Medicines    finance.Summary `json:"medicines"`
	Room         finance.Summary `json:"room"`
	Surgeries    finance.Summary `json:"surgeries"`
	Total        finance.Summary `json:"total"`
}

// Detail is a consult with its staff and the charge sources it has used.
type Detail struct {
	*Consult
	State        State              `json:"state"`
	Employees    []*EmployeeConsult `json:"employees"`
	HasMedicines bool               `json:"has_medicines"`
	HasSurgeries bool               `json:"has_surgeries"`
}

// Record is a consult joined with the patient and staff that list filters
// match against.
type Record struct {
	Consult   *Consult
	Patient   *directory.Patient
	Employees []*directory.Employee
}

func feeOf(c *Consult) finance.Summary {
	return finance.ConsultationFee.Summarize(c.ConsultationFee)
}
