// Package directory reads the patient and employee records owned by the
// administrative back office. Billing never writes them.
package directory

import (
	"strings"

	"github.com/google/uuid"
)

type Patient struct {
	ID         uuid.UUID `db:"id" json:"id"`
	DPI        string    `db:"dpi" json:"dpi"`
	FirstNames string    `db:"first_names" json:"first_names"`
	LastNames  string    `db:"last_names" json:"last_names"`
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstNames + " " + p.LastNames)
}

type Employee struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
}

func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}
