package consult

import (
	"strings"

	"github.com/google/uuid"

	"github.com/hospital/backoffice/internal/domain/directory"
	"github.com/hospital/backoffice/internal/platform/query"
)

// Consult list queries run over this join; predicates reference its aliases.
const (
	listTable = "consult c JOIN patient p ON p.id = c.patient_id"

	employeeExists = "SELECT 1 FROM employee_consult ec JOIN employee e ON e.id = ec.employee_id WHERE ec.consult_id = c.id AND "
)

// Predicate is one composable consult constraint. It renders into a
// query.SearchQuery and evaluates against a Record in memory. The zero
// value matches everything.
type Predicate struct {
	apply func(q *query.SearchQuery)
	match func(r Record) bool
}

// All is the predicate without constraint.
func All() Predicate { return Predicate{} }

// Apply adds the predicate's clauses to q.
func (p Predicate) Apply(q *query.SearchQuery) {
	if p.apply != nil {
		p.apply(q)
	}
}

// Match reports whether r satisfies the predicate.
func (p Predicate) Match(r Record) bool {
	return p.match == nil || p.match(r)
}

// And is satisfied when every predicate is.
func And(ps ...Predicate) Predicate {
	return Predicate{
		apply: func(q *query.SearchQuery) {
			for _, p := range ps {
				p.Apply(q)
			}
		},
		match: func(r Record) bool {
			for _, p := range ps {
				if !p.Match(r) {
					return false
				}
			}
			return true
		},
	}
}

func HasID(id *uuid.UUID) Predicate {
	if id == nil {
		return All()
	}
	v := *id
	return Predicate{
		apply: func(q *query.SearchQuery) { q.AddEquals("c.id", v) },
		match: func(r Record) bool { return r.Consult != nil && r.Consult.ID == v },
	}
}

func IsPaid(paid *bool) Predicate {
	if paid == nil {
		return All()
	}
	v := *paid
	return Predicate{
		apply: func(q *query.SearchQuery) { q.AddEquals("c.is_paid", v) },
		match: func(r Record) bool { return r.Consult != nil && r.Consult.IsPaid == v },
	}
}

func IsInpatient(inpatient *bool) Predicate {
	if inpatient == nil {
		return All()
	}
	v := *inpatient
	return Predicate{
		apply: func(q *query.SearchQuery) { q.AddEquals("c.is_inpatient", v) },
		match: func(r Record) bool { return r.Consult != nil && r.Consult.IsInpatient == v },
	}
}

func HasPatientDPI(dpi *string) Predicate {
	return patientContains("p.dpi", dpi, func(p *directory.Patient) string { return p.DPI })
}

func HasPatientFirstNames(names *string) Predicate {
	return patientContains("p.first_names", names, func(p *directory.Patient) string { return p.FirstNames })
}

func HasPatientLastNames(names *string) Predicate {
	return patientContains("p.last_names", names, func(p *directory.Patient) string { return p.LastNames })
}

func HasEmployeeID(id *uuid.UUID) Predicate {
	if id == nil {
		return All()
	}
	v := *id
	return Predicate{
		apply: func(q *query.SearchQuery) { q.AddExists(employeeExists+"ec.employee_id = $%d", v) },
		match: func(r Record) bool {
			return anyEmployee(r, func(e *directory.Employee) bool { return e.ID == v })
		},
	}
}

func HasEmployeeFirstName(name *string) Predicate {
	return employeeContains("e.first_name", name, func(e *directory.Employee) string { return e.FirstName })
}

func HasEmployeeLastName(name *string) Predicate {
	return employeeContains("e.last_name", name, func(e *directory.Employee) string { return e.LastName })
}

func patientContains(column string, value *string, field func(*directory.Patient) string) Predicate {
	v, ok := fragment(value)
	if !ok {
		return All()
	}
	return Predicate{
		apply: func(q *query.SearchQuery) { q.AddContains(column, v) },
		match: func(r Record) bool { return r.Patient != nil && containsFold(field(r.Patient), v) },
	}
}

func employeeContains(column string, value *string, field func(*directory.Employee) string) Predicate {
	v, ok := fragment(value)
	if !ok {
		return All()
	}
	return Predicate{
		apply: func(q *query.SearchQuery) {
			q.AddExists(employeeExists+column+" ILIKE $%d", "%"+query.EscapeLike(v)+"%")
		},
		match: func(r Record) bool {
			return anyEmployee(r, func(e *directory.Employee) bool { return containsFold(field(e), v) })
		},
	}
}

func fragment(value *string) (string, bool) {
	if value == nil {
		return "", false
	}
	v := strings.TrimSpace(*value)
	return v, v != ""
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func anyEmployee(r Record, pred func(*directory.Employee) bool) bool {
	for _, e := range r.Employees {
		if e != nil && pred(e) {
			return true
		}
	}
	return false
}

// Filter is the query-string form of a consult search. Nil fields do not
// constrain.
type Filter struct {
	ID                *uuid.UUID
	IsPaid            *bool
	IsInpatient       *bool
	PatientDPI        *string
	PatientFirstNames *string
	PatientLastNames  *string
	EmployeeID        *uuid.UUID
	EmployeeFirstName *string
	EmployeeLastName  *string
}

func (f Filter) Predicate() Predicate {
	return And(
		HasID(f.ID),
		IsPaid(f.IsPaid),
		IsInpatient(f.IsInpatient),
		HasPatientDPI(f.PatientDPI),
		HasPatientFirstNames(f.PatientFirstNames),
		HasPatientLastNames(f.PatientLastNames),
		HasEmployeeID(f.EmployeeID),
		HasEmployeeFirstName(f.EmployeeFirstName),
		HasEmployeeLastName(f.EmployeeLastName),
	)
}
