package directory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/backoffice/internal/platform/apperr"
	"github.com/hospital/backoffice/internal/platform/db"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, dpi, first_names, last_names FROM patient WHERE id = $1`, id).
		Scan(&p.ID, &p.DPI, &p.FirstNames, &p.LastNames)
	if err != nil {
		return nil, apperr.FromPG(err, "patient "+id.String())
	}
	return &p, nil
}

type employeeRepoPG struct{ pool *pgxpool.Pool }

func NewEmployeeRepoPG(pool *pgxpool.Pool) EmployeeRepository { return &employeeRepoPG{pool: pool} }

func (r *employeeRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName)
	return &e, err
}

func (r *employeeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	e, err := scanEmployee(r.conn(ctx).QueryRow(ctx,
		`SELECT id, first_name, last_name FROM employee WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "employee "+id.String())
	}
	return e, nil
}

func (r *employeeRepoPG) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Employee, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, first_name, last_name FROM employee WHERE id = ANY($1) ORDER BY last_name, first_name`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
