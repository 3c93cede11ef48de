package consult

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/backoffice/internal/platform/apperr"
	"github.com/hospital/backoffice/internal/platform/db"
	"github.com/hospital/backoffice/internal/platform/query"
)

type consultRepoPG struct{ pool *pgxpool.Pool }

func NewConsultRepoPG(pool *pgxpool.Pool) ConsultRepository { return &consultRepoPG{pool: pool} }

func (r *consultRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const consultCols = `c.id, c.patient_id, c.is_inpatient, c.consultation_fee, c.total_cost, c.is_paid, c.paid_at, c.created_by, c.created_at, c.updated_at`

func scanConsult(row pgx.Row) (*Consult, error) {
	var c Consult
	err := row.Scan(&c.ID, &c.PatientID, &c.IsInpatient, &c.ConsultationFee, &c.TotalCost,
		&c.IsPaid, &c.PaidAt, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *consultRepoPG) Create(ctx context.Context, c *Consult) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consult (id, patient_id, is_inpatient, consultation_fee, total_cost, is_paid, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		c.ID, c.PatientID, c.IsInpatient, c.ConsultationFee, c.TotalCost, c.IsPaid, c.CreatedBy).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	return apperr.FromPG(err, "consult")
}

func (r *consultRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consult, error) {
	c, err := scanConsult(r.conn(ctx).QueryRow(ctx, `SELECT `+consultCols+` FROM consult c WHERE c.id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "consult "+id.String())
	}
	return c, nil
}

func (r *consultRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Consult, error) {
	c, err := scanConsult(r.conn(ctx).QueryRow(ctx, `SELECT `+consultCols+` FROM consult c WHERE c.id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "consult "+id.String())
	}
	return c, nil
}

func (r *consultRepoPG) Update(ctx context.Context, c *Consult) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE consult SET patient_id=$2, is_inpatient=$3, consultation_fee=$4, total_cost=$5, updated_at=NOW()
		WHERE id = $1 AND NOT is_paid
		RETURNING updated_at`,
		c.ID, c.PatientID, c.IsInpatient, c.ConsultationFee, c.TotalCost).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.IllegalState("consult %s is paid or missing", c.ID)
	}
	return apperr.FromPG(err, "consult "+c.ID.String())
}

func (r *consultRepoPG) MarkPaid(ctx context.Context, c *Consult) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE consult SET total_cost=$2, is_paid=TRUE, paid_at=$3, updated_at=NOW()
		WHERE id = $1 AND NOT is_paid
		RETURNING updated_at`,
		c.ID, c.TotalCost, c.PaidAt).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.IllegalState("consult %s is already paid", c.ID)
	}
	return apperr.FromPG(err, "consult "+c.ID.String())
}

func (r *consultRepoPG) List(ctx context.Context, p Predicate, limit, offset int) ([]*Consult, int, error) {
	qb := query.NewSearchQuery(listTable, consultCols)
	p.Apply(qb)
	qb.OrderBy("c.created_at DESC, c.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Consult
	for rows.Next() {
		c, err := scanConsult(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *consultRepoPG) AddEmployee(ctx context.Context, ec *EmployeeConsult) error {
	ec.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO employee_consult (id, consult_id, employee_id)
		VALUES ($1,$2,$3)
		RETURNING assigned_at`,
		ec.ID, ec.ConsultID, ec.EmployeeID).Scan(&ec.AssignedAt)
	return apperr.FromPG(err, "employee "+ec.EmployeeID.String()+" on consult "+ec.ConsultID.String())
}

func (r *consultRepoPG) ListEmployees(ctx context.Context, consultID uuid.UUID) ([]*EmployeeConsult, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, consult_id, employee_id, assigned_at FROM employee_consult
		WHERE consult_id = $1
		ORDER BY assigned_at`, consultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*EmployeeConsult
	for rows.Next() {
		var ec EmployeeConsult
		if err := rows.Scan(&ec.ID, &ec.ConsultID, &ec.EmployeeID, &ec.AssignedAt); err != nil {
			return nil, err
		}
		items = append(items, &ec)
	}
	return items, rows.Err()
}
