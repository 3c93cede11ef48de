package surgery

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/backoffice/internal/platform/apperr"
	"github.com/hospital/backoffice/internal/platform/db"
)

type surgeryRepoPG struct{ pool *pgxpool.Pool }

func NewSurgeryRepoPG(pool *pgxpool.Pool) SurgeryRepository { return &surgeryRepoPG{pool: pool} }

func (r *surgeryRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const surgeryCols = `id, consult_id, description, surgery_cost, hospital_cost, performed_at, created_by, created_at`

func (r *surgeryRepoPG) scanSurgery(row pgx.Row) (*Surgery, error) {
	var s Surgery
	err := row.Scan(&s.ID, &s.ConsultID, &s.Description, &s.SurgeryCost, &s.HospitalCost,
		&s.PerformedAt, &s.CreatedBy, &s.CreatedAt)
	return &s, err
}

func (r *surgeryRepoPG) Create(ctx context.Context, s *Surgery) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO surgery (id, consult_id, description, surgery_cost, hospital_cost, performed_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		s.ID, s.ConsultID, s.Description, s.SurgeryCost, s.HospitalCost, s.PerformedAt, s.CreatedBy).
		Scan(&s.CreatedAt)
	return apperr.FromPG(err, "surgery")
}

func (r *surgeryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Surgery, error) {
	s, err := r.scanSurgery(r.conn(ctx).QueryRow(ctx, `SELECT `+surgeryCols+` FROM surgery WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "surgery "+id.String())
	}
	return s, nil
}

func (r *surgeryRepoPG) ListByConsult(ctx context.Context, consultID uuid.UUID) ([]*Surgery, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+surgeryCols+` FROM surgery
		WHERE consult_id = $1
		ORDER BY performed_at`, consultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Surgery
	for rows.Next() {
		s, err := r.scanSurgery(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *surgeryRepoPG) ExistsForConsult(ctx context.Context, consultID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM surgery WHERE consult_id = $1)`, consultID).Scan(&exists)
	return exists, err
}

func (r *surgeryRepoPG) AddTeamMember(ctx context.Context, m *TeamMember) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO surgery_employee (id, surgery_id, employee_id, role)
		VALUES ($1,$2,$3,$4)`,
		m.ID, m.SurgeryID, m.EmployeeID, m.Role)
	return apperr.FromPG(err, "surgery team member "+m.EmployeeID.String())
}

func (r *surgeryRepoPG) ListTeam(ctx context.Context, surgeryID uuid.UUID) ([]*TeamMember, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, surgery_id, employee_id, role FROM surgery_employee
		WHERE surgery_id = $1
		ORDER BY role, employee_id`, surgeryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*TeamMember
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.ID, &m.SurgeryID, &m.EmployeeID, &m.Role); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}
