package pharmacy

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/backoffice/internal/platform/apperr"
	"github.com/hospital/backoffice/internal/platform/db"
	"github.com/hospital/backoffice/internal/platform/query"
)

// =========== Medicine Repository ===========

type medicineRepoPG struct{ pool *pgxpool.Pool }

func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository { return &medicineRepoPG{pool: pool} }

func (r *medicineRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const medicineCols = `id, name, price, cost, stock, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Price, &m.Cost, &m.Stock, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medicine (id, name, price, cost, stock)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		m.ID, m.Name, m.Price, m.Cost, m.Stock).
		Scan(&m.CreatedAt, &m.UpdatedAt)
	return apperr.FromPG(err, "medicine "+m.Name)
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	m, err := scanMedicine(r.conn(ctx).QueryRow(ctx, `SELECT `+medicineCols+` FROM medicine WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "medicine "+id.String())
	}
	return m, nil
}

func (r *medicineRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	m, err := scanMedicine(r.conn(ctx).QueryRow(ctx, `SELECT `+medicineCols+` FROM medicine WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "medicine "+id.String())
	}
	return m, nil
}

func (r *medicineRepoPG) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE medicine SET stock=$2, updated_at=NOW() WHERE id = $1`, id, stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medicine %s", id)
	}
	return nil
}

func (r *medicineRepoPG) List(ctx context.Context, name string, limit, offset int) ([]*Medicine, int, error) {
	qb := query.NewSearchQuery("medicine", medicineCols)
	if name != "" {
		qb.AddContains("name", name)
	}
	qb.OrderBy("name")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

// =========== Sale Repository ===========

type saleRepoPG struct{ pool *pgxpool.Pool }

func NewSaleRepoPG(pool *pgxpool.Pool) SaleRepository { return &saleRepoPG{pool: pool} }

func (r *saleRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const saleCols = `id, medicine_id, consult_id, employee_id, quantity, price, medicine_cost, sold_at`

func (r *saleRepoPG) Create(ctx context.Context, s *SaleMedicine) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO sale_medicine (id, medicine_id, consult_id, employee_id, quantity, price, medicine_cost)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING sold_at`,
		s.ID, s.MedicineID, s.ConsultID, s.EmployeeID, s.Quantity, s.Price, s.MedicineCost).
		Scan(&s.SoldAt)
	return apperr.FromPG(err, "medicine sale")
}

func (r *saleRepoPG) ListByConsult(ctx context.Context, consultID uuid.UUID) ([]*SaleMedicine, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+saleCols+` FROM sale_medicine
		WHERE consult_id = $1
		ORDER BY sold_at`, consultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*SaleMedicine
	for rows.Next() {
		var s SaleMedicine
		if err := rows.Scan(&s.ID, &s.MedicineID, &s.ConsultID, &s.EmployeeID, &s.Quantity,
			&s.Price, &s.MedicineCost, &s.SoldAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

func (r *saleRepoPG) ExistsForConsult(ctx context.Context, consultID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sale_medicine WHERE consult_id = $1)`, consultID).Scan(&exists)
	return exists, err
}
