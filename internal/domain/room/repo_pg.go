package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/backoffice/internal/platform/apperr"
	"github.com/hospital/backoffice/internal/platform/db"
	"github.com/hospital/backoffice/internal/platform/query"
)

// =========== Room Repository ===========

type roomRepoPG struct{ pool *pgxpool.Pool }

func NewRoomRepoPG(pool *pgxpool.Pool) RoomRepository { return &roomRepoPG{pool: pool} }

func (r *roomRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const roomCols = `id, number, daily_price, daily_maintenance_cost, status, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	var m Room
	err := row.Scan(&m.ID, &m.Number, &m.DailyPrice, &m.DailyMaintenanceCost, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *roomRepoPG) Create(ctx context.Context, m *Room) error {
	m.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO room (id, number, daily_price, daily_maintenance_cost, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		m.ID, m.Number, m.DailyPrice, m.DailyMaintenanceCost, m.Status).
		Scan(&m.CreatedAt, &m.UpdatedAt)
	return apperr.FromPG(err, "room number "+m.Number)
}

func (r *roomRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	m, err := scanRoom(r.conn(ctx).QueryRow(ctx, `SELECT `+roomCols+` FROM room WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "room "+id.String())
	}
	return m, nil
}

func (r *roomRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Room, error) {
	m, err := scanRoom(r.conn(ctx).QueryRow(ctx, `SELECT `+roomCols+` FROM room WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "room "+id.String())
	}
	return m, nil
}

func (r *roomRepoPG) GetByNumber(ctx context.Context, number string) (*Room, error) {
	m, err := scanRoom(r.conn(ctx).QueryRow(ctx, `SELECT `+roomCols+` FROM room WHERE number = $1`, number))
	if err != nil {
		return nil, apperr.FromPG(err, "room number "+number)
	}
	return m, nil
}

func (r *roomRepoPG) Update(ctx context.Context, m *Room) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE room SET number=$2, daily_price=$3, daily_maintenance_cost=$4, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		m.ID, m.Number, m.DailyPrice, m.DailyMaintenanceCost).Scan(&m.UpdatedAt)
	return apperr.FromPG(err, "room "+m.ID.String())
}

func (r *roomRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE room SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("room %s", id)
	}
	return nil
}

func (r *roomRepoPG) List(ctx context.Context, status *Status, limit, offset int) ([]*Room, int, error) {
	qb := query.NewSearchQuery("room", roomCols)
	if status != nil {
		qb.AddEquals("status", *status)
	}
	qb.OrderBy("number")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Room
	for rows.Next() {
		m, err := scanRoom(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

// =========== Usage Repository ===========

type usageRepoPG struct{ pool *pgxpool.Pool }

func NewUsageRepoPG(pool *pgxpool.Pool) UsageRepository { return &usageRepoPG{pool: pool} }

func (r *usageRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const usageCols = `id, consult_id, room_id, usage_days, daily_room_price, daily_room_maintenance_cost, started_at, closed_at`

func scanUsage(row pgx.Row) (*Usage, error) {
	var u Usage
	err := row.Scan(&u.ID, &u.ConsultID, &u.RoomID, &u.UsageDays, &u.DailyRoomPrice,
		&u.DailyRoomMaintenanceCost, &u.StartedAt, &u.ClosedAt)
	return &u, err
}

func (r *usageRepoPG) Create(ctx context.Context, u *Usage) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO room_usage (id, consult_id, room_id, usage_days, daily_room_price, daily_room_maintenance_cost, started_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.ConsultID, u.RoomID, u.UsageDays, u.DailyRoomPrice, u.DailyRoomMaintenanceCost, u.StartedAt)
	return apperr.FromPG(err, fmt.Sprintf("room usage for consult %s", u.ConsultID))
}

func (r *usageRepoPG) getByConsult(ctx context.Context, consultID uuid.UUID, lock bool) (*Usage, error) {
	sql := `SELECT ` + usageCols + ` FROM room_usage WHERE consult_id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	u, err := scanUsage(r.conn(ctx).QueryRow(ctx, sql, consultID))
	if err != nil {
		return nil, apperr.FromPG(err, "room usage for consult "+consultID.String())
	}
	return u, nil
}

func (r *usageRepoPG) GetByConsult(ctx context.Context, consultID uuid.UUID) (*Usage, error) {
	return r.getByConsult(ctx, consultID, false)
}

func (r *usageRepoPG) GetByConsultForUpdate(ctx context.Context, consultID uuid.UUID) (*Usage, error) {
	return r.getByConsult(ctx, consultID, true)
}

func (r *usageRepoPG) Close(ctx context.Context, u *Usage) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE room_usage SET usage_days=$2, closed_at=$3
		WHERE id = $1 AND closed_at IS NULL`,
		u.ID, u.UsageDays, u.ClosedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.IllegalState("room usage %s is already closed", u.ID)
	}
	return nil
}
