package room

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backoffice/internal/domain/finance"
)

type Status string

const (
	StatusAvailable    Status = "AVAILABLE"
	StatusOccupied     Status = "OCCUPIED"
	StatusOutOfService Status = "OUT_OF_SERVICE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusOutOfService:
		return true
	}
	return false
}

type Room struct {
	ID                   uuid.UUID       `db:"id" json:"id"`
	Number               string          `db:"number" json:"number"`
	DailyPrice           decimal.Decimal `db:"daily_price" json:"daily_price"`
	DailyMaintenanceCost decimal.Decimal `db:"daily_maintenance_cost" json:"daily_maintenance_cost"`
	Status               Status          `db:"status" json:"status"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

// Patch carries the mutable catalogue fields; nil leaves a field unchanged.
type Patch struct {
	Number               *string          `json:"number,omitempty"`
	DailyPrice           *decimal.Decimal `json:"daily_price,omitempty"`
	DailyMaintenanceCost *decimal.Decimal `json:"daily_maintenance_cost,omitempty"`
}

// Usage records one consult's stay in a room. Prices are copied from the
// room at assignment so later catalogue edits do not reprice the stay.
type Usage struct {
	ID                       uuid.UUID       `db:"id" json:"id"`
	ConsultID                uuid.UUID       `db:"consult_id" json:"consult_id"`
	RoomID                   uuid.UUID       `db:"room_id" json:"room_id"`
	UsageDays                int             `db:"usage_days" json:"usage_days"`
	DailyRoomPrice           decimal.Decimal `db:"daily_room_price" json:"daily_room_price"`
	DailyRoomMaintenanceCost decimal.Decimal `db:"daily_room_maintenance_cost" json:"daily_room_maintenance_cost"`
	StartedAt                time.Time       `db:"started_at" json:"started_at"`
	ClosedAt                 *time.Time      `db:"closed_at" json:"closed_at,omitempty"`
}

func (u *Usage) IsOpen() bool { return u.ClosedAt == nil }

// Calculator bills price*days and costs maintenance*days.
var Calculator = finance.NewCalculator(func(u Usage) (decimal.Decimal, decimal.Decimal) {
	days := decimal.NewFromInt(int64(u.UsageDays))
	return u.DailyRoomPrice.Mul(days), u.DailyRoomMaintenanceCost.Mul(days)
})

// StayDays counts the calendar dates touched by [start, end] in loc, both
// ends included, with a minimum of 1. A stay opened and closed on the same
// date is one day; the 1st through the 3rd is three.
func StayDays(start, end time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	sy, sm, sd := start.In(loc).Date()
	ey, em, ed := end.In(loc).Date()
	from := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	to := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)

	days := int(to.Sub(from).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}
