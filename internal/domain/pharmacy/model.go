package pharmacy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/backoffice/internal/domain/finance"
)

// Medicine is a catalogue entry. Price is what the patient pays per unit,
// Cost what the hospital paid for it.
type Medicine struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Cost      decimal.Decimal `db:"cost" json:"cost"`
	Stock     int             `db:"stock" json:"stock"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Sale channels, used as the metrics label.
const (
	ChannelConsult = "consult"
	ChannelCounter = "counter"
)

// SaleMedicine is one dispensing line. A nil ConsultID is a counter sale.
// Price and MedicineCost are unit values copied from the catalogue at sale
// time.
type SaleMedicine struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	MedicineID   uuid.UUID       `db:"medicine_id" json:"medicine_id"`
	ConsultID    *uuid.UUID      `db:"consult_id" json:"consult_id,omitempty"`
	EmployeeID   *uuid.UUID      `db:"employee_id" json:"employee_id,omitempty"`
	Quantity     int             `db:"quantity" json:"quantity"`
	Price        decimal.Decimal `db:"price" json:"price"`
	MedicineCost decimal.Decimal `db:"medicine_cost" json:"medicine_cost"`
	SoldAt       time.Time       `db:"sold_at" json:"sold_at"`
}

func (s SaleMedicine) Total() decimal.Decimal {
	return s.Price.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

func (s SaleMedicine) Profit() decimal.Decimal {
	return s.Total().Sub(s.MedicineCost.Mul(decimal.NewFromInt(int64(s.Quantity))))
}

var Calculator = finance.NewCalculator(func(s SaleMedicine) (decimal.Decimal, decimal.Decimal) {
	qty := decimal.NewFromInt(int64(s.Quantity))
	return s.Price.Mul(qty), s.MedicineCost.Mul(qty)
})
