package pharmacy

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hospital/backoffice/internal/domain/finance"
	"github.com/hospital/backoffice/internal/platform/apperr"
	"github.com/hospital/backoffice/internal/platform/db"
)

// ConsultGuard reports NotFound for an unknown consult and IllegalState for a
// paid one. Called inside the sale's unit of work.
type ConsultGuard interface {
	EnsureOpen(ctx context.Context, consultID uuid.UUID) error
}

// Recorder counts dispensed units per channel.
type Recorder interface {
	MedicineSold(channel string, quantity int)
}

type Service struct {
	medicines MedicineRepository
	sales     SaleRepository
	tx        db.TxRunner
	guard     ConsultGuard
	recorder  Recorder
	logger    zerolog.Logger
}

func NewService(medicines MedicineRepository, sales SaleRepository, tx db.TxRunner) *Service {
	return &Service{medicines: medicines, sales: sales, tx: tx, logger: zerolog.Nop()}
}

func (s *Service) SetConsultGuard(g ConsultGuard) { s.guard = g }
func (s *Service) SetRecorder(r Recorder) { s.recorder = r }
func (s *Service) SetLogger(l zerolog.Logger) { s.logger = l }

// -- Catalogue --

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return apperr.Validation("name is required")
	}
	if m.Price.IsNegative() {
		return apperr.Validation("price must be >= 0")
	}
	if m.Cost.IsNegative() {
		return apperr.Validation("cost must be >= 0")
	}
	if m.Stock < 0 {
		return apperr.Validation("stock must be >= 0")
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) ListMedicines(ctx context.Context, name string, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.List(ctx, strings.TrimSpace(name), limit, offset)
}

// -- Sales --

// CreateFor charges qty units of a medicine to an open consult.
func (s *Service) CreateFor(ctx context.Context, consultID, medicineID uuid.UUID, qty int, employeeID uuid.UUID) (*SaleMedicine, error) {
	if s.guard == nil {
		return nil, errors.New("pharmacy: consult guard not configured")
	}
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be > 0")
	}

	var sale *SaleMedicine
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.guard.EnsureOpen(ctx, consultID); err != nil {
			return err
		}
		var err error
		sale, err = s.sell(ctx, medicineID, qty, &consultID, employeeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("consult_id", consultID.String()).Str("medicine_id", medicineID.String()).
		Int("quantity", qty).Msg("medicine charged to consult")
	return sale, nil
}

// CreateCounterSale sells over the counter, outside any consult.
func (s *Service) CreateCounterSale(ctx context.Context, medicineID uuid.UUID, qty int, employeeID uuid.UUID) (*SaleMedicine, error) {
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be > 0")
	}

	var sale *SaleMedicine
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.sell(ctx, medicineID, qty, nil, employeeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Service) sell(ctx context.Context, medicineID uuid.UUID, qty int, consultID *uuid.UUID, employeeID uuid.UUID) (*SaleMedicine, error) {
	m, err := s.medicines.GetForUpdate(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	if m.Stock < qty {
		return nil, apperr.IllegalState("insufficient stock for %s: %d available, %d requested", m.Name, m.Stock, qty)
	}
	if err := s.medicines.SetStock(ctx, m.ID, m.Stock-qty); err != nil {
		return nil, err
	}

	sale := &SaleMedicine{
		MedicineID:   m.ID,
		ConsultID:    consultID,
		Quantity:     qty,
		Price:        m.Price,
		MedicineCost: m.Cost,
	}
	if employeeID != uuid.Nil {
		sale.EmployeeID = &employeeID
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		return nil, err
	}

	channel := ChannelCounter
	if consultID != nil {
		channel = ChannelConsult
	}
	db.AfterCommit(ctx, func() {
		if s.recorder != nil {
			s.recorder.MedicineSold(channel, qty)
		}
	})
	return sale, nil
}

func (s *Service) FindByConsultID(ctx context.Context, consultID uuid.UUID) ([]*SaleMedicine, error) {
	return s.sales.ListByConsult(ctx, consultID)
}

func (s *Service) TotalByConsult(ctx context.Context, consultID uuid.UUID) (finance.Summary, error) {
	items, err := s.sales.ListByConsult(ctx, consultID)
	if err != nil {
		return finance.Summary{}, err
	}
	sales := make([]SaleMedicine, 0, len(items))
	for _, it := range items {
		sales = append(sales, *it)
	}
	return Calculator.SummarizeAll(sales), nil
}

func (s *Service) ConsultHasMedicines(ctx context.Context, consultID uuid.UUID) (bool, error) {
	return s.sales.ExistsForConsult(ctx, consultID)
}
