package consult

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hospital/backoffice/internal/domain/directory"
	"github.com/hospital/backoffice/internal/domain/finance"
	"github.com/hospital/backoffice/internal/domain/room"
	"github.com/hospital/backoffice/internal/platform/apperr"
	"github.com/hospital/backoffice/internal/platform/db"
	"github.com/hospital/backoffice/internal/platform/websocket"
)

// RoomAllocator is the part of room.Service the engine drives.
type RoomAllocator interface {
	AssignRoomToConsult(ctx context.Context, roomID, consultID uuid.UUID) (*room.Usage, error)
	CloseRoomUsage(ctx context.Context, consultID uuid.UUID) (*room.Usage, error)
	FindUsageByConsult(ctx context.Context, consultID uuid.UUID) (*room.Usage, error)
	TotalByConsult(ctx context.Context, consultID uuid.UUID) (finance.Summary, error)
}

type MedicineLedger interface {
	TotalByConsult(ctx context.Context, consultID uuid.UUID) (finance.Summary, error)
	ConsultHasMedicines(ctx context.Context, consultID uuid.UUID) (bool, error)
}

type SurgeryLedger interface {
	TotalByConsult(ctx context.Context, consultID uuid.UUID) (finance.Summary, error)
	AllPerformedByConsult(ctx context.Context, consultID uuid.UUID) (bool, error)
}

type Recorder interface {
	ConsultCreated()
	ConsultPaid(total decimal.Decimal)
}

type EventPublisher interface {
	Publish(ctx context.Context, event websocket.Event) error
}

type Service struct {
	consults  ConsultRepository
	patients  directory.PatientRepository
	employees directory.EmployeeRepository
	rooms     RoomAllocator
	medicines MedicineLedger
	surgeries SurgeryLedger
	tx        db.TxRunner
	recorder  Recorder
	publisher EventPublisher
	now       func() time.Time
	logger    zerolog.Logger
}

func NewService(
	consults ConsultRepository,
	patients directory.PatientRepository,
	employees directory.EmployeeRepository,
	rooms RoomAllocator,
	medicines MedicineLedger,
	surgeries SurgeryLedger,
	tx db.TxRunner,
) *Service {
	return &Service{
		consults:  consults,
		patients:  patients,
		employees: employees,
		rooms:     rooms,
		medicines: medicines,
		surgeries: surgeries,
		tx:        tx,
		now:       time.Now,
		logger:    zerolog.Nop(),
	}
}

func (s *Service) SetRecorder(r Recorder) { s.recorder = r }
func (s *Service) SetPublisher(p EventPublisher) { s.publisher = p }
func (s *Service) SetClock(now func() time.Time) { s.now = now }
func (s *Service) SetLogger(l zerolog.Logger) { s.logger = l }

// Receipt is the result of a payment.
type Receipt struct {
	Consult   *Consult   `json:"consult"`
	Breakdown *Breakdown `json:"breakdown"`
}

// PaidEvent is the payload of a consult.paid event.
type PaidEvent struct {
	ConsultID uuid.UUID       `json:"consult_id"`
	Total     decimal.Decimal `json:"total"`
	PaidAt    time.Time       `json:"paid_at"`
}

// CreateConsult opens a consult for patientID with employeeID as the first
// assigned staff member.
func (s *Service) CreateConsult(ctx context.Context, patientID, employeeID uuid.UUID, fee decimal.Decimal) (*Consult, error) {
	if !fee.IsPositive() {
		return nil, apperr.Validation("consultation_fee must be > 0")
	}

	c := &Consult{
		PatientID:       patientID,
		ConsultationFee: fee,
		TotalCost:       fee,
		CreatedBy:       employeeID,
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.patients.GetByID(ctx, patientID); err != nil {
			return err
		}
		if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
			return err
		}
		if err := s.consults.Create(ctx, c); err != nil {
			return err
		}
		if err := s.consults.AddEmployee(ctx, &EmployeeConsult{ConsultID: c.ID, EmployeeID: employeeID}); err != nil {
			return err
		}
		db.AfterCommit(ctx, func() {
			if s.recorder != nil {
				s.recorder.ConsultCreated()
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("consult_id", c.ID.String()).Str("patient_id", patientID.String()).Msg("consult created")
	return c, nil
}

// UpdateConsult applies the non-nil fields of patch to an unpaid consult.
func (s *Service) UpdateConsult(ctx context.Context, id uuid.UUID, patch Patch) (*Consult, error) {
	var updated *Consult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.lockOpen(ctx, id)
		if err != nil {
			return err
		}

		if patch.ConsultationFee != nil {
			if !patch.ConsultationFee.IsPositive() {
				return apperr.Validation("consultation_fee must be > 0")
			}
			c.ConsultationFee = *patch.ConsultationFee
			c.TotalCost = c.ConsultationFee
		}
		if patch.PatientID != nil {
			if _, err := s.patients.GetByID(ctx, *patch.PatientID); err != nil {
				return err
			}
			c.PatientID = *patch.PatientID
		}
		if patch.IsInpatient != nil {
			if c.IsInpatient && !*patch.IsInpatient {
				open, err := s.hasOpenRoom(ctx, id)
				if err != nil {
					return err
				}
				if open {
					return apperr.IllegalState("consult %s still occupies a room", id)
				}
			}
			c.IsInpatient = *patch.IsInpatient
		}

		if err := s.consults.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AssignEmployee adds a staff member to an unpaid consult.
func (s *Service) AssignEmployee(ctx context.Context, id, employeeID uuid.UUID) (*EmployeeConsult, error) {
	ec := &EmployeeConsult{ConsultID: id, EmployeeID: employeeID}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.lockOpen(ctx, id); err != nil {
			return err
		}
		if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
			return err
		}
		assigned, err := s.consults.ListEmployees(ctx, id)
		if err != nil {
			return err
		}
		for _, a := range assigned {
			if a.EmployeeID == employeeID {
				return apperr.Duplicate("employee %s is already assigned to consult %s", employeeID, id)
			}
		}
		return s.consults.AddEmployee(ctx, ec)
	})
	if err != nil {
		return nil, err
	}
	return ec, nil
}

// AssignRoom places an unpaid inpatient consult in a room.
func (s *Service) AssignRoom(ctx context.Context, id, roomID uuid.UUID) (*room.Usage, error) {
	var usage *room.Usage
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.lockOpen(ctx, id)
		if err != nil {
			return err
		}
		if !c.IsInpatient {
			return apperr.IllegalState("consult %s is not an inpatient consult", id)
		}
		usage, err = s.rooms.AssignRoomToConsult(ctx, roomID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// CloseRoom discharges the consult from its room.
func (s *Service) CloseRoom(ctx context.Context, id uuid.UUID) (*room.Usage, error) {
	var usage *room.Usage
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.lockOpen(ctx, id); err != nil {
			return err
		}
		var err error
		usage, err = s.rooms.CloseRoomUsage(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// RoomUsage returns the consult's stay with its running day count.
func (s *Service) RoomUsage(ctx context.Context, id uuid.UUID) (*room.Usage, error) {
	if _, err := s.consults.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.rooms.FindUsageByConsult(ctx, id)
}

// Total computes the payable breakdown without writing anything. An open
// room stay is billed up to today.
func (s *Service) Total(ctx context.Context, id uuid.UUID) (*Breakdown, error) {
	c, err := s.consults.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.breakdown(ctx, c)
}

func (s *Service) breakdown(ctx context.Context, c *Consult) (*Breakdown, error) {
	medicines, err := s.medicines.TotalByConsult(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	rooms, err := s.rooms.TotalByConsult(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	surgeries, err := s.surgeries.TotalByConsult(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	fee := feeOf(c)
	return &Breakdown{
		ConsultID:    c.ID,
		Consultation: fee,
		Medicines:    medicines,
		Room:         rooms,
		Surgeries:    surgeries,
		Total:        finance.Sum(fee, medicines, rooms, surgeries),
	}, nil
}

// Pay closes any open room stay, freezes the grand total into TotalCost and
// marks the consult paid, all in one unit of work.
func (s *Service) Pay(ctx context.Context, id uuid.UUID) (*Receipt, error) {
	var receipt *Receipt
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.lockOpen(ctx, id)
		if err != nil {
			return err
		}

		open, err := s.hasOpenRoom(ctx, id)
		if err != nil {
			return err
		}
		if open {
			if _, err := s.rooms.CloseRoomUsage(ctx, id); err != nil {
				return err
			}
		}

		b, err := s.breakdown(ctx, c)
		if err != nil {
			return err
		}
		paidAt := s.now()
		c.TotalCost = b.Total.TotalSales
		c.IsPaid = true
		c.PaidAt = &paidAt
		if err := s.consults.MarkPaid(ctx, c); err != nil {
			return err
		}

		event := PaidEvent{ConsultID: c.ID, Total: c.TotalCost, PaidAt: paidAt}
		db.AfterCommit(ctx, func() { s.paid(ctx, event) })
		receipt = &Receipt{Consult: c, Breakdown: b}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("consult_id", id.String()).Str("total", receipt.Consult.TotalCost.StringFixed(2)).Msg("consult paid")
	return receipt, nil
}

func (s *Service) paid(ctx context.Context, event PaidEvent) {
	if s.recorder != nil {
		s.recorder.ConsultPaid(event.Total)
	}
	if s.publisher == nil {
		return
	}
	ev, err := websocket.NewEvent("consult.paid", websocket.TopicConsults, event.ConsultID, event)
	if err == nil {
		err = s.publisher.Publish(context.WithoutCancel(ctx), ev)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("consult_id", event.ConsultID.String()).Msg("publish consult paid")
	}
}

// EnsureOpen locks the consult and fails unless it exists and is unpaid.
// Ledgers call it inside their own unit of work.
func (s *Service) EnsureOpen(ctx context.Context, id uuid.UUID) error {
	_, err := s.lockOpen(ctx, id)
	return err
}

func (s *Service) lockOpen(ctx context.Context, id uuid.UUID) (*Consult, error) {
	c, err := s.consults.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsPaid {
		return nil, apperr.IllegalState("consult %s is already paid", id)
	}
	return c, nil
}

func (s *Service) hasOpenRoom(ctx context.Context, id uuid.UUID) (bool, error) {
	u, err := s.rooms.FindUsageByConsult(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsOpen(), nil
}

func (s *Service) GetConsult(ctx context.Context, id uuid.UUID) (*Detail, error) {
	c, err := s.consults.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	employees, err := s.consults.ListEmployees(ctx, id)
	if err != nil {
		return nil, err
	}
	if employees == nil {
		employees = []*EmployeeConsult{}
	}
	hasMedicines, err := s.medicines.ConsultHasMedicines(ctx, id)
	if err != nil {
		return nil, err
	}
	hasSurgeries, err := s.surgeries.AllPerformedByConsult(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Consult:      c,
		State:        c.State(),
		Employees:    employees,
		HasMedicines: hasMedicines,
		HasSurgeries: hasSurgeries,
	}, nil
}

// ListConsults returns the consults matching f; an empty filter lists all.
func (s *Service) ListConsults(ctx context.Context, f Filter, limit, offset int) ([]*Consult, int, error) {
	return s.consults.List(ctx, f.Predicate(), limit, offset)
}
