package room

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hospital/backoffice/internal/domain/finance"
	"github.com/hospital/backoffice/internal/platform/apperr"
	"github.com/hospital/backoffice/internal/platform/db"
	"github.com/hospital/backoffice/internal/platform/websocket"
)

// EventPublisher receives room board events after the change commits.
type EventPublisher interface {
	Publish(ctx context.Context, event websocket.Event) error
}

// Recorder counts status transitions.
type Recorder interface {
	RoomStatusChanged(from, to string)
}

type Service struct {
	rooms     RoomRepository
	usages    UsageRepository
	tx        db.TxRunner
	publisher EventPublisher
	recorder  Recorder
	loc       *time.Location
	now       func() time.Time
	logger    zerolog.Logger
}

func NewService(rooms RoomRepository, usages UsageRepository, tx db.TxRunner) *Service {
	return &Service{
		rooms:  rooms,
		usages: usages,
		tx:     tx,
		loc:    time.UTC,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
}

func (s *Service) SetPublisher(p EventPublisher) { s.publisher = p }
func (s *Service) SetRecorder(r Recorder) { s.recorder = r }
func (s *Service) SetLogger(l zerolog.Logger) { s.logger = l }
func (s *Service) SetClock(now func() time.Time) { s.now = now }
func (s *Service) SetLocation(loc *time.Location) { s.loc = loc }

// StatusEvent is the payload of a room.status event.
type StatusEvent struct {
	RoomID    uuid.UUID  `json:"room_id"`
	Number    string     `json:"number"`
	From      Status     `json:"from"`
	To        Status     `json:"to"`
	ConsultID *uuid.UUID `json:"consult_id,omitempty"`
}

// -- Catalogue --

func validatePrices(price, maintenance decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.Validation("daily_price must be >= 0")
	}
	if maintenance.IsNegative() {
		return apperr.Validation("daily_maintenance_cost must be >= 0")
	}
	return nil
}

func (s *Service) CreateRoom(ctx context.Context, r *Room) error {
	r.Number = strings.TrimSpace(r.Number)
	if r.Number == "" {
		return apperr.Validation("number is required")
	}
	if err := validatePrices(r.DailyPrice, r.DailyMaintenanceCost); err != nil {
		return err
	}
	r.Status = StatusAvailable

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.rooms.GetByNumber(ctx, r.Number); err == nil {
			return apperr.Duplicate("room number %s already exists", r.Number)
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return s.rooms.Create(ctx, r)
	})
}

// EditRoom applies a catalogue patch. Status is never changed here.
func (s *Service) EditRoom(ctx context.Context, id uuid.UUID, patch Patch) (*Room, error) {
	var updated *Room
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.rooms.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if patch.Number != nil {
			number := strings.TrimSpace(*patch.Number)
			if number == "" {
				return apperr.Validation("number is required")
			}
			if number != r.Number {
				other, err := s.rooms.GetByNumber(ctx, number)
				switch {
				case err == nil && other.ID != r.ID:
					return apperr.Duplicate("room number %s already exists", number)
				case err != nil && !errors.Is(err, apperr.ErrNotFound):
					return err
				}
			}
			r.Number = number
		}
		if patch.DailyPrice != nil {
			r.DailyPrice = *patch.DailyPrice
		}
		if patch.DailyMaintenanceCost != nil {
			r.DailyMaintenanceCost = *patch.DailyMaintenanceCost
		}
		if err := validatePrices(r.DailyPrice, r.DailyMaintenanceCost); err != nil {
			return err
		}

		if err := s.rooms.Update(ctx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangeStatus moves a room between AVAILABLE and OUT_OF_SERVICE. OCCUPIED is
// reachable only through assignment.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status Status) (*Room, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown room status %q", status)
	}
	if status == StatusOccupied {
		return nil, apperr.IllegalState("a room becomes OCCUPIED only by assignment to a consult")
	}

	var updated *Room
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.rooms.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.Status == StatusOccupied {
			return apperr.IllegalState("room %s is occupied", r.Number)
		}
		if r.Status != status {
			if err := s.setStatus(ctx, r, status, nil); err != nil {
				return err
			}
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *Service) ListRooms(ctx context.Context, status *Status, limit, offset int) ([]*Room, int, error) {
	if status != nil && !status.Valid() {
		return nil, 0, apperr.Validation("unknown room status %q", *status)
	}
	return s.rooms.List(ctx, status, limit, offset)
}

// -- Occupancy --

// AssignRoomToConsult opens a stay for consultID in roomID. The caller is
// responsible for the consult's existence and state.
func (s *Service) AssignRoomToConsult(ctx context.Context, roomID, consultID uuid.UUID) (*Usage, error) {
	var usage *Usage
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.rooms.GetForUpdate(ctx, roomID)
		if err != nil {
			return err
		}

		existing, err := s.usages.GetByConsult(ctx, consultID)
		switch {
		case err == nil && existing.IsOpen():
			return apperr.IllegalState("consult %s already occupies a room", consultID)
		case err == nil:
			return apperr.IllegalState("consult %s already had a room stay", consultID)
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}

		if r.Status != StatusAvailable {
			return apperr.IllegalState("room %s is %s", r.Number, r.Status)
		}

		u := &Usage{
			ConsultID:                consultID,
			RoomID:                   r.ID,
			UsageDays:                0,
			DailyRoomPrice:           r.DailyPrice,
			DailyRoomMaintenanceCost: r.DailyMaintenanceCost,
			StartedAt:                s.now(),
		}
		if err := s.usages.Create(ctx, u); err != nil {
			return err
		}
		if err := s.setStatus(ctx, r, StatusOccupied, &consultID); err != nil {
			return err
		}
		usage = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("room_id", roomID.String()).Str("consult_id", consultID.String()).Msg("room assigned")
	return usage, nil
}

// CloseRoomUsage freezes the day count of the consult's stay and releases
// the room.
func (s *Service) CloseRoomUsage(ctx context.Context, consultID uuid.UUID) (*Usage, error) {
	var usage *Usage
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		u, err := s.usages.GetByConsultForUpdate(ctx, consultID)
		if err != nil {
			return err
		}
		if !u.IsOpen() {
			return apperr.IllegalState("room usage for consult %s is already closed", consultID)
		}

		r, err := s.rooms.GetForUpdate(ctx, u.RoomID)
		if err != nil {
			return err
		}

		closedAt := s.now()
		u.UsageDays = StayDays(u.StartedAt, closedAt, s.loc)
		u.ClosedAt = &closedAt
		if err := s.usages.Close(ctx, u); err != nil {
			return err
		}
		if r.Status == StatusOccupied {
			if err := s.setStatus(ctx, r, StatusAvailable, &consultID); err != nil {
				return err
			}
		}
		usage = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("room_id", usage.RoomID.String()).Str("consult_id", consultID.String()).
		Int("usage_days", usage.UsageDays).Msg("room released")
	return usage, nil
}

// CalcRoomUsage projects the stay as if it closed now. Closed stays keep
// their frozen day count. Nothing is written.
func (s *Service) CalcRoomUsage(ctx context.Context, consultID uuid.UUID) (*Usage, error) {
	u, err := s.usages.GetByConsult(ctx, consultID)
	if err != nil {
		return nil, err
	}
	if u.IsOpen() {
		projected := *u
		projected.UsageDays = StayDays(u.StartedAt, s.now(), s.loc)
		return &projected, nil
	}
	return u, nil
}

func (s *Service) FindUsageByConsult(ctx context.Context, consultID uuid.UUID) (*Usage, error) {
	return s.usages.GetByConsult(ctx, consultID)
}

// TotalByConsult is the room charge of a consult; zero when it never had a
// room.
func (s *Service) TotalByConsult(ctx context.Context, consultID uuid.UUID) (finance.Summary, error) {
	u, err := s.CalcRoomUsage(ctx, consultID)
	if errors.Is(err, apperr.ErrNotFound) {
		return finance.Zero(), nil
	}
	if err != nil {
		return finance.Summary{}, err
	}
	return Calculator.Summarize(*u), nil
}

func (s *Service) setStatus(ctx context.Context, r *Room, to Status, consultID *uuid.UUID) error {
	from := r.Status
	if err := s.rooms.SetStatus(ctx, r.ID, to); err != nil {
		return err
	}
	r.Status = to

	event := StatusEvent{RoomID: r.ID, Number: r.Number, From: from, To: to, ConsultID: consultID}
	db.AfterCommit(ctx, func() {
		if s.recorder != nil {
			s.recorder.RoomStatusChanged(string(from), string(to))
		}
		if s.publisher == nil {
			return
		}
		ev, err := websocket.NewEvent("room.status", websocket.TopicRooms, r.ID, event)
		if err == nil {
			err = s.publisher.Publish(context.WithoutCancel(ctx), ev)
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("room_id", r.ID.String()).Msg("publish room status")
		}
	})
	return nil
}
