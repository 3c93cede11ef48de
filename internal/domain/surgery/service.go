package surgery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hospital/backoffice/internal/domain/directory"
	"github.com/hospital/backoffice/internal/domain/finance"
	"github.com/hospital/backoffice/internal/platform/apperr"
	"github.com/hospital/backoffice/internal/platform/db"
)

// ConsultGuard reports NotFound for an unknown consult and IllegalState for a
// paid one. Called inside the surgery's unit of work.
type ConsultGuard interface {
	EnsureOpen(ctx context.Context, consultID uuid.UUID) error
}

type Service struct {
	surgeries SurgeryRepository
	tx        db.TxRunner
	guard     ConsultGuard
	employees directory.EmployeeRepository
	now       func() time.Time
	logger    zerolog.Logger
}

func NewService(surgeries SurgeryRepository, tx db.TxRunner) *Service {
	return &Service{surgeries: surgeries, tx: tx, now: time.Now, logger: zerolog.Nop()}
}

func (s *Service) SetConsultGuard(g ConsultGuard) { s.guard = g }
func (s *Service) SetEmployees(e directory.EmployeeRepository) { s.employees = e }
func (s *Service) SetClock(now func() time.Time) { s.now = now }
func (s *Service) SetLogger(l zerolog.Logger) { s.logger = l }

// CreateFor registers a surgery against an open consult. performedBy joins
// the team as RolePerformer unless already listed.
func (s *Service) CreateFor(ctx context.Context, consultID, performedBy uuid.UUID, sg *Surgery, team []TeamMember) ([]*TeamMember, error) {
	if s.guard == nil {
		return nil, errors.New("surgery: consult guard not configured")
	}
	sg.Description = strings.TrimSpace(sg.Description)
	if sg.Description == "" {
		return nil, apperr.Validation("description is required")
	}
	if sg.SurgeryCost.IsNegative() {
		return nil, apperr.Validation("surgery_cost must be >= 0")
	}
	if sg.HospitalCost.IsNegative() {
		return nil, apperr.Validation("hospital_cost must be >= 0")
	}
	if performedBy == uuid.Nil {
		return nil, apperr.Validation("performing employee is required")
	}
	members, err := buildTeam(performedBy, team)
	if err != nil {
		return nil, err
	}

	sg.ConsultID = consultID
	sg.CreatedBy = performedBy
	if sg.PerformedAt.IsZero() {
		sg.PerformedAt = s.now()
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.guard.EnsureOpen(ctx, consultID); err != nil {
			return err
		}
		if err := s.checkEmployees(ctx, members); err != nil {
			return err
		}
		if err := s.surgeries.Create(ctx, sg); err != nil {
			return err
		}
		for _, m := range members {
			m.SurgeryID = sg.ID
			if err := s.surgeries.AddTeamMember(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("consult_id", consultID.String()).Str("surgery_id", sg.ID.String()).
		Int("team_size", len(members)).Msg("surgery registered")
	return members, nil
}

func buildTeam(performedBy uuid.UUID, team []TeamMember) ([]*TeamMember, error) {
	seen := make(map[uuid.UUID]bool, len(team)+1)
	members := make([]*TeamMember, 0, len(team)+1)
	for _, m := range team {
		if m.EmployeeID == uuid.Nil {
			return nil, apperr.Validation("team member employee_id is required")
		}
		if seen[m.EmployeeID] {
			return nil, apperr.Duplicate("employee %s listed twice in the team", m.EmployeeID)
		}
		seen[m.EmployeeID] = true
		role := strings.TrimSpace(m.Role)
		if role == "" {
			return nil, apperr.Validation("team member role is required")
		}
		members = append(members, &TeamMember{EmployeeID: m.EmployeeID, Role: role})
	}
	if !seen[performedBy] {
		members = append([]*TeamMember{{EmployeeID: performedBy, Role: RolePerformer}}, members...)
	}
	return members, nil
}

func (s *Service) checkEmployees(ctx context.Context, members []*TeamMember) error {
	if s.employees == nil {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.EmployeeID)
	}
	found, err := s.employees.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, e := range found {
		known[e.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return apperr.NotFound("employee %s", id)
		}
	}
	return nil
}

func (s *Service) GetSurgery(ctx context.Context, id uuid.UUID) (*Surgery, error) {
	return s.surgeries.GetByID(ctx, id)
}

func (s *Service) TeamOf(ctx context.Context, surgeryID uuid.UUID) ([]*TeamMember, error) {
	if _, err := s.surgeries.GetByID(ctx, surgeryID); err != nil {
		return nil, err
	}
	return s.surgeries.ListTeam(ctx, surgeryID)
}

func (s *Service) FindByConsultID(ctx context.Context, consultID uuid.UUID) ([]*Surgery, error) {
	return s.surgeries.ListByConsult(ctx, consultID)
}

func (s *Service) TotalByConsult(ctx context.Context, consultID uuid.UUID) (finance.Summary, error) {
	items, err := s.surgeries.ListByConsult(ctx, consultID)
	if err != nil {
		return finance.Summary{}, err
	}
	surgeries := make([]Surgery, 0, len(items))
	for _, it := range items {
		surgeries = append(surgeries, *it)
	}
	return Calculator.SummarizeAll(surgeries), nil
}

// AllPerformedByConsult reports whether the consult has any surgery.
func (s *Service) AllPerformedByConsult(ctx context.Context, consultID uuid.UUID) (bool, error) {
	return s.surgeries.ExistsForConsult(ctx, consultID)
}
