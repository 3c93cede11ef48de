//go:build integration

package integration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hospital/backoffice/internal/domain/consult"
	"github.com/hospital/backoffice/internal/domain/room"
	"github.com/hospital/backoffice/internal/domain/surgery"
	"github.com/hospital/backoffice/internal/platform/apperr"
)

func TestConsultLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "lifecycle")

	patientID := e.createPatient(t, "1234567890101", "Ana Lucia", "Perez Gomez")
	doctorID := e.createEmployee(t, "Carlos", "Mendez")
	nurseID := e.createEmployee(t, "Rosa", "Lopez")
	r := e.createRoom(t, "101", "200", "50")
	med := e.createMedicine(t, "Amoxicilina 500mg", "45", "20", 10)

	c := e.inpatientConsult(t, patientID, doctorID, "100")

	if _, err := e.consults.AssignEmployee(ctx, c.ID, nurseID); err != nil {
		t.Fatalf("AssignEmployee: %v", err)
	}
	if _, err := e.consults.AssignEmployee(ctx, c.ID, nurseID); !errors.Is(err, apperr.ErrDuplicate) {
		t.Errorf("expected duplicate assignment error, got %v", err)
	}

	if _, err := e.consults.AssignRoom(ctx, c.ID, r.ID); err != nil {
		t.Fatalf("AssignRoom: %v", err)
	}
	got, err := e.rooms.GetRoom(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if got.Status != room.StatusOccupied {
		t.Errorf("expected room OCCUPIED after assignment, got %s", got.Status)
	}

	if _, err := e.pharmacy.CreateFor(ctx, c.ID, med.ID, 2, nurseID); err != nil {
		t.Fatalf("CreateFor medicine: %v", err)
	}
	team, err := e.surgery.CreateFor(ctx, c.ID, doctorID, &surgery.Surgery{
		Description:  "Appendectomy",
		SurgeryCost:  decimal.NewFromInt(900),
		HospitalCost: decimal.NewFromInt(600),
	}, []surgery.TeamMember{{EmployeeID: nurseID, Role: "assistant"}})
	if err != nil {
		t.Fatalf("CreateFor surgery: %v", err)
	}
	if len(team) != 2 {
		t.Errorf("expected performer plus one assistant, got %d members", len(team))
	}

	receipt, err := e.consults.Pay(ctx, c.ID)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}

	// 100 fee + 1 day at 200 + 2 x 45 + 900 surgery
	if want := decimal.NewFromInt(1290); !receipt.Consult.TotalCost.Equal(want) {
		t.Errorf("expected total 1290, got %s", receipt.Consult.TotalCost)
	}
	if !receipt.Breakdown.Room.TotalSales.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected room charge 200, got %s", receipt.Breakdown.Room.TotalSales)
	}

	got, err = e.rooms.GetRoom(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if got.Status != room.StatusAvailable {
		t.Errorf("expected room AVAILABLE after payment, got %s", got.Status)
	}

	stocked, err := e.pharmacy.GetMedicine(ctx, med.ID)
	if err != nil {
		t.Fatalf("GetMedicine: %v", err)
	}
	if stocked.Stock != 8 {
		t.Errorf("expected stock 8, got %d", stocked.Stock)
	}

	detail, err := e.consults.GetConsult(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetConsult: %v", err)
	}
	if detail.State != consult.StatePaid {
		t.Errorf("expected PAID, got %s", detail.State)
	}
	if len(detail.Employees) != 2 {
		t.Errorf("expected 2 assigned employees, got %d", len(detail.Employees))
	}
}

func TestPaidConsultRejectsCharges(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "paidlock")

	patientID := e.createPatient(t, "2234567890101", "Luis", "Herrera")
	doctorID := e.createEmployee(t, "Marta", "Ruiz")
	med := e.createMedicine(t, "Ibuprofeno", "10", "4", 5)
	r := e.createRoom(t, "202", "150", "30")

	c := e.inpatientConsult(t, patientID, doctorID, "80")
	if _, err := e.consults.Pay(ctx, c.ID); err != nil {
		t.Fatalf("Pay: %v", err)
	}

	if _, err := e.consults.Pay(ctx, c.ID); !errors.Is(err, apperr.ErrIllegalState) {
		t.Errorf("second Pay: expected illegal state, got %v", err)
	}
	if _, err := e.pharmacy.CreateFor(ctx, c.ID, med.ID, 1, doctorID); !errors.Is(err, apperr.ErrIllegalState) {
		t.Errorf("sale on paid consult: expected illegal state, got %v", err)
	}
	if _, err := e.consults.AssignRoom(ctx, c.ID, r.ID); !errors.Is(err, apperr.ErrIllegalState) {
		t.Errorf("room on paid consult: expected illegal state, got %v", err)
	}

	stocked, err := e.pharmacy.GetMedicine(ctx, med.ID)
	if err != nil {
		t.Fatalf("GetMedicine: %v", err)
	}
	if stocked.Stock != 5 {
		t.Errorf("rejected sale must not touch stock, got %d", stocked.Stock)
	}
}

func TestInsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "stock")

	patientID := e.createPatient(t, "3234567890101", "Sofia", "Castillo")
	nurseID := e.createEmployee(t, "Elena", "Morales")
	med := e.createMedicine(t, "Paracetamol", "5", "2", 3)
	c := e.inpatientConsult(t, patientID, nurseID, "50")

	if _, err := e.pharmacy.CreateFor(ctx, c.ID, med.ID, 4, nurseID); !errors.Is(err, apperr.ErrIllegalState) {
		t.Fatalf("expected illegal state for insufficient stock, got %v", err)
	}

	has, err := e.pharmacy.ConsultHasMedicines(ctx, c.ID)
	if err != nil {
		t.Fatalf("ConsultHasMedicines: %v", err)
	}
	if has {
		t.Error("failed sale must not leave a sale row")
	}

	if _, err := e.pharmacy.CreateCounterSale(ctx, med.ID, 3, nurseID); err != nil {
		t.Fatalf("CreateCounterSale: %v", err)
	}
	stocked, err := e.pharmacy.GetMedicine(ctx, med.ID)
	if err != nil {
		t.Fatalf("GetMedicine: %v", err)
	}
	if stocked.Stock != 0 {
		t.Errorf("expected stock 0, got %d", stocked.Stock)
	}
}

func TestConcurrentPayment(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "concpay")

	patientID := e.createPatient(t, "4234567890101", "Jorge", "Santos")
	doctorID := e.createEmployee(t, "Pablo", "Diaz")
	c := e.inpatientConsult(t, patientID, doctorID, "120")

	const workers = 5
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		paid     int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.consults.Pay(ctx, c.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				paid++
			case errors.Is(err, apperr.ErrIllegalState):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if paid != 1 || rejected != workers-1 {
		t.Errorf("expected exactly one payment, got paid=%d rejected=%d", paid, rejected)
	}
}

func TestConcurrentRoomAssignment(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "concroom")

	doctorID := e.createEmployee(t, "Ines", "Vargas")
	r := e.createRoom(t, "303", "180", "40")

	const consults = 4
	ids := make([]*consult.Consult, consults)
	for i := range ids {
		patientID := e.createPatient(t, "52345678901"+string(rune('0'+i))+"1", "Paciente", "Prueba")
		ids[i] = e.inpatientConsult(t, patientID, doctorID, "60")
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		assigned int
	)
	for _, c := range ids {
		wg.Add(1)
		go func(c *consult.Consult) {
			defer wg.Done()
			_, err := e.consults.AssignRoom(ctx, c.ID, r.ID)
			if err != nil && !errors.Is(err, apperr.ErrIllegalState) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				assigned++
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	if assigned != 1 {
		t.Errorf("expected the room to be assigned once, got %d", assigned)
	}
}

func TestListConsultsFilters(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "listing")

	anaID := e.createPatient(t, "6234567890101", "Ana", "Reyes")
	beaID := e.createPatient(t, "6234567890102", "Beatriz", "Reyes")
	drID := e.createEmployee(t, "Hugo", "Paz")
	nurseID := e.createEmployee(t, "Lidia", "Cruz")

	first := e.inpatientConsult(t, anaID, drID, "90")
	if _, err := e.consults.CreateConsult(ctx, beaID, nurseID, decimal.NewFromInt(70)); err != nil {
		t.Fatalf("CreateConsult: %v", err)
	}
	if _, err := e.consults.Pay(ctx, first.ID); err != nil {
		t.Fatalf("Pay: %v", err)
	}

	paid := true
	list, total, err := e.consults.ListConsults(ctx, consult.Filter{IsPaid: &paid}, 10, 0)
	if err != nil {
		t.Fatalf("ListConsults: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != first.ID {
		t.Errorf("expected only the paid consult, got total=%d", total)
	}

	lastName := "reyes"
	_, total, err = e.consults.ListConsults(ctx, consult.Filter{PatientLastNames: &lastName}, 10, 0)
	if err != nil {
		t.Fatalf("ListConsults: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 consults for last name reyes, got %d", total)
	}

	nurseName := "Lid"
	list, total, err = e.consults.ListConsults(ctx, consult.Filter{EmployeeFirstName: &nurseName}, 10, 0)
	if err != nil {
		t.Fatalf("ListConsults: %v", err)
	}
	if total != 1 || list[0].PatientID != beaID {
		t.Errorf("expected the consult staffed by Lidia, got total=%d", total)
	}
}

func TestSchemaRejectsNonPositiveFee(t *testing.T) {
	e := newEnv(t, "feecheck")
	patientID := e.createPatient(t, "7234567890101", "Raul", "Ortiz")
	doctorID := e.createEmployee(t, "Nora", "Salas")

	_, err := e.pool.Exec(context.Background(),
		`INSERT INTO consult (id, patient_id, consultation_fee, total_cost, created_by)
		 VALUES (gen_random_uuid(), $1, 0, 0, $2)`,
		patientID, doctorID)
	if err == nil || !strings.Contains(err.Error(), "check constraint") {
		t.Errorf("expected a check constraint violation for a zero fee, got %v", err)
	}
}
