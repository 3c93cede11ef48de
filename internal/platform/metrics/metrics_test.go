package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func TestMiddleware_RecordsRouteTemplate(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/v1/consults/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/consults/"+strings.Repeat("a", i+1), nil)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/api/v1/consults/:id", "200"))
	if got != 3 {
		t.Errorf("expected 3 requests on the route template, got %v", got)
	}
}

func TestMiddleware_UsesHTTPErrorCode(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.POST("/pay", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "already paid")
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/pay", nil))

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodPost, "/pay", "409")); got != 1 {
		t.Errorf("expected one 409, got %v", got)
	}
}

func TestBusinessCounters(t *testing.T) {
	m := New()
	m.ConsultCreated()
	m.ConsultPaid(decimal.RequireFromString("1290.00"))
	m.ConsultPaid(decimal.RequireFromString("10.50"))
	m.RoomStatusChanged("AVAILABLE", "OCCUPIED")
	m.MedicineSold("counter", 4)

	if got := testutil.ToFloat64(m.consultsCreated); got != 1 {
		t.Errorf("consults created = %v", got)
	}
	if got := testutil.ToFloat64(m.consultsPaid); got != 2 {
		t.Errorf("consults paid = %v", got)
	}
	if got := testutil.ToFloat64(m.revenue); got != 1300.5 {
		t.Errorf("revenue = %v", got)
	}
	if got := testutil.ToFloat64(m.roomTransitions.WithLabelValues("AVAILABLE", "OCCUPIED")); got != 1 {
		t.Errorf("room transitions = %v", got)
	}
	if got := testutil.ToFloat64(m.medicineUnits.WithLabelValues("counter")); got != 4 {
		t.Errorf("medicine units = %v", got)
	}
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.ConsultPaid(decimal.NewFromInt(5))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"billing_consults_paid_total 1", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in exposition", want)
		}
	}
}
