package main

import (
	"bytes"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospital/backoffice/internal/config"
	"github.com/hospital/backoffice/internal/platform/auth"
	"github.com/hospital/backoffice/internal/platform/db"
)

var testSigningKey = []byte("test-signing-key")

func testConfig(env string) *config.Config {
	return &config.Config{
		Env:            env,
		CORSOrigins:    []string{"http://localhost:3000"},
		RateLimitRPS:   100,
		RateLimitBurst: 100,
		RequestTimeout: 5 * time.Second,
		AuthSigningKey: string(testSigningKey),
		MetricsEnabled: true,
	}
}

func signedToken(t *testing.T, roles ...string) string {
	t.Helper()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: roles,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func newTestServer(t *testing.T, env string) *echo.Echo {
	t.Helper()
	e, err := newServer(testConfig(env), zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	return e
}

func TestNewServer_Health(t *testing.T) {
	e := newTestServer(t, "development")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestNewServer_Metrics(t *testing.T) {
	e := newTestServer(t, "development")

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Error("expected http_requests_total in metrics output")
	}
}

func TestNewServer_RegistersBillingRoutes(t *testing.T) {
	e := newTestServer(t, "development")

	registered := make(map[string]bool)
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	want := []string{
		"POST /api/v1/consults",
		"GET /api/v1/consults",
		"GET /api/v1/consults/:id",
		"PATCH /api/v1/consults/:id",
		"POST /api/v1/consults/:id/employees",
		"POST /api/v1/consults/:id/room",
		"POST /api/v1/consults/:id/room/close",
		"GET /api/v1/consults/:id/total",
		"POST /api/v1/consults/:id/pay",
		"POST /api/v1/consults/:id/medicine-sales",
		"POST /api/v1/consults/:id/surgeries",
		"POST /api/v1/medicine-sales",
		"POST /api/v1/rooms",
		"PUT /api/v1/rooms/:id/status",
		"GET /ws",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %s not registered", route)
		}
	}
}

func TestNewServer_RequiresTokenOutsideDevelopment(t *testing.T) {
	e := newTestServer(t, "production")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestNewServer_EnforcesRoles(t *testing.T) {
	e := newTestServer(t, "production")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", strings.NewReader(`{"number":"101"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, auth.RoleCashier))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for cashier creating a room, got %d", rec.Code)
	}
}

func TestNewServer_InvalidTimezone(t *testing.T) {
	cfg := testConfig("development")
	cfg.BillingTimezone = "Nowhere/Invalid"

	if _, err := newServer(cfg, zerolog.Nop(), nil); err == nil {
		t.Error("expected error for unknown billing timezone")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(embeddedMigrations(), "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected embedded migrations")
	}
	if names[0] != "001_consult_billing.sql" {
		t.Errorf("expected first migration 001_consult_billing.sql, got %s", names[0])
	}
}

func TestMigrateCmd_Subcommands(t *testing.T) {
	cmd := migrateCmd()
	for _, name := range []string{"up", "status"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Fatalf("expected %q subcommand", name)
		}
		for _, flag := range []string{"schema", "dir"} {
			f := sub.Flags().Lookup(flag)
			if f == nil {
				t.Errorf("%s: missing --%s flag", name, flag)
				continue
			}
			if f.DefValue != "" {
				t.Errorf("%s --%s: expected empty default, got %q", name, flag, f.DefValue)
			}
		}
	}
}

func TestPrintStatus(t *testing.T) {
	applied := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	printStatus(&buf, "backoffice", []db.MigrationStatus{
		{Version: 1, Name: "consult_billing", Applied: true, AppliedAt: &applied},
		{Version: 2, Name: "room_indexes"},
	})

	out := buf.String()
	for _, want := range []string{
		"Migration status for schema: backoffice",
		"consult_billing",
		"applied",
		"2024-03-01 09:30:00",
		"pending",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
