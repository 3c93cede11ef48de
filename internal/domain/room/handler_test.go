package room

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	return h, e
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestHandler_CreateRoom(t *testing.T) {
	h, e := newTestHandler()
	body := `{"number":"101","daily_price":"500.00","daily_maintenance_cost":"100.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateRoom(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got Room
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusAvailable || got.Number != "101" {
		t.Errorf("unexpected room: %+v", got)
	}
}

func TestHandler_CreateRoom_BadRequest(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateRoom(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_CreateRoom_Duplicate(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreateRoom(context.Background(), &Room{Number: "101"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", strings.NewReader(`{"number":"101"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateRoom(c)
	if code := httpStatus(t, err); code != http.StatusConflict {
		t.Errorf("expected 409, got %d", code)
	}
}

func TestHandler_GetRoom(t *testing.T) {
	h, e := newTestHandler()
	r := &Room{Number: "101"}
	h.svc.CreateRoom(context.Background(), r)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())

	if err := h.GetRoom(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetRoom_NotFound(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetRoom(c)
	if code := httpStatus(t, err); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_GetRoom_InvalidID(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetRoom(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_ListRooms(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreateRoom(context.Background(), &Room{Number: "101"})
	h.svc.CreateRoom(context.Background(), &Room{Number: "102"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms?status=AVAILABLE&limit=1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListRooms(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Total   int    `json:"total"`
		HasMore bool   `json:"has_more"`
		Next    string `json:"next"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || !resp.HasMore {
		t.Errorf("unexpected page: %+v", resp)
	}
	if !strings.Contains(resp.Next, "status=AVAILABLE") || !strings.Contains(resp.Next, "offset=1") {
		t.Errorf("next link should keep the filter, got %q", resp.Next)
	}
}

func TestHandler_EditRoom(t *testing.T) {
	h, e := newTestHandler()
	r := &Room{Number: "101"}
	h.svc.CreateRoom(context.Background(), r)

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"daily_price":"750.50"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())

	if err := h.EditRoom(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Room
	json.Unmarshal(rec.Body.Bytes(), &got)
	if !got.DailyPrice.Equal(dec("750.50")) || got.Number != "101" {
		t.Errorf("unexpected room: %+v", got)
	}
}

func TestHandler_ChangeStatus(t *testing.T) {
	h, e := newTestHandler()
	r := &Room{Number: "101"}
	h.svc.CreateRoom(context.Background(), r)

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"OCCUPIED"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())

	err := h.ChangeStatus(c)
	if code := httpStatus(t, err); code != http.StatusConflict {
		t.Errorf("expected 409, got %d", code)
	}
}
