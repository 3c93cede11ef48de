package consult

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hospital/backoffice/internal/platform/apperr"
	"github.com/hospital/backoffice/internal/platform/auth"
	"github.com/hospital/backoffice/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePhysician, auth.RoleNurse, auth.RoleCashier))
	readGroup.GET("/consults", h.ListConsults)
	readGroup.GET("/consults/:id", h.GetConsult)
	readGroup.GET("/consults/:id/room", h.GetRoomUsage)
	readGroup.GET("/consults/:id/total", h.GetTotal)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePhysician, auth.RoleNurse))
	writeGroup.POST("/consults", h.CreateConsult)
	writeGroup.PATCH("/consults/:id", h.UpdateConsult)
	writeGroup.POST("/consults/:id/employees", h.AssignEmployee)
	writeGroup.POST("/consults/:id/room", h.AssignRoom)
	writeGroup.POST("/consults/:id/room/close", h.CloseRoom)

	payGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleCashier))
	payGroup.POST("/consults/:id/pay", h.Pay)
}

type createRequest struct {
	PatientID       uuid.UUID       `json:"patient_id"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
}

type employeeRequest struct {
	EmployeeID uuid.UUID `json:"employee_id"`
}

type roomRequest struct {
	RoomID uuid.UUID `json:"room_id"`
}

func consultID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreateConsult(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	employeeID, err := auth.EmployeeIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	created, err := h.svc.CreateConsult(c.Request().Context(), req.PatientID, employeeID, req.ConsultationFee)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetConsult(c echo.Context) error {
	id, err := consultID(c)
	if err != nil {
		return err
	}
	detail, err := h.svc.GetConsult(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) ListConsults(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListConsults(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithNext(c))
}

func (h *Handler) UpdateConsult(c echo.Context) error {
	id, err := consultID(c)
	if err != nil {
		return err
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.UpdateConsult(c.Request().Context(), id, patch)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) AssignEmployee(c echo.Context) error {
	id, err := consultID(c)
	if err != nil {
		return err
	}
	var req employeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.EmployeeID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "employee_id is required")
	}
	ec, err := h.svc.AssignEmployee(c.Request().Context(), id, req.EmployeeID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, ec)
}

func (h *Handler) AssignRoom(c echo.Context) error {
	id, err := consultID(c)
	if err != nil {
		return err
	}
	var req roomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.RoomID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "room_id is required")
	}
	usage, err := h.svc.AssignRoom(c.Request().Context(), id, req.RoomID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, usage)
}

func (h *Handler) GetRoomUsage(c echo.Context) error {
	id, err := consultID(c)
	if err != nil {
		return err
	}
	usage, err := h.svc.RoomUsage(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, usage)
}

func (h *Handler) CloseRoom(c echo.Context) error {
	id, err := consultID(c)
	if err != nil {
		return err
	}
	usage, err := h.svc.CloseRoom(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, usage)
}

func (h *Handler) GetTotal(c echo.Context) error {
	id, err := consultID(c)
	if err != nil {
		return err
	}
	b, err := h.svc.Total(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) Pay(c echo.Context) error {
	id, err := consultID(c)
	if err != nil {
		return err
	}
	receipt, err := h.svc.Pay(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, receipt)
}

func filterFromQuery(c echo.Context) (Filter, error) {
	var f Filter
	var err error
	if f.ID, err = uuidParam(c, "id"); err != nil {
		return f, err
	}
	if f.EmployeeID, err = uuidParam(c, "employee_id"); err != nil {
		return f, err
	}
	if f.IsPaid, err = boolParam(c, "is_paid"); err != nil {
		return f, err
	}
	if f.IsInpatient, err = boolParam(c, "is_inpatient"); err != nil {
		return f, err
	}
	f.PatientDPI = stringParam(c, "patient_dpi")
	f.PatientFirstNames = stringParam(c, "patient_firstnames")
	f.PatientLastNames = stringParam(c, "patient_lastnames")
	f.EmployeeFirstName = stringParam(c, "employee_firstname")
	f.EmployeeLastName = stringParam(c, "employee_lastname")
	return f, nil
}

func uuidParam(c echo.Context, name string) (*uuid.UUID, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &id, nil
}

func boolParam(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &b, nil
}

func stringParam(c echo.Context, name string) *string {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	return &v
}
