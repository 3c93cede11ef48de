package surgery

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hospital/backoffice/internal/platform/apperr"
	"github.com/hospital/backoffice/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePhysician, auth.RoleNurse, auth.RoleCashier))
	readGroup.GET("/consults/:id/surgeries", h.ListConsultSurgeries)
	readGroup.GET("/consults/:id/surgeries/total", h.ConsultSurgeriesTotal)
	readGroup.GET("/surgeries/:id", h.GetSurgery)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePhysician, auth.RoleNurse))
	writeGroup.POST("/consults/:id/surgeries", h.CreateSurgery)
}

type createRequest struct {
	Description  string          `json:"description"`
	SurgeryCost  decimal.Decimal `json:"surgery_cost"`
	HospitalCost decimal.Decimal `json:"hospital_cost"`
	PerformedAt  *time.Time      `json:"performed_at,omitempty"`
	Team         []TeamMember    `json:"team"`
}

type surgeryResponse struct {
	*Surgery
	Team []*TeamMember `json:"team"`
}

func (h *Handler) CreateSurgery(c echo.Context) error {
	consultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consult id")
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	employeeID, err := auth.EmployeeIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	sg := &Surgery{
		Description:  req.Description,
		SurgeryCost:  req.SurgeryCost,
		HospitalCost: req.HospitalCost,
	}
	if req.PerformedAt != nil {
		sg.PerformedAt = *req.PerformedAt
	}
	team, err := h.svc.CreateFor(c.Request().Context(), consultID, employeeID, sg, req.Team)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, surgeryResponse{Surgery: sg, Team: team})
}

func (h *Handler) GetSurgery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sg, err := h.svc.GetSurgery(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	team, err := h.svc.TeamOf(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if team == nil {
		team = []*TeamMember{}
	}
	return c.JSON(http.StatusOK, surgeryResponse{Surgery: sg, Team: team})
}

func (h *Handler) ListConsultSurgeries(c echo.Context) error {
	consultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consult id")
	}
	items, err := h.svc.FindByConsultID(c.Request().Context(), consultID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if items == nil {
		items = []*Surgery{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ConsultSurgeriesTotal(c echo.Context) error {
	consultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consult id")
	}
	total, err := h.svc.TotalByConsult(c.Request().Context(), consultID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, total)
}
