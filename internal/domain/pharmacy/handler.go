package pharmacy

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	readGroup.GET("/medicines", h.ListMedicines)
	readGroup.GET("/medicines/:id", h.GetMedicine)
	readGroup.GET("/consults/:id/medicine-sales", h.ListConsultSales)
	readGroup.GET("/consults/:id/medicine-sales/total", h.ConsultSalesTotal)

	chargeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePhysician, auth.RoleNurse))
	chargeGroup.POST("/consults/:id/medicine-sales", h.CreateConsultSale)

	counterGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleNurse, auth.RoleCashier))
	counterGroup.POST("/medicine-sales", h.CreateCounterSale)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("/medicines", h.CreateMedicine)
}

type saleRequest struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
}

// -- Catalogue Handlers --

func (h *Handler) CreateMedicine(c echo.Context) error {
	var m Medicine
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateMedicine(c.Request().Context(), &m); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetMedicine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.GetMedicine(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMedicines(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMedicines(c.Request().Context(), c.QueryParam("name"), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithNext(c))
}

// -- Sale Handlers --

func (h *Handler) CreateConsultSale(c echo.Context) error {
	consultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consult id")
	}
	var req saleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	employeeID, err := auth.EmployeeIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	sale, err := h.svc.CreateFor(c.Request().Context(), consultID, req.MedicineID, req.Quantity, employeeID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, sale)
}

func (h *Handler) CreateCounterSale(c echo.Context) error {
	var req saleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	employeeID, err := auth.EmployeeIDFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	sale, err := h.svc.CreateCounterSale(c.Request().Context(), req.MedicineID, req.Quantity, employeeID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, sale)
}

func (h *Handler) ListConsultSales(c echo.Context) error {
	consultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consult id")
	}
	items, err := h.svc.FindByConsultID(c.Request().Context(), consultID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if items == nil {
		items = []*SaleMedicine{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ConsultSalesTotal(c echo.Context) error {
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
