package schedule

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinq/clinq/internal/platform/apperr"
	"github.com/clinq/clinq/pkg/pagination"
	"github.com/clinq/clinq/pkg/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/doctors/:id/availability-windows", h.CreateWindow)
	api.GET("/doctors/:id/availability-windows", h.ListWindows)
	api.PUT("/availability-windows/:id", h.UpdateWindow)

	api.POST("/doctors/:id/leaves", h.CreateLeave)
	api.GET("/doctors/:id/leaves", h.ListLeaves)
	api.PUT("/leaves/:id/status", h.UpdateLeaveStatus)
}

func (h *Handler) CreateWindow(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid doctor id"))
	}

	var w WeeklyAvailability
	if err := c.Bind(&w); err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid request body"))
	}
	w.DoctorID = doctorID
	w.Active = true

	if err := h.svc.CreateWindow(c.Request().Context(), &w); err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusCreated, w)
}

func (h *Handler) ListWindows(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid doctor id"))
	}

	items, err := h.svc.ListWindows(c.Request().Context(), doctorID)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, items)
}

func (h *Handler) UpdateWindow(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid window id"))
	}

	var w WeeklyAvailability
	if err := c.Bind(&w); err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid request body"))
	}
	w.ID = id

	if err := h.svc.UpdateWindow(c.Request().Context(), &w); err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, w)
}

func (h *Handler) CreateLeave(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid doctor id"))
	}

	var l LeaveRecord
	if err := c.Bind(&l); err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid request body"))
	}
	l.DoctorID = doctorID

	if err := h.svc.CreateLeave(c.Request().Context(), &l); err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusCreated, l)
}

func (h *Handler) ListLeaves(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid doctor id"))
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListLeaves(c.Request().Context(), doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateLeaveStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid leave id"))
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid request body"))
	}

	l, err := h.svc.UpdateLeaveStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, l)
}
