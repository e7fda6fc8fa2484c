package appointment

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
	api.GET("/doctors/:id/slots", h.ListSlots)
	api.GET("/doctors/:id/availability", h.CheckAvailability)

	api.POST("/appointments", h.Book)
	api.GET("/appointments/:id", h.Get)
	api.PUT("/appointments/:id/reschedule", h.Reschedule)
	api.PUT("/appointments/:id/status", h.UpdateStatus)
	api.GET("/patients/:id/appointments", h.ListByPatient)
	api.GET("/doctors/:id/appointments", h.ListByDoctorDate)

	api.GET("/doctors/:id/queue", h.GetQueue)
	api.POST("/doctors/:id/queue/call-next", h.CallNext)
}

func (h *Handler) ListSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid doctor id"))
	}

	list, err := h.svc.ListSlots(c.Request().Context(), doctorID, c.QueryParam("date"))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, list)
}

func (h *Handler) CheckAvailability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid doctor id"))
	}

	avail, err := h.svc.CheckAvailability(c.Request().Context(), doctorID, c.QueryParam("date"), c.QueryParam("time"))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, avail)
}

func (h *Handler) Book(c echo.Context) error {
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid request body"))
	}

	appt, err := h.svc.Book(c.Request().Context(), &req)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusCreated, appt)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid appointment id"))
	}

	appt, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, appt)
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid appointment id"))
	}

	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid request body"))
	}

	appt, err := h.svc.Reschedule(c.Request().Context(), id, req.Date, req.Time)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, appt)
}

type statusRequest struct {
	Status             Status  `json:"status"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid appointment id"))
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid request body"))
	}

	appt, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status, req.CancellationReason)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, appt)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid patient id"))
	}
	page := pagination.FromContext(c)

	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, page.Limit, page.Offset)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, pagination.NewResponse(items, total, page.Limit, page.Offset))
}

func (h *Handler) ListByDoctorDate(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid doctor id"))
	}
	page := pagination.FromContext(c)

	items, total, err := h.svc.ListByDoctorDate(c.Request().Context(), doctorID,
		c.QueryParam("date"), Status(c.QueryParam("status")), page.Limit, page.Offset)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, pagination.NewResponse(items, total, page.Limit, page.Offset))
}

func (h *Handler) GetQueue(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid doctor id"))
	}

	entries, err := h.svc.GetQueue(c.Request().Context(), doctorID, c.QueryParam("date"))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, entries)
}

func (h *Handler) CallNext(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, apperr.Validation(apperr.CodeInvalidInput, "invalid doctor id"))
	}

	entry, err := h.svc.CallNext(c.Request().Context(), doctorID, c.QueryParam("date"))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, http.StatusOK, entry)
}
