package appointment

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/vitals"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/workflow"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/platform/auth"
	"github.com/Flinguee75/MEDECINE-APP-sub001/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/appointments", auth.RequireRole("ADMIN", "DOCTOR", "NURSE", "SECRETARY"))
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/status-history", h.StatusHistory)
	g.POST("/:id/check-in", h.CheckIn)
	g.POST("/:id/request-vitals", h.RequestVitals)
	g.POST("/:id/vitals", h.EnterVitals)
	g.POST("/:id/begin-consultation", h.BeginConsultation)
	g.POST("/:id/waiting-results", h.MarkWaitingResults)
	g.POST("/:id/complete-consultation", h.CompleteConsultation)
	g.POST("/:id/close", h.Close)
	g.POST("/:id/auto-save-notes", h.AutoSaveNotes)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Cancel)

	read := api.Group("", auth.RequireRole("ADMIN", "DOCTOR", "NURSE", "SECRETARY"))
	read.GET("/patients/:id/appointments", h.ListByPatient)
	read.GET("/doctors/:id/appointments", h.ListByDoctor)
}

type createRequest struct {
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason"`
}

func (h *Handler) Create(c echo.Context) error {
	actorID, err := actor(c)
	if err != nil {
		return err
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a := &Appointment{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		ScheduledAt: req.ScheduledAt,
		Reason:      req.Reason,
	}
	created, err := h.svc.Create(c.Request().Context(), a, actorID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	return h.list(c, h.svc.ListByPatient)
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	return h.list(c, h.svc.ListByDoctor)
}

func (h *Handler) StatusHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	history, err := h.svc.StatusHistory(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, history)
}

func (h *Handler) CheckIn(c echo.Context) error {
	return h.transition(c, h.svc.CheckIn)
}

func (h *Handler) RequestVitals(c echo.Context) error {
	return h.transition(c, h.svc.RequestVitals)
}

type enterVitalsRequest struct {
	Measurements        *vitals.Measurements `json:"measurements"`
	MedicalHistoryNotes *string              `json:"medical_history_notes"`
}

func (h *Handler) EnterVitals(c echo.Context) error {
	id, actorID, err := idAndActor(c)
	if err != nil {
		return err
	}
	var req enterVitalsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.EnterVitals(c.Request().Context(), id, req.Measurements, req.MedicalHistoryNotes, actorID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) BeginConsultation(c echo.Context) error {
	return h.transition(c, h.svc.BeginConsultation)
}

func (h *Handler) MarkWaitingResults(c echo.Context) error {
	return h.transition(c, h.svc.MarkWaitingResults)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) CompleteConsultation(c echo.Context) error {
	id, actorID, err := idAndActor(c)
	if err != nil {
		return err
	}
	var req notesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.CompleteConsultation(c.Request().Context(), id, req.Notes, actorID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

type closeRequest struct {
	BillingAmount float64 `json:"billing_amount"`
	BillingStatus string  `json:"billing_status"`
}

func (h *Handler) Close(c echo.Context) error {
	id, actorID, err := idAndActor(c)
	if err != nil {
		return err
	}
	var req closeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Close(c.Request().Context(), id, req.BillingAmount, req.BillingStatus, actorID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) AutoSaveNotes(c echo.Context) error {
	id, actorID, err := idAndActor(c)
	if err != nil {
		return err
	}
	var req notesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.AutoSaveConsultationNotes(c.Request().Context(), id, req.Notes, actorID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

type updateRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	Reason      *string    `json:"reason"`
	DoctorID    *uuid.UUID `json:"doctor_id"`
	UpdateNote  *string    `json:"update_note"`
}

func (h *Handler) Update(c echo.Context) error {
	id, actorID, err := idAndActor(c)
	if err != nil {
		return err
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	changes := UpdateChanges{
		ScheduledAt: req.ScheduledAt,
		Reason:      req.Reason,
		DoctorID:    req.DoctorID,
	}
	a, err := h.svc.UpdateWithAudit(c.Request().Context(), id, changes, req.UpdateNote, actorID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel)
}

func (h *Handler) transition(c echo.Context, fn func(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error)) error {
	id, actorID, err := idAndActor(c)
	if err != nil {
		return err
	}
	a, err := fn(c.Request().Context(), id, actorID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) list(c echo.Context, fn func(ctx context.Context, id uuid.UUID, limit, offset int) ([]*Appointment, int, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := fn(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func idAndActor(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actorID, err := actor(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return id, actorID, nil
}

func actor(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}
	return id, nil
}
