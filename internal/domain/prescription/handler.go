package prescription

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	g := api.Group("/prescriptions", auth.RequireRole("ADMIN", "DOCTOR", "NURSE", "SECRETARY", "BIOLOGIST"))
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.POST("/:id/send-to-lab", h.SendToLab)
	g.POST("/:id/collect-sample", h.CollectSample)
	g.POST("/:id/start-analysis", h.StartAnalysis)
	g.PATCH("/:id/status", h.UpdateStatus)

	read := api.Group("", auth.RequireRole("ADMIN", "DOCTOR", "NURSE", "SECRETARY", "BIOLOGIST"))
	read.GET("/patients/:id/prescriptions", h.ListByPatient)
	read.GET("/doctors/:id/prescriptions", h.ListByDoctor)
}

type createRequest struct {
	PatientID     uuid.UUID  `json:"patient_id"`
	DoctorID      *uuid.UUID `json:"doctor_id"`
	AppointmentID *uuid.UUID `json:"appointment_id"`
	OrderText     string     `json:"order_text"`
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
	p := &Prescription{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		OrderText:     req.OrderText,
	}
	if req.DoctorID != nil {
		p.DoctorID = *req.DoctorID
	}
	created, err := h.svc.Create(c.Request().Context(), p, actorID)
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
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SendToLab(c echo.Context) error {
	return h.transition(c, h.svc.SendToLab)
}

func (h *Handler) CollectSample(c echo.Context) error {
	return h.transition(c, h.svc.CollectSample)
}

func (h *Handler) StartAnalysis(c echo.Context) error {
	return h.transition(c, h.svc.StartAnalysis)
}

type updateStatusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actorID, err := actor(c)
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}
	p, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status, actorID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	return h.list(c, h.svc.ListByPatient)
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	return h.list(c, h.svc.ListByDoctor)
}

func (h *Handler) transition(c echo.Context, fn func(ctx context.Context, id, actorID uuid.UUID) (*Prescription, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actorID, err := actor(c)
	if err != nil {
		return err
	}
	p, err := fn(c.Request().Context(), id, actorID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) list(c echo.Context, fn func(ctx context.Context, id uuid.UUID, limit, offset int) ([]*Prescription, int, error)) error {
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

func actor(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}
	return id, nil
}
