package result

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/workflow"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/results", auth.RequireRole("ADMIN", "DOCTOR", "BIOLOGIST", "RADIOLOGIST"))
	g.POST("", h.Create)
	g.GET("/pending-review", h.PendingReview)
	g.GET("/:id", h.Get)
	g.PUT("/:id/payload", h.UpdatePayload)
	g.POST("/:id/review", h.Review)

	read := api.Group("", auth.RequireRole("ADMIN", "DOCTOR", "BIOLOGIST", "RADIOLOGIST"))
	read.GET("/prescriptions/:id/result", h.GetByPrescription)
}

type createRequest struct {
	PrescriptionID uuid.UUID `json:"prescription_id"`
	Values         Values    `json:"values"`
	Narrative      string    `json:"narrative"`
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
	res, err := h.svc.Create(c.Request().Context(), req.PrescriptionID, req.Values, req.Narrative, actorID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	res, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) GetByPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	res, err := h.svc.GetByPrescription(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

type updatePayloadRequest struct {
	Values    Values `json:"values"`
	Narrative string `json:"narrative"`
}

func (h *Handler) UpdatePayload(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actorID, err := actor(c)
	if err != nil {
		return err
	}
	var req updatePayloadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.UpdatePayload(c.Request().Context(), id, req.Values, req.Narrative, actorID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

type reviewRequest struct {
	Interpretation  string  `json:"interpretation"`
	Recommendations *string `json:"recommendations"`
}

func (h *Handler) Review(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actorID, err := actor(c)
	if err != nil {
		return err
	}
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.Review(c.Request().Context(), id, actorID, req.Interpretation, req.Recommendations)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

// PendingReview lists the caller's unreviewed results.
func (h *Handler) PendingReview(c echo.Context) error {
	actorID, err := actor(c)
	if err != nil {
		return err
	}
	results, err := h.svc.GetPendingReviewForDoctor(c.Request().Context(), actorID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, results)
}

func actor(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}
	return id, nil
}
