package audit

import (
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
	g := api.Group("", auth.RequireRole("ADMIN"))
	g.GET("/audit/entities/:type/:id", h.QueryByEntity)
	g.GET("/audit/actors/:id", h.QueryByActor)
}

func (h *Handler) QueryByEntity(c echo.Context) error {
	entityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	entries, err := h.svc.QueryByEntity(c.Request().Context(), c.Param("type"), entityID)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) QueryByActor(c echo.Context) error {
	actorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	entries, total, err := h.svc.QueryByActor(c.Request().Context(), actorID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(workflow.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}
