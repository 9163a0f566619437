package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/siempreabierto/internal/pkg/utils"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// RouteHandler - сохранённые и рекомендованные сообществом маршруты
type RouteHandler struct {
	routeUC *usecase.RouteUseCase
	logger  *zap.Logger
}

// NewRouteHandler создает новый экземпляр RouteHandler
func NewRouteHandler(routeUC *usecase.RouteUseCase, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		routeUC: routeUC,
		logger:  logger,
	}
}

// Create godoc
// @Summary Save a route
// @Description Геометрия - GeoJSON LineString; без неё маршрут строится по точкам начала и конца
// @Tags Routes
// @Accept json
// @Produce json
// @Param request body dto.CreateRouteRequest true "Route"
// @Success 201 {object} utils.SuccessResponse{data=dto.CreatedResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/routes [post]
func (h *RouteHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRouteRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	id, err := h.routeUC.Create(c.Context(), req)
	if err != nil {
		h.logger.Warn("Failed to create route", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, id)
}

// List godoc
// @Summary List routes
// @Tags Routes
// @Produce json
// @Param vehicle_type query string false "Vehicle type"
// @Param public query bool false "Only public routes"
// @Param favorites query bool false "Only favorites"
// @Param region query string false "Region code of the origin"
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=dto.ListResponse[dto.RouteResult]}
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/routes [get]
func (h *RouteHandler) List(c *fiber.Ctx) error {
	var filter dto.RouteFilter
	if err := parseQuery(c, &filter); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.routeUC.List(c.Context(), filter)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// ForMyVehicle godoc
// @Summary Routes suitable for my vehicle
// @Tags Routes
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=dto.ListResponse[dto.RouteResult]}
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/routes/for-my-vehicle [get]
func (h *RouteHandler) ForMyVehicle(c *fiber.Ctx) error {
	result, err := h.routeUC.ForMyVehicle(c.Context(), queryLimit(c))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// Nearby godoc
// @Summary Routes starting near a point
// @Tags Routes
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius_km query number false "Radius in km"
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=dto.NearbyResponse[dto.RouteResult]}
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/routes/nearby [get]
func (h *RouteHandler) Nearby(c *fiber.Ctx) error {
	var req dto.NearbyRequest
	if err := parseQuery(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.routeUC.Nearby(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// GetByID godoc
// @Summary Get a route
// @Tags Routes
// @Produce json
// @Param id path int true "Route ID"
// @Success 200 {object} utils.SuccessResponse{data=dto.RouteResult}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id} [get]
func (h *RouteHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.routeUC.GetByID(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// Geometry godoc
// @Summary Route geometry as GeoJSON
// @Tags Routes
// @Produce json
// @Param id path int true "Route ID"
// @Success 200 {object} map[string]interface{} "GeoJSON LineString"
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id}/geometry [get]
func (h *RouteHandler) Geometry(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	body, err := h.routeUC.GeoJSON(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(body)
}

// Vote godoc
// @Summary Vote for a route
// @Tags Routes
// @Accept json
// @Produce json
// @Param id path int true "Route ID"
// @Param request body dto.VoteRequest true "Vote"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id}/vote [post]
func (h *RouteHandler) Vote(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.VoteRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.routeUC.Vote(c.Context(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// ToggleFavorite godoc
// @Summary Toggle route favorite flag
// @Tags Routes
// @Produce json
// @Param id path int true "Route ID"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id}/favorite [post]
func (h *RouteHandler) ToggleFavorite(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.routeUC.ToggleFavorite(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// RecordUsage godoc
// @Summary Mark a route as used
// @Tags Routes
// @Param id path int true "Route ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id}/use [post]
func (h *RouteHandler) RecordUsage(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := h.routeUC.RecordUsage(c.Context(), id); err != nil {
		return utils.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Delete godoc
// @Summary Remove a route
// @Tags Routes
// @Accept json
// @Param id path int true "Route ID"
// @Param request body dto.DeactivateRequest false "Reason"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id} [delete]
func (h *RouteHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.DeactivateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.routeUC.Delete(c.Context(), id, req); err != nil {
		return utils.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
