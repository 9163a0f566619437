package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/pkg/utils"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// RestrictionHandler - обработчик запросов к дорожным ограничениям
type RestrictionHandler struct {
	restrictionUC *usecase.RestrictionUseCase
	logger        *zap.Logger
}

// NewRestrictionHandler создает новый экземпляр RestrictionHandler
func NewRestrictionHandler(restrictionUC *usecase.RestrictionUseCase, logger *zap.Logger) *RestrictionHandler {
	return &RestrictionHandler{
		restrictionUC: restrictionUC,
		logger:        logger,
	}
}

// Nearby godoc
// @Summary Restrictions near a point
// @Tags Restrictions
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius_km query number false "Radius in km"
// @Param limit query int false "Max results"
// @Param type query string false "Restriction type"
// @Success 200 {object} utils.SuccessResponse{data=dto.NearbyResponse[dto.RestrictionResult]}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/restrictions/nearby [get]
func (h *RestrictionHandler) Nearby(c *fiber.Ctx) error {
	var req dto.NearbyRestrictionsRequest
	if err := parseQuery(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.restrictionUC.Nearby(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// Alerts godoc
// @Summary Restrictions my vehicle cannot pass
// @Description Габариты из запроса, затем из настроек устройства, затем типового профиля ТС
// @Tags Restrictions
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius_km query number false "Radius in km"
// @Param height query number false "Vehicle height, m"
// @Param width query number false "Vehicle width, m"
// @Param weight query number false "Vehicle weight, t"
// @Param length query number false "Vehicle length, m"
// @Success 200 {object} utils.SuccessResponse{data=dto.AlertsResponse}
// @Failure 422 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/restrictions/alerts [get]
func (h *RestrictionHandler) Alerts(c *fiber.Ctx) error {
	var req dto.AlertRequest
	if err := parseQuery(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.restrictionUC.AlertsForMyVehicle(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// Create godoc
// @Summary Add a restriction
// @Tags Restrictions
// @Accept json
// @Produce json
// @Param request body dto.CreateRestrictionRequest true "Restriction"
// @Success 201 {object} utils.SuccessResponse{data=dto.CreatedResponse}
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/restrictions [post]
func (h *RestrictionHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRestrictionRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	id, err := h.restrictionUC.Create(c.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create restriction", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, id)
}

// GetByID godoc
// @Summary Get a restriction
// @Tags Restrictions
// @Produce json
// @Param id path int true "Restriction ID"
// @Success 200 {object} utils.SuccessResponse{data=dto.RestrictionResult}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/restrictions/{id} [get]
func (h *RestrictionHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	r, err := h.restrictionUC.GetByID(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, r, nil)
}

// Update godoc
// @Summary Update a restriction
// @Tags Restrictions
// @Accept json
// @Produce json
// @Param id path int true "Restriction ID"
// @Param request body dto.UpdateRestrictionRequest true "Changed fields"
// @Success 200 {object} utils.SuccessResponse{data=domain.Restriction}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/restrictions/{id} [put]
func (h *RestrictionHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.UpdateRestrictionRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	r, err := h.restrictionUC.Update(c.Context(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, r, nil)
}

// Confirm godoc
// @Summary Confirm a restriction
// @Tags Restrictions
// @Accept json
// @Produce json
// @Param id path int true "Restriction ID"
// @Param request body dto.ActorRequest false "Acting user"
// @Success 200 {object} utils.SuccessResponse{data=domain.Restriction}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/restrictions/{id}/confirm [post]
func (h *RestrictionHandler) Confirm(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.ActorRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	r, err := h.restrictionUC.Confirm(c.Context(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, r, nil)
}

// Report godoc
// @Summary Report wrong restriction data
// @Tags Restrictions
// @Accept json
// @Produce json
// @Param id path int true "Restriction ID"
// @Param request body dto.ReportRequest true "Reason"
// @Success 200 {object} utils.SuccessResponse{data=domain.Restriction}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/restrictions/{id}/report [post]
func (h *RestrictionHandler) Report(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.ReportRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	r, err := h.restrictionUC.Report(c.Context(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, r, nil)
}

// Deactivate godoc
// @Summary Remove a restriction
// @Tags Restrictions
// @Accept json
// @Param id path int true "Restriction ID"
// @Param request body dto.DeactivateRequest false "Reason"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/restrictions/{id} [delete]
func (h *RestrictionHandler) Deactivate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.DeactivateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.restrictionUC.Deactivate(c.Context(), id, req); err != nil {
		return utils.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ByRegion godoc
// @Summary Restrictions of a region
// @Tags Restrictions
// @Produce json
// @Param region path string true "Region code"
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=dto.ListResponse[dto.RestrictionResult]}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/restrictions/region/{region} [get]
func (h *RestrictionHandler) ByRegion(c *fiber.Ctx) error {
	result, err := h.restrictionUC.ByRegion(c.Context(), c.Params("region"), queryLimit(c))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// Types godoc
// @Summary Restriction types
// @Tags Restrictions
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]string}
// @Router /api/v1/restrictions/types [get]
func (h *RestrictionHandler) Types(c *fiber.Ctx) error {
	return utils.SendSuccess(c, domain.RestrictionTypes, &utils.Meta{Total: len(domain.RestrictionTypes)})
}

// Export godoc
// @Summary Export restrictions as GeoJSON
// @Tags Restrictions
// @Produce json
// @Param region query string false "Region code"
// @Success 200 {object} map[string]interface{} "GeoJSON FeatureCollection"
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/restrictions/export.geojson [get]
func (h *RestrictionHandler) Export(c *fiber.Ctx) error {
	fc, err := h.restrictionUC.ExportGeoJSON(c.Context(), c.Query("region"))
	if err != nil {
		return utils.SendError(c, err)
	}

	body, err := fc.MarshalJSON()
	if err != nil {
		h.logger.Error("Failed to marshal restrictions GeoJSON", zap.Error(err))
		return utils.SendError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(body)
}
