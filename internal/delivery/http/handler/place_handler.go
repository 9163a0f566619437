package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/siempreabierto/internal/pkg/utils"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// PlaceHandler - обработчик запросов к местам сообщества
type PlaceHandler struct {
	placeUC *usecase.PlaceUseCase
	logger  *zap.Logger
}

// NewPlaceHandler создает новый экземпляр PlaceHandler
func NewPlaceHandler(placeUC *usecase.PlaceUseCase, logger *zap.Logger) *PlaceHandler {
	return &PlaceHandler{
		placeUC: placeUC,
		logger:  logger,
	}
}

// Nearby godoc
// @Summary Places near a point
// @Description Места в радиусе от точки, от ближних к дальним
// @Tags Places
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius_km query number false "Radius in km"
// @Param limit query int false "Max results"
// @Param category query string false "Category code"
// @Param only_24h query bool false "Only 24h places"
// @Param truck_friendly query bool false "Only places that fit a truck"
// @Success 200 {object} utils.SuccessResponse{data=dto.NearbyResponse[dto.PlaceResult]}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/places/nearby [get]
func (h *PlaceHandler) Nearby(c *fiber.Ctx) error {
	var req dto.NearbyPlacesRequest
	if err := parseQuery(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.placeUC.Nearby(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// Search godoc
// @Summary Search places by text
// @Description Поиск по названию, городу и адресу
// @Tags Places
// @Produce json
// @Param q query string true "Text to search"
// @Param category query string false "Category code"
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=dto.ListResponse[dto.PlaceResult]}
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/places/search [get]
func (h *PlaceHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchPlacesRequest
	if err := parseQuery(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.placeUC.Search(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// Create godoc
// @Summary Add a place
// @Description Создаёт место и записывает вклад в журнал
// @Tags Places
// @Accept json
// @Produce json
// @Param request body dto.CreatePlaceRequest true "Place"
// @Success 201 {object} utils.SuccessResponse{data=dto.CreatedResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/places [post]
func (h *PlaceHandler) Create(c *fiber.Ctx) error {
	var req dto.CreatePlaceRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	id, err := h.placeUC.Create(c.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create place", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, id)
}

// GetByID godoc
// @Summary Get a place
// @Tags Places
// @Produce json
// @Param id path int true "Place ID"
// @Success 200 {object} utils.SuccessResponse{data=dto.PlaceResult}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/places/{id} [get]
func (h *PlaceHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	place, err := h.placeUC.GetByID(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, place, nil)
}

// Update godoc
// @Summary Update a place
// @Description Меняет только переданные поля; по каждому изменённому полю пишется запись в журнал
// @Tags Places
// @Accept json
// @Produce json
// @Param id path int true "Place ID"
// @Param request body dto.UpdatePlaceRequest true "Changed fields"
// @Success 200 {object} utils.SuccessResponse{data=domain.Place}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/places/{id} [put]
func (h *PlaceHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.UpdatePlaceRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	place, err := h.placeUC.Update(c.Context(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, place, nil)
}

// Confirm godoc
// @Summary Confirm a place is still there
// @Tags Places
// @Accept json
// @Produce json
// @Param id path int true "Place ID"
// @Param request body dto.ActorRequest false "Acting user"
// @Success 200 {object} utils.SuccessResponse{data=domain.Place}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/places/{id}/confirm [post]
func (h *PlaceHandler) Confirm(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.ActorRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	place, err := h.placeUC.Confirm(c.Context(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, place, nil)
}

// Report godoc
// @Summary Report wrong place data
// @Tags Places
// @Accept json
// @Produce json
// @Param id path int true "Place ID"
// @Param request body dto.ReportRequest true "Reason"
// @Success 200 {object} utils.SuccessResponse{data=domain.Place}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/places/{id}/report [post]
func (h *PlaceHandler) Report(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.ReportRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	place, err := h.placeUC.Report(c.Context(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, place, nil)
}

// Deactivate godoc
// @Summary Remove a place
// @Description Мягкое удаление: запись и её история остаются
// @Tags Places
// @Accept json
// @Param id path int true "Place ID"
// @Param request body dto.DeactivateRequest false "Reason"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/places/{id} [delete]
func (h *PlaceHandler) Deactivate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.DeactivateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.placeUC.Deactivate(c.Context(), id, req); err != nil {
		return utils.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ByCategory godoc
// @Summary Places of a category
// @Tags Places
// @Produce json
// @Param category path string true "Category code"
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=dto.ListResponse[dto.PlaceResult]}
// @Router /api/v1/places/category/{category} [get]
func (h *PlaceHandler) ByCategory(c *fiber.Ctx) error {
	result, err := h.placeUC.ByCategory(c.Context(), c.Params("category"), queryLimit(c))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// ByRegion godoc
// @Summary Places of a region
// @Tags Places
// @Produce json
// @Param region path string true "Region code"
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=dto.ListResponse[dto.PlaceResult]}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/places/region/{region} [get]
func (h *PlaceHandler) ByRegion(c *fiber.Ctx) error {
	result, err := h.placeUC.ByRegion(c.Context(), c.Params("region"), queryLimit(c))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// NeedingReview godoc
// @Summary Places reported by the community
// @Tags Places
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=dto.ListResponse[dto.PlaceResult]}
// @Router /api/v1/places/review [get]
func (h *PlaceHandler) NeedingReview(c *fiber.Ctx) error {
	result, err := h.placeUC.NeedingReview(c.Context(), queryLimit(c))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// Categories godoc
// @Summary Place categories
// @Tags Places
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Category}
// @Router /api/v1/places/categories [get]
func (h *PlaceHandler) Categories(c *fiber.Ctx) error {
	categories := h.placeUC.Categories()
	return utils.SendSuccess(c, categories, &utils.Meta{Total: len(categories)})
}

// Export godoc
// @Summary Export places as GeoJSON
// @Tags Places
// @Produce json
// @Param region query string false "Region code"
// @Param category query string false "Category code"
// @Success 200 {object} map[string]interface{} "GeoJSON FeatureCollection"
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/places/export.geojson [get]
func (h *PlaceHandler) Export(c *fiber.Ctx) error {
	fc, err := h.placeUC.ExportGeoJSON(c.Context(), c.Query("region"), c.Query("category"))
	if err != nil {
		return utils.SendError(c, err)
	}

	body, err := fc.MarshalJSON()
	if err != nil {
		h.logger.Error("Failed to marshal places GeoJSON", zap.Error(err))
		return utils.SendError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(body)
}
