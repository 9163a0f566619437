package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/siempreabierto/internal/pkg/utils"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// HelperHandler - профили помощников на дороге
type HelperHandler struct {
	helperUC *usecase.HelperUseCase
	logger   *zap.Logger
}

// NewHelperHandler создает новый экземпляр HelperHandler
func NewHelperHandler(helperUC *usecase.HelperUseCase, logger *zap.Logger) *HelperHandler {
	return &HelperHandler{
		helperUC: helperUC,
		logger:   logger,
	}
}

// Register godoc
// @Summary Register as a helper
// @Description Один профиль на устройство
// @Tags Helpers
// @Accept json
// @Produce json
// @Param request body dto.RegisterHelperRequest true "Helper profile"
// @Success 201 {object} utils.SuccessResponse{data=dto.CreatedResponse}
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/helpers [post]
func (h *HelperHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterHelperRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	id, err := h.helperUC.Register(c.Context(), req)
	if err != nil {
		h.logger.Warn("Failed to register helper", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, id)
}

// Me godoc
// @Summary My helper profile
// @Tags Helpers
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.Helper}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/helpers/me [get]
func (h *HelperHandler) Me(c *fiber.Ctx) error {
	helper, err := h.helperUC.MyProfile(c.Context())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, helper, nil)
}

// GetByID godoc
// @Summary Get a helper
// @Description Телефон отдаётся только если помощник разрешил его показывать
// @Tags Helpers
// @Produce json
// @Param id path int true "Helper ID"
// @Success 200 {object} utils.SuccessResponse{data=dto.HelperResult}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/helpers/{id} [get]
func (h *HelperHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	helper, err := h.helperUC.GetByID(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, helper, nil)
}

// Update godoc
// @Summary Update a helper profile
// @Tags Helpers
// @Accept json
// @Produce json
// @Param id path int true "Helper ID"
// @Param request body dto.UpdateHelperRequest true "Changed fields"
// @Success 200 {object} utils.SuccessResponse{data=domain.Helper}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/helpers/{id} [put]
func (h *HelperHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.UpdateHelperRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	helper, err := h.helperUC.Update(c.Context(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, helper, nil)
}

// SetAvailability godoc
// @Summary Toggle helper availability
// @Tags Helpers
// @Accept json
// @Produce json
// @Param id path int true "Helper ID"
// @Param request body dto.AvailabilityRequest true "Availability"
// @Success 200 {object} utils.SuccessResponse{data=domain.Helper}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/helpers/{id}/availability [put]
func (h *HelperHandler) SetAvailability(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.AvailabilityRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	helper, err := h.helperUC.SetAvailability(c.Context(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, helper, nil)
}

// Deactivate godoc
// @Summary Remove a helper profile
// @Tags Helpers
// @Accept json
// @Param id path int true "Helper ID"
// @Param request body dto.DeactivateRequest false "Reason"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/helpers/{id} [delete]
func (h *HelperHandler) Deactivate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.DeactivateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.helperUC.Deactivate(c.Context(), id, req); err != nil {
		return utils.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Nearby godoc
// @Summary Available helpers covering a point
// @Tags Helpers
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius_km query number false "Radius in km"
// @Param limit query int false "Max results"
// @Param help_type query string false "Help type"
// @Success 200 {object} utils.SuccessResponse{data=dto.NearbyResponse[dto.HelperResult]}
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/helpers/nearby [get]
func (h *HelperHandler) Nearby(c *fiber.Ctx) error {
	var req dto.NearbyHelpersRequest
	if err := parseQuery(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.helperUC.Nearby(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// HelpTypes godoc
// @Summary Help types a helper can offer
// @Tags Helpers
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Category}
// @Router /api/v1/helpers/help-types [get]
func (h *HelperHandler) HelpTypes(c *fiber.Ctx) error {
	types := h.helperUC.HelpTypes()
	return utils.SendSuccess(c, types, &utils.Meta{Total: len(types)})
}
