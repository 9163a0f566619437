package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/siempreabierto/internal/pkg/geo"
	"github.com/siempreabierto/internal/pkg/utils"
	"github.com/siempreabierto/internal/pkg/validator"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// SettingsHandler - настройки устройства (singleton)
type SettingsHandler struct {
	settingsUC *usecase.SettingsUseCase
	logger     *zap.Logger
}

// NewSettingsHandler создает новый экземпляр SettingsHandler
func NewSettingsHandler(settingsUC *usecase.SettingsUseCase, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsUC: settingsUC,
		logger:     logger,
	}
}

// Get godoc
// @Summary Device settings
// @Tags Settings
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.UserSettings}
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/settings [get]
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.settingsUC.Get(c.Context())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, settings, nil)
}

// UpdateVehicle godoc
// @Summary Set the vehicle profile
// @Description Незаданные габариты берутся из типового профиля ТС
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body dto.UpdateVehicleRequest true "Vehicle"
// @Success 200 {object} utils.SuccessResponse{data=domain.UserSettings}
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/settings/vehicle [put]
func (h *SettingsHandler) UpdateVehicle(c *fiber.Ctx) error {
	var req dto.UpdateVehicleRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	settings, err := h.settingsUC.UpdateVehicle(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, settings, nil)
}

// UpdatePreferences godoc
// @Summary Update preferences
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body dto.UpdatePreferencesRequest true "Changed preferences"
// @Success 200 {object} utils.SuccessResponse{data=domain.UserSettings}
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/settings/preferences [put]
func (h *SettingsHandler) UpdatePreferences(c *fiber.Ctx) error {
	var req dto.UpdatePreferencesRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	settings, err := h.settingsUC.UpdatePreferences(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, settings, nil)
}

// AddRegion godoc
// @Summary Mark a region as downloaded
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body dto.RegionRequest true "Region"
// @Success 200 {object} utils.SuccessResponse{data=domain.UserSettings}
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/settings/regions [post]
func (h *SettingsHandler) AddRegion(c *fiber.Ctx) error {
	var req dto.RegionRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	settings, err := h.settingsUC.AddRegion(c.Context(), req.Region)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, settings, nil)
}

// RemoveRegion godoc
// @Summary Remove a downloaded region
// @Description Удаляет регион из списка и стирает его места и ограничения
// @Tags Settings
// @Produce json
// @Param region path string true "Region code"
// @Success 200 {object} utils.SuccessResponse{data=domain.UserSettings}
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/settings/regions/{region} [delete]
func (h *SettingsHandler) RemoveRegion(c *fiber.Ctx) error {
	req := dto.RegionRequest{Region: c.Params("region")}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	settings, err := h.settingsUC.RemoveRegion(c.Context(), req.Region)
	if err != nil {
		return utils.SendError(c, err)
	}

	h.logger.Info("Region removed", zap.String("region", req.Region))
	return utils.SendSuccess(c, settings, nil)
}

// AcceptTerms godoc
// @Summary Accept terms and privacy policy
// @Tags Settings
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.UserSettings}
// @Router /api/v1/settings/accept-terms [post]
func (h *SettingsHandler) AcceptTerms(c *fiber.Ctx) error {
	settings, err := h.settingsUC.AcceptTerms(c.Context())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, settings, nil)
}

// RebuildCounters godoc
// @Summary Recompute contribution counters from the ledger
// @Tags Settings
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.UserSettings}
// @Router /api/v1/settings/rebuild-counters [post]
func (h *SettingsHandler) RebuildCounters(c *fiber.Ctx) error {
	settings, err := h.settingsUC.RebuildCounters(c.Context())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, settings, nil)
}

// ClearAllData godoc
// @Summary Wipe all local data
// @Description Удаляет все записи и журнал; настройки остаются, счётчики обнуляются
// @Tags Settings
// @Success 204
// @Router /api/v1/settings/data [delete]
func (h *SettingsHandler) ClearAllData(c *fiber.Ctx) error {
	if err := h.settingsUC.ClearAllData(c.Context()); err != nil {
		h.logger.Error("Failed to clear data", zap.Error(err))
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// VehicleProfiles godoc
// @Summary Vehicle profiles with default dimensions
// @Tags Settings
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]domain.VehicleProfile}
// @Router /api/v1/vehicle-profiles [get]
func (h *SettingsHandler) VehicleProfiles(c *fiber.Ctx) error {
	profiles := h.settingsUC.VehicleProfiles()
	return utils.SendSuccess(c, profiles, &utils.Meta{Total: len(profiles)})
}

// Regions godoc
// @Summary Regions of Spain
// @Tags Settings
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]geo.RegionInfo}
// @Router /api/v1/regions [get]
func (h *SettingsHandler) Regions(c *fiber.Ctx) error {
	regions := geo.Regions()
	return utils.SendSuccess(c, regions, &utils.Meta{Total: len(regions)})
}
