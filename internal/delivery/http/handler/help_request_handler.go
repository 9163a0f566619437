package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/siempreabierto/internal/pkg/utils"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// HelpRequestHandler - запросы помощи на дороге
type HelpRequestHandler struct {
	helpRequestUC *usecase.HelpRequestUseCase
	logger        *zap.Logger
}

// NewHelpRequestHandler создает новый экземпляр HelpRequestHandler
func NewHelpRequestHandler(helpRequestUC *usecase.HelpRequestUseCase, logger *zap.Logger) *HelpRequestHandler {
	return &HelpRequestHandler{
		helpRequestUC: helpRequestUC,
		logger:        logger,
	}
}

// Create godoc
// @Summary Ask for help
// @Description Место встречи - публичная точка (АЗС, area de servicio, километровый столб), не домашний адрес
// @Tags HelpRequests
// @Accept json
// @Produce json
// @Param request body dto.CreateHelpRequestRequest true "Help request"
// @Success 201 {object} utils.SuccessResponse{data=dto.CreatedResponse}
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/help-requests [post]
func (h *HelpRequestHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateHelpRequestRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	id, err := h.helpRequestUC.Create(c.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create help request", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, id)
}

// GetByID godoc
// @Summary Get a help request
// @Tags HelpRequests
// @Produce json
// @Param id path int true "Help request ID"
// @Success 200 {object} utils.SuccessResponse{data=dto.HelpRequestResult}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/help-requests/{id} [get]
func (h *HelpRequestHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	r, err := h.helpRequestUC.GetByID(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, r, nil)
}

// NearbyPending godoc
// @Summary Pending help requests near a point
// @Tags HelpRequests
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius_km query number false "Radius in km"
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=dto.NearbyResponse[dto.HelpRequestResult]}
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/help-requests/nearby [get]
func (h *HelpRequestHandler) NearbyPending(c *fiber.Ctx) error {
	var req dto.NearbyRequest
	if err := parseQuery(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.helpRequestUC.NearbyPending(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// Mine godoc
// @Summary Help requests of a requester
// @Description Без requester_id - запросы локального пользователя
// @Tags HelpRequests
// @Produce json
// @Param requester_id query string false "Requester ID"
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=dto.ListResponse[dto.HelpRequestResult]}
// @Router /api/v1/help-requests/mine [get]
func (h *HelpRequestHandler) Mine(c *fiber.Ctx) error {
	result, err := h.helpRequestUC.ByRequester(c.Context(), c.Query("requester_id"), queryLimit(c))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// Accept godoc
// @Summary Accept a pending help request
// @Tags HelpRequests
// @Accept json
// @Produce json
// @Param id path int true "Help request ID"
// @Param request body dto.AcceptHelpRequest true "Helper"
// @Success 200 {object} utils.SuccessResponse{data=domain.HelpRequest}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/help-requests/{id}/accept [post]
func (h *HelpRequestHandler) Accept(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.AcceptHelpRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	r, err := h.helpRequestUC.Accept(c.Context(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, r, nil)
}

// Complete godoc
// @Summary Complete an accepted help request
// @Tags HelpRequests
// @Accept json
// @Produce json
// @Param id path int true "Help request ID"
// @Param request body dto.CompleteHelpRequest false "Rating and feedback"
// @Success 200 {object} utils.SuccessResponse{data=domain.HelpRequest}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/help-requests/{id}/complete [post]
func (h *HelpRequestHandler) Complete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.CompleteHelpRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	r, err := h.helpRequestUC.Complete(c.Context(), id, req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, r, nil)
}

// Cancel godoc
// @Summary Cancel a help request
// @Tags HelpRequests
// @Produce json
// @Param id path int true "Help request ID"
// @Success 200 {object} utils.SuccessResponse{data=domain.HelpRequest}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/help-requests/{id}/cancel [post]
func (h *HelpRequestHandler) Cancel(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	r, err := h.helpRequestUC.Cancel(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, r, nil)
}

// ProblemTypes godoc
// @Summary Problem types
// @Tags HelpRequests
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Category}
// @Router /api/v1/help-requests/problem-types [get]
func (h *HelpRequestHandler) ProblemTypes(c *fiber.Ctx) error {
	types := h.helpRequestUC.ProblemTypes()
	return utils.SendSuccess(c, types, &utils.Meta{Total: len(types)})
}
