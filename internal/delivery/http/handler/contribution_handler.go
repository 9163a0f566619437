package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/pkg/utils"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// ContributionHandler - журнал вкладов сообщества
type ContributionHandler struct {
	contributionUC *usecase.ContributionUseCase
	logger         *zap.Logger
}

// NewContributionHandler создает новый экземпляр ContributionHandler
func NewContributionHandler(contributionUC *usecase.ContributionUseCase, logger *zap.Logger) *ContributionHandler {
	return &ContributionHandler{
		contributionUC: contributionUC,
		logger:         logger,
	}
}

// parseTarget собирает цель из :type и :id
func parseTarget(c *fiber.Ctx) (domain.Target, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.ErrInvalidTarget
	}
	target, err := domain.NewTarget(domain.TargetType(c.Params("type")), id)
	if err != nil {
		return nil, errors.ErrInvalidTarget.WithReason(err.Error())
	}
	return target, nil
}

// History godoc
// @Summary Change history of a record
// @Description Новые записи первыми; field ограничивает историю одним полем
// @Tags Contributions
// @Produce json
// @Param type path string true "Target type" Enums(place, restriction, route, helper)
// @Param id path int true "Target ID"
// @Param field query string false "Field name"
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Contribution}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/contributions/history/{type}/{id} [get]
func (h *ContributionHandler) History(c *fiber.Ctx) error {
	target, err := parseTarget(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	items, err := h.contributionUC.HistoryForTarget(c.Context(), target, c.Query("field"), queryLimit(c))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, items, &utils.Meta{Total: len(items)})
}

// Recent godoc
// @Summary Recent community activity
// @Tags Contributions
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Contribution}
// @Router /api/v1/contributions/recent [get]
func (h *ContributionHandler) Recent(c *fiber.Ctx) error {
	items, err := h.contributionUC.RecentActivity(c.Context(), queryLimit(c))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, items, &utils.Meta{Total: len(items)})
}

// ByUser godoc
// @Summary Contributions of a user
// @Description Без user_id - вклады локального пользователя
// @Tags Contributions
// @Produce json
// @Param user_id query string false "User ID"
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Contribution}
// @Router /api/v1/contributions/user [get]
func (h *ContributionHandler) ByUser(c *fiber.Ctx) error {
	items, err := h.contributionUC.ByUser(c.Context(), c.Query("user_id"), queryLimit(c))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, items, &utils.Meta{Total: len(items)})
}

// Summary godoc
// @Summary Contribution summary of a user
// @Tags Contributions
// @Produce json
// @Param user_id query string false "User ID"
// @Success 200 {object} utils.SuccessResponse{data=domain.ContributionSummary}
// @Router /api/v1/contributions/summary [get]
func (h *ContributionHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.contributionUC.UserSummary(c.Context(), c.Query("user_id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, summary, nil)
}

// Top godoc
// @Summary Top contributors
// @Tags Contributions
// @Produce json
// @Param since query string false "RFC3339 timestamp"
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.UserCount}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/contributions/top [get]
func (h *ContributionHandler) Top(c *fiber.Ctx) error {
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return utils.SendError(c, errors.ErrInvalidRequest.WithReason("since must be an RFC3339 timestamp"))
		}
		since = &t
	}

	items, err := h.contributionUC.TopContributors(c.Context(), since, c.QueryInt("limit", 10))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, items, &utils.Meta{Total: len(items)})
}

// Stats godoc
// @Summary Ledger aggregates
// @Tags Contributions
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.LedgerStats}
// @Router /api/v1/contributions/stats [get]
func (h *ContributionHandler) Stats(c *fiber.Ctx) error {
	ctx := c.Context()

	total, err := h.contributionUC.CountAll(ctx)
	if err != nil {
		return utils.SendError(c, err)
	}
	byAction, err := h.contributionUC.CountByAction(ctx)
	if err != nil {
		return utils.SendError(c, err)
	}
	byTarget, err := h.contributionUC.CountByTargetType(ctx)
	if err != nil {
		return utils.SendError(c, err)
	}
	contributors, err := h.contributionUC.CountDistinctContributors(ctx)
	if err != nil {
		return utils.SendError(c, err)
	}
	unsynced, err := h.contributionUC.CountUnsynced(ctx)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.LedgerStats{
		Total:        total,
		ByAction:     byAction,
		ByTargetType: byTarget,
		Contributors: contributors,
		Unsynced:     unsynced,
	}, nil)
}

// Unsynced godoc
// @Summary Contributions waiting for sync
// @Tags Contributions
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Contribution}
// @Router /api/v1/contributions/unsynced [get]
func (h *ContributionHandler) Unsynced(c *fiber.Ctx) error {
	items, err := h.contributionUC.Unsynced(c.Context(), queryLimit(c))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, items, &utils.Meta{Total: len(items)})
}

// Sync godoc
// @Summary Sync the ledger now
// @Description Публикует несинхронизированные вклады пачками; без Redis только отмечает их синхронизированными
// @Tags Contributions
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.SyncResult}
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/contributions/sync [post]
func (h *ContributionHandler) Sync(c *fiber.Ctx) error {
	start := time.Now()

	result, err := h.contributionUC.Sync(c.Context())
	if err != nil {
		h.logger.Error("Manual sync failed", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		TimeMSec: float64(time.Since(start).Microseconds()) / 1000,
	})
}

// MarkAllSynced godoc
// @Summary Mark every contribution as synced
// @Tags Contributions
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=map[string]int64}
// @Router /api/v1/contributions/mark-synced [post]
func (h *ContributionHandler) MarkAllSynced(c *fiber.Ctx) error {
	n, err := h.contributionUC.MarkAllSynced(c.Context())
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{"marked": n}, nil)
}
