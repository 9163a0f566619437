package usecase

import (
	"context"
	"strconv"
	"strings"

	"github.com/siempreabierto/internal/config"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/pkg/validator"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// HelpRequestUseCase - запросы помощи на дороге.
// Статусы: pending → accepted → completed; cancelled из pending или accepted.
type HelpRequestUseCase struct {
	store    repository.Store
	ledger   *Ledger
	settings *SettingsUseCase
	cfg      config.GeoConfig
	logger   *zap.Logger
}

// NewHelpRequestUseCase создает новый экземпляр HelpRequestUseCase
func NewHelpRequestUseCase(
	store repository.Store,
	ledger *Ledger,
	settings *SettingsUseCase,
	cfg config.GeoConfig,
	logger *zap.Logger,
) *HelpRequestUseCase {
	return &HelpRequestUseCase{
		store:    store,
		ledger:   ledger,
		settings: settings,
		cfg:      cfg,
		logger:   logger,
	}
}

// Create публикует запрос помощи. Описание места проверяется на приватные адреса.
func (uc *HelpRequestUseCase) Create(ctx context.Context, req dto.CreateHelpRequestRequest) (int64, error) {
	lat, lon, err := coordinates(req.Lat, req.Lon)
	if err != nil {
		return 0, err
	}
	location := strings.TrimSpace(req.LocationDescription)
	if reason := validator.CheckPublicLocation(location); reason != "" {
		return 0, errors.ErrValidation.WithReason(reason)
	}
	if req.ProblemDescription != nil {
		if reason := validator.CheckNoPrivateAddress(*req.ProblemDescription); reason != "" {
			return 0, errors.ErrValidation.WithReason(reason)
		}
	}

	requester := req.RequesterID
	name := req.RequesterName
	if requester == "" {
		settings, err := uc.settings.Get(ctx)
		if err != nil {
			return 0, err
		}
		requester = settings.LocalUserID
		if name == nil && settings.Nickname != nil {
			name = ptr(*settings.Nickname)
		}
	}

	hr := &domain.HelpRequest{
		RequesterID:         requester,
		RequesterName:       name,
		RequesterPhone:      req.RequesterPhone,
		Latitude:            lat,
		Longitude:           lon,
		LocationDescription: &location,
		ProblemType:         req.ProblemType,
		ProblemDescription:  req.ProblemDescription,
		VehicleType:         req.VehicleType,
		VehicleDescription:  req.VehicleDescription,
		Status:              domain.HelpStatusPending,
		CreatedAt:           uc.ledger.Now(),
	}

	id, err := uc.store.HelpRequests().Insert(ctx, hr)
	if err != nil {
		uc.logger.Error("Failed to create help request", zap.Error(err))
		return 0, err
	}

	uc.logger.Info("Help request created",
		zap.Int64("help_request_id", id),
		zap.String("problem_type", hr.ProblemType))
	return id, nil
}

// GetByID возвращает запрос помощи
func (uc *HelpRequestUseCase) GetByID(ctx context.Context, id int64) (*dto.HelpRequestResult, error) {
	hr, err := getOr(ctx, uc.store.HelpRequests(), id, errors.ErrHelpRequestNotFound)
	if err != nil {
		return nil, err
	}
	res := dto.NewHelpRequestResult(*hr, nil)
	return &res, nil
}

// NearbyPending - ожидающие запросы в радиусе, от ближних к дальним
func (uc *HelpRequestUseCase) NearbyPending(ctx context.Context, req dto.NearbyRequest) (*dto.NearbyResponse[dto.HelpRequestResult], error) {
	p, err := checkGeo(uc.cfg, req)
	if err != nil {
		return nil, err
	}

	found, err := nearby(ctx, uc.store.HelpRequests(), repository.TableHelpRequests,
		boxQuery("latitude", "longitude", p, repository.Eq("status", domain.HelpStatusPending)), p)
	if err != nil {
		return nil, err
	}
	found = truncate(found, p.limit)

	items := make([]dto.HelpRequestResult, 0, len(found))
	for _, f := range found {
		items = append(items, dto.NewHelpRequestResult(f.Item, distance(f.DistanceKm)))
	}

	return &dto.NearbyResponse[dto.HelpRequestResult]{
		Items:    items,
		Total:    len(items),
		Center:   domain.Point{Lat: p.lat, Lon: p.lon},
		RadiusKm: p.radiusKm,
	}, nil
}

// ByRequester - запросы пользователя, новые первыми
func (uc *HelpRequestUseCase) ByRequester(ctx context.Context, requesterID string, limit int) (*dto.ListResponse[dto.HelpRequestResult], error) {
	if requesterID == "" {
		settings, err := uc.settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		requesterID = settings.LocalUserID
	}

	items, err := uc.store.HelpRequests().Find(ctx, repository.NewQuery(
		repository.Eq("requester_id", requesterID),
	).Sort(repository.Desc("created_at"), repository.Desc("id")).Take(limit))
	if err != nil {
		return nil, err
	}

	out := make([]dto.HelpRequestResult, 0, len(items))
	for _, hr := range items {
		out = append(out, dto.NewHelpRequestResult(hr, nil))
	}
	res := dto.NewListResponse(out)
	return &res, nil
}

// transition загружает запрос, применяет fn и сохраняет его условным UPDATE.
// fn выполняется внутри транзакции вместе с побочными изменениями.
func (uc *HelpRequestUseCase) transition(
	ctx context.Context,
	id int64,
	next domain.HelpStatus,
	fn func(tx repository.Store, hr *domain.HelpRequest) error,
) (*domain.HelpRequest, error) {
	var result *domain.HelpRequest
	err := uc.store.WithinTx(ctx, func(tx repository.Store) error {
		hr, err := tx.HelpRequests().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if hr == nil {
			return errors.ErrHelpRequestNotFound
		}
		if !hr.Status.CanTransitionTo(next) {
			return errors.ErrInvalidTransition.WithReason(
				"cannot move help request from " + string(hr.Status) + " to " + string(next))
		}

		hr.Status = next
		if fn != nil {
			if err := fn(tx, hr); err != nil {
				return err
			}
		}
		if err := tx.HelpRequests().Transition(ctx, hr, domain.SourcesFor(next)); err != nil {
			return err
		}
		result = hr
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Help request status changed",
		zap.Int64("help_request_id", id),
		zap.String("status", string(next)))
	return result, nil
}

// Accept - помощник берёт ожидающий запрос
func (uc *HelpRequestUseCase) Accept(ctx context.Context, id int64, req dto.AcceptHelpRequest) (*domain.HelpRequest, error) {
	return uc.transition(ctx, id, domain.HelpStatusAccepted, func(tx repository.Store, hr *domain.HelpRequest) error {
		helper, err := tx.Helpers().GetByID(ctx, req.HelperID)
		if err != nil {
			return err
		}
		if helper == nil || !helper.IsActive {
			return errors.ErrHelperNotFound
		}

		now := uc.ledger.Now()
		hr.HelperID = ptr(helper.ID)
		hr.HelperName = ptr(helper.Nickname)
		hr.AcceptedAt = &now
		return nil
	})
}

// Complete закрывает запрос. Помощнику засчитывается помощь (help_count и
// запись журнала от его имени), при наличии оценки пересчитывается рейтинг.
func (uc *HelpRequestUseCase) Complete(ctx context.Context, id int64, req dto.CompleteHelpRequest) (*domain.HelpRequest, error) {
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, errors.ErrValidation.WithReason("rating must be between 1 and 5")
	}

	hr, err := uc.transition(ctx, id, domain.HelpStatusCompleted, func(tx repository.Store, hr *domain.HelpRequest) error {
		now := uc.ledger.Now()
		hr.CompletedAt = &now
		hr.WasHelpful = req.WasHelpful
		hr.Rating = req.Rating
		hr.Feedback = req.Feedback

		if hr.HelperID == nil {
			return nil
		}
		helper, err := tx.Helpers().GetByID(ctx, *hr.HelperID)
		if err != nil {
			return err
		}
		if helper == nil {
			return errors.ErrHelperNotFound
		}

		old := strconv.Itoa(helper.HelpCount)
		helper.HelpCount++
		if req.Rating != nil {
			helper.ApplyRating(*req.Rating)
		}
		helper.UpdatedAt = now
		helper.LastActiveAt = now
		if err := tx.Helpers().Update(ctx, helper); err != nil {
			return err
		}

		_, err = uc.ledger.Record(ctx, tx, domain.ContributionEntry{
			Target:     domain.HelperRef{HelperID: helper.ID},
			TargetName: helper.Nickname,
			Action:     domain.ActionUpdate,
			Actor:      domain.Actor{UserID: helper.LocalUserID, UserName: ptr(helper.Nickname)},
			Change: &domain.FieldChange{
				Field:    fieldHelpCount,
				OldValue: &old,
				NewValue: ptr(strconv.Itoa(helper.HelpCount)),
			},
			Notes: "help request " + strconv.FormatInt(id, 10),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return hr, nil
}

// Cancel отменяет ожидающий или принятый запрос
func (uc *HelpRequestUseCase) Cancel(ctx context.Context, id int64) (*domain.HelpRequest, error) {
	return uc.transition(ctx, id, domain.HelpStatusCancelled, nil)
}

// ProblemTypes - каталог типов проблем
func (uc *HelpRequestUseCase) ProblemTypes() []domain.Category {
	return domain.ProblemTypes
}
