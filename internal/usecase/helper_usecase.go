package usecase

import (
	"context"
	"strings"

	"github.com/siempreabierto/internal/config"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/pkg/geo"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// HelperUseCase - профили помощников. На устройство приходится один активный профиль.
type HelperUseCase struct {
	store    repository.Store
	ledger   *Ledger
	settings *SettingsUseCase
	cfg      config.GeoConfig
	logger   *zap.Logger
}

// NewHelperUseCase создает новый экземпляр HelperUseCase
func NewHelperUseCase(
	store repository.Store,
	ledger *Ledger,
	settings *SettingsUseCase,
	cfg config.GeoConfig,
	logger *zap.Logger,
) *HelperUseCase {
	return &HelperUseCase{
		store:    store,
		ledger:   ledger,
		settings: settings,
		cfg:      cfg,
		logger:   logger,
	}
}

func (uc *HelperUseCase) coverage(km int) int {
	switch {
	case km > 0:
		return km
	case uc.cfg.HelperCoverageKm > 0:
		return uc.cfg.HelperCoverageKm
	default:
		return domain.HelperCoverageDefaultKm
	}
}

// Register создает профиль помощника. Профиль локального пользователя
// привязывается к настройкам устройства.
func (uc *HelperUseCase) Register(ctx context.Context, req dto.RegisterHelperRequest) (int64, error) {
	lat, lon, err := coordinates(req.Lat, req.Lon)
	if err != nil {
		return 0, err
	}
	region, err := resolveRegion(req.Region, lat, lon)
	if err != nil {
		return 0, err
	}
	actor, err := uc.settings.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return 0, err
	}
	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	isLocal := actor.UserID == settings.LocalUserID

	now := uc.ledger.Now()
	h := &domain.Helper{
		Nickname:          strings.TrimSpace(req.Nickname),
		LocalUserID:       actor.UserID,
		Latitude:          lat,
		Longitude:         lon,
		City:              req.City,
		Province:          req.Province,
		Region:            region,
		CoverageRadiusKm:  uc.coverage(req.CoverageRadiusKm),
		Phone:             req.Phone,
		PhoneVisible:      req.PhoneVisible,
		ContactNotes:      req.ContactNotes,
		VehicleType:       req.VehicleType,
		CanHelpWith:       domain.JoinTags(req.CanHelpWith),
		HasTools:          req.HasTools,
		HasJumpCables:     req.HasJumpCables,
		HasTowRope:        req.HasTowRope,
		HasCompressor:     req.HasCompressor,
		IsAvailable:       true,
		AvailableSchedule: req.AvailableSchedule,
		AvailableNotes:    req.AvailableNotes,
		CreatedAt:         now,
		UpdatedAt:         now,
		LastActiveAt:      now,
		IsActive:          true,
	}
	if h.VehicleType == "" {
		h.VehicleType = settings.VehicleType
	}

	var id int64
	err = uc.store.WithinTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Helpers().GetByLocalUserID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errors.ErrHelperAlreadyExists
		}

		id, err = tx.Helpers().Insert(ctx, h)
		if err != nil {
			return err
		}
		if _, err := uc.ledger.Record(ctx, tx, createEntry(domain.HelperRef{HelperID: id}, h.Nickname, actor)); err != nil {
			return err
		}
		if isLocal {
			return uc.settings.setHelperProfile(ctx, tx, &id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if isLocal {
		if _, err := uc.settings.Refresh(ctx); err != nil {
			uc.logger.Warn("Failed to refresh settings after helper registration", zap.Error(err))
		}
	}
	uc.logger.Info("Helper registered",
		zap.Int64("helper_id", id),
		zap.String("region", h.Region),
		zap.Int("coverage_km", h.CoverageRadiusKm))
	return id, nil
}

// Update меняет профиль помощника; изменения полей пишутся в журнал
func (uc *HelperUseCase) Update(ctx context.Context, id int64, req dto.UpdateHelperRequest) (*domain.Helper, error) {
	actor, err := uc.settings.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return nil, err
	}
	if (req.Lat == nil) != (req.Lon == nil) {
		return nil, errors.ErrValidation.WithReason("lat and lon must be set together")
	}

	return updateTracked(ctx, uc.store, uc.ledger, helpersOf, id, errors.ErrHelperNotFound,
		func(_ repository.Store, h *domain.Helper) ([]domain.ContributionEntry, error) {
			if !h.IsActive {
				return nil, errors.ErrHelperNotFound
			}
			before := *h
			if req.Nickname != nil {
				h.Nickname = strings.TrimSpace(*req.Nickname)
			}
			if req.Lat != nil {
				if !geo.ValidateCoordinates(*req.Lat, *req.Lon) {
					return nil, errors.ErrInvalidCoordinates
				}
				h.Latitude, h.Longitude = *req.Lat, *req.Lon
				if r, ok := geo.RegionFromCoordinates(h.Latitude, h.Longitude); ok {
					h.Region = string(r)
				}
			}
			setIf(&h.CoverageRadiusKm, req.CoverageRadiusKm)
			if req.Phone != nil {
				h.Phone = req.Phone
			}
			setIf(&h.PhoneVisible, req.PhoneVisible)
			if req.ContactNotes != nil {
				h.ContactNotes = req.ContactNotes
			}
			if req.CanHelpWith != nil {
				h.CanHelpWith = domain.JoinTags(*req.CanHelpWith)
			}
			setIf(&h.HasTools, req.HasTools)
			setIf(&h.HasJumpCables, req.HasJumpCables)
			setIf(&h.HasTowRope, req.HasTowRope)
			setIf(&h.HasCompressor, req.HasCompressor)
			if req.AvailableSchedule != nil {
				h.AvailableSchedule = req.AvailableSchedule
			}
			if req.AvailableNotes != nil {
				h.AvailableNotes = req.AvailableNotes
			}

			changes := diffFields(&before, h)
			if len(changes) == 0 {
				return nil, nil
			}
			now := uc.ledger.Now()
			h.UpdatedAt = now
			h.LastActiveAt = now
			return changeEntries(domain.HelperRef{HelperID: id}, h.Nickname, actor, changes), nil
		})
}

// SetAvailability переключает доступность помощника
func (uc *HelperUseCase) SetAvailability(ctx context.Context, id int64, req dto.AvailabilityRequest) (*domain.Helper, error) {
	actor, err := uc.settings.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return nil, err
	}

	return updateTracked(ctx, uc.store, uc.ledger, helpersOf, id, errors.ErrHelperNotFound,
		func(_ repository.Store, h *domain.Helper) ([]domain.ContributionEntry, error) {
			if !h.IsActive {
				return nil, errors.ErrHelperNotFound
			}
			before := *h
			h.IsAvailable = req.Available

			changes := diffFields(&before, h)
			if len(changes) == 0 {
				return nil, nil
			}
			now := uc.ledger.Now()
			h.UpdatedAt = now
			h.LastActiveAt = now
			return changeEntries(domain.HelperRef{HelperID: id}, h.Nickname, actor, changes), nil
		})
}

// Deactivate - мягкое удаление профиля; связь с настройками устройства снимается
func (uc *HelperUseCase) Deactivate(ctx context.Context, id int64, req dto.DeactivateRequest) error {
	actor, err := uc.settings.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return err
	}
	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return err
	}
	linked := settings.HelperProfileID != nil && *settings.HelperProfileID == id

	_, err = updateTracked(ctx, uc.store, uc.ledger, helpersOf, id, errors.ErrHelperNotFound,
		func(tx repository.Store, h *domain.Helper) ([]domain.ContributionEntry, error) {
			if !h.IsActive {
				return nil, nil
			}
			h.IsActive = false
			h.IsAvailable = false
			h.UpdatedAt = uc.ledger.Now()
			if linked {
				if err := uc.settings.setHelperProfile(ctx, tx, nil); err != nil {
					return nil, err
				}
			}
			return []domain.ContributionEntry{{
				Target:     domain.HelperRef{HelperID: id},
				TargetName: h.Nickname,
				Action:     domain.ActionDelete,
				Actor:      actor,
				Notes:      strings.TrimSpace(req.Reason),
			}}, nil
		})
	if err != nil {
		return err
	}

	if linked {
		_, err = uc.settings.Refresh(ctx)
	}
	return err
}

// GetByID возвращает публичный вид профиля
func (uc *HelperUseCase) GetByID(ctx context.Context, id int64) (*dto.HelperResult, error) {
	h, err := getOr(ctx, uc.store.Helpers(), id, errors.ErrHelperNotFound)
	if err != nil {
		return nil, err
	}
	res := dto.NewHelperResult(*h, nil, uc.cfg.DefaultSpeedKmh)
	return &res, nil
}

// MyProfile - профиль помощника локального пользователя без маскировки телефона
func (uc *HelperUseCase) MyProfile(ctx context.Context) (*domain.Helper, error) {
	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	h, err := uc.store.Helpers().GetByLocalUserID(ctx, settings.LocalUserID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, errors.ErrHelperNotFound
	}
	return h, nil
}

// Nearby - доступные помощники в радиусе, чья зона покрытия включает точку
func (uc *HelperUseCase) Nearby(ctx context.Context, req dto.NearbyHelpersRequest) (*dto.NearbyResponse[dto.HelperResult], error) {
	p, err := checkGeo(uc.cfg, req.NearbyRequest)
	if err != nil {
		return nil, err
	}

	found, err := nearby(ctx, uc.store.Helpers(), repository.TableHelpers,
		boxQuery("latitude", "longitude", p,
			repository.Eq("is_active", true),
			repository.Eq("is_available", true)), p)
	if err != nil {
		uc.logger.Error("Failed to search helpers nearby", zap.Error(err))
		return nil, err
	}

	items := make([]dto.HelperResult, 0, len(found))
	for _, f := range found {
		if !f.Item.Covers(f.DistanceKm) {
			continue
		}
		if req.HelpType != "" && !f.Item.CanHelpWithType(req.HelpType) {
			continue
		}
		items = append(items, dto.NewHelperResult(f.Item, distance(f.DistanceKm), uc.cfg.DefaultSpeedKmh))
	}
	items = truncate(items, p.limit)

	return &dto.NearbyResponse[dto.HelperResult]{
		Items:    items,
		Total:    len(items),
		Center:   domain.Point{Lat: p.lat, Lon: p.lon},
		RadiusKm: p.radiusKm,
	}, nil
}

// HelpTypes - каталог типов помощи
func (uc *HelperUseCase) HelpTypes() []domain.Category {
	return domain.HelpTypes
}
