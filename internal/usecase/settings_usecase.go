package usecase

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/live"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// SettingsUseCase - настройки устройства (singleton) с кешем в памяти.
// Кеш читается один раз при Initialize и обновляется после каждой записи;
// Watch держит его в актуальном состоянии при изменениях из других мест
// (например, счётчики, которые увеличивает журнал).
type SettingsUseCase struct {
	store  repository.Store
	ledger *Ledger
	logger *zap.Logger

	mu     sync.RWMutex
	cached *domain.UserSettings
}

// NewSettingsUseCase создает новый экземпляр SettingsUseCase
func NewSettingsUseCase(store repository.Store, ledger *Ledger, logger *zap.Logger) *SettingsUseCase {
	return &SettingsUseCase{
		store:  store,
		ledger: ledger,
		logger: logger,
	}
}

// Initialize создает строку настроек при первом запуске. Повторный вызов
// не меняет существующую строку.
func (uc *SettingsUseCase) Initialize(ctx context.Context) (*domain.UserSettings, error) {
	defaults := domain.DefaultUserSettings(uc.ledger.Now())

	created, err := uc.store.Settings().CreateIfAbsent(ctx, &defaults)
	if err != nil {
		return nil, err
	}
	if created {
		uc.logger.Info("User settings initialized", zap.String("local_user_id", defaults.LocalUserID))
	}

	return uc.Refresh(ctx)
}

// Get возвращает настройки из кеша
func (uc *SettingsUseCase) Get(ctx context.Context) (*domain.UserSettings, error) {
	uc.mu.RLock()
	cached := uc.cached
	uc.mu.RUnlock()

	if cached != nil {
		cp := *cached
		return &cp, nil
	}
	return uc.Refresh(ctx)
}

// Refresh перечитывает настройки из хранилища
func (uc *SettingsUseCase) Refresh(ctx context.Context) (*domain.UserSettings, error) {
	settings, err := uc.store.Settings().Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, errors.ErrSettingsNotInitialized
	}
	uc.setCache(settings)

	cp := *settings
	return &cp, nil
}

func (uc *SettingsUseCase) setCache(s *domain.UserSettings) {
	cp := *s
	uc.mu.Lock()
	uc.cached = &cp
	uc.mu.Unlock()
}

// Watch обновляет кеш после каждого изменения таблицы настроек, пока не отменён ctx
func (uc *SettingsUseCase) Watch(ctx context.Context, hub *live.Hub) {
	sub := hub.Register(repository.TableSettings)
	go func() {
		defer hub.Unregister(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Notify:
				if !ok {
					return
				}
				if _, err := uc.Refresh(ctx); err != nil && ctx.Err() == nil {
					uc.logger.Warn("Failed to refresh settings cache", zap.Error(err))
				}
			}
		}
	}()
}

// ResolveActor - автор изменения: явно переданный пользователь или локальный пользователь устройства
func (uc *SettingsUseCase) ResolveActor(ctx context.Context, req dto.ActorRequest) (domain.Actor, error) {
	if req.UserID != "" {
		actor := domain.Actor{UserID: req.UserID}
		if req.UserName != "" {
			actor.UserName = ptr(req.UserName)
		}
		return actor, nil
	}

	settings, err := uc.Get(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	actor := domain.Actor{UserID: settings.LocalUserID}
	if req.UserName != "" {
		actor.UserName = ptr(req.UserName)
	} else if settings.Nickname != nil {
		actor.UserName = ptr(*settings.Nickname)
	}
	return actor, nil
}

// update применяет fn к настройкам и сохраняет их
func (uc *SettingsUseCase) update(ctx context.Context, fn func(tx repository.Store, s *domain.UserSettings) error) (*domain.UserSettings, error) {
	var saved *domain.UserSettings
	err := uc.store.WithinTx(ctx, func(tx repository.Store) error {
		settings, err := tx.Settings().Get(ctx)
		if err != nil {
			return err
		}
		if settings == nil {
			return errors.ErrSettingsNotInitialized
		}
		if err := fn(tx, settings); err != nil {
			return err
		}
		settings.UpdatedAt = uc.ledger.Now()
		if err := tx.Settings().Update(ctx, settings); err != nil {
			return err
		}
		saved = settings
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.setCache(saved)
	return saved, nil
}

// UpdateVehicle меняет профиль ТС; незаданные габариты берутся из типового профиля
func (uc *SettingsUseCase) UpdateVehicle(ctx context.Context, req dto.UpdateVehicleRequest) (*domain.UserSettings, error) {
	if !domain.IsValidVehicleType(req.VehicleType) {
		return nil, errors.ErrValidation.WithReason("unknown vehicle type")
	}

	return uc.update(ctx, func(_ repository.Store, s *domain.UserSettings) error {
		s.VehicleType = req.VehicleType
		s.VehicleHeight, s.VehicleWidth, s.VehicleWeight, s.VehicleLength = req.Height, req.Width, req.Weight, req.Length

		if profile, ok := domain.ProfileFor(req.VehicleType); ok {
			dims := profile.Dimensions()
			if s.VehicleHeight == nil {
				s.VehicleHeight = dims.Height
			}
			if s.VehicleWidth == nil {
				s.VehicleWidth = dims.Width
			}
			if s.VehicleWeight == nil {
				s.VehicleWeight = dims.Weight
			}
			if s.VehicleLength == nil {
				s.VehicleLength = dims.Length
			}
		}

		s.VehiclePlate = req.VehiclePlate
		s.VehicleDescription = req.VehicleDescription
		return nil
	})
}

// UpdatePreferences меняет только заданные поля
func (uc *SettingsUseCase) UpdatePreferences(ctx context.Context, req dto.UpdatePreferencesRequest) (*domain.UserSettings, error) {
	return uc.update(ctx, func(_ repository.Store, s *domain.UserSettings) error {
		if req.Nickname != nil {
			s.Nickname = req.Nickname
		}
		setIf(&s.DarkMode, req.DarkMode)
		setIf(&s.MapZoomDefault, req.MapZoomDefault)
		setIf(&s.ShowRestrictionsOnMap, req.ShowRestrictionsOnMap)
		setIf(&s.ShowHelpersOnMap, req.ShowHelpersOnMap)
		setIf(&s.DistanceUnit, req.DistanceUnit)
		setIf(&s.AvoidTolls, req.AvoidTolls)
		setIf(&s.AvoidHighways, req.AvoidHighways)
		setIf(&s.PreferTruckRoutes, req.PreferTruckRoutes)
		setIf(&s.NotifyRestrictions, req.NotifyRestrictions)
		setIf(&s.NotifyNearbyHelpers, req.NotifyNearbyHelpers)
		setIf(&s.AutoSync, req.AutoSync)

		if req.RestrictionAlertDistance != nil {
			d := *req.RestrictionAlertDistance
			if d < domain.AlertDistanceMinKm || d > domain.AlertDistanceMaxKm {
				return errors.ErrValidation.WithReason("restriction_alert_distance must be between 1 and 20 km")
			}
			s.RestrictionAlertDistance = d
		}
		return nil
	})
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// AddRegion отмечает регион как скачанный
func (uc *SettingsUseCase) AddRegion(ctx context.Context, region string) (*domain.UserSettings, error) {
	if _, err := resolveRegion(region, 0, 0); err != nil {
		return nil, err
	}
	return uc.update(ctx, func(_ repository.Store, s *domain.UserSettings) error {
		s.SetRegions(append(s.RegionsList(), region))
		return nil
	})
}

// RemoveRegion убирает регион из скачанных и удаляет его места и ограничения
func (uc *SettingsUseCase) RemoveRegion(ctx context.Context, region string) (*domain.UserSettings, error) {
	if _, err := resolveRegion(region, 0, 0); err != nil {
		return nil, err
	}

	var saved *domain.UserSettings
	err := uc.store.WithinTx(ctx, func(tx repository.Store) error {
		byRegion := repository.NewQuery(repository.Eq("region", region))
		places, err := tx.Places().DeleteWhere(ctx, byRegion)
		if err != nil {
			return err
		}
		restrictions, err := tx.Restrictions().DeleteWhere(ctx, byRegion)
		if err != nil {
			return err
		}

		settings, err := tx.Settings().Get(ctx)
		if err != nil {
			return err
		}
		if settings == nil {
			return errors.ErrSettingsNotInitialized
		}
		settings.SetRegions(slices.DeleteFunc(settings.RegionsList(), func(r string) bool { return r == region }))
		settings.UpdatedAt = uc.ledger.Now()
		if err := tx.Settings().Update(ctx, settings); err != nil {
			return err
		}

		uc.logger.Info("Region data removed",
			zap.String("region", region),
			zap.Int64("places", places),
			zap.Int64("restrictions", restrictions))
		saved = settings
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.setCache(saved)
	return saved, nil
}

// AcceptTerms фиксирует принятие условий и политики конфиденциальности
func (uc *SettingsUseCase) AcceptTerms(ctx context.Context) (*domain.UserSettings, error) {
	return uc.update(ctx, func(_ repository.Store, s *domain.UserSettings) error {
		now := uc.ledger.Now()
		s.AcceptedTermsAt = &now
		s.AcceptedPrivacyAt = &now
		return nil
	})
}

// RebuildCounters пересчитывает кеш счётчиков из журнала вкладов
func (uc *SettingsUseCase) RebuildCounters(ctx context.Context) (*domain.UserSettings, error) {
	return uc.update(ctx, func(tx repository.Store, s *domain.UserSettings) error {
		counters, err := uc.ledger.Counters(ctx, tx.Contributions(), s.LocalUserID)
		if err != nil {
			return err
		}
		s.TotalContributions = counters.Total
		s.PlacesAdded = counters.PlacesAdded
		s.ConfirmationsMade = counters.ConfirmationsMade
		s.HelpProvided = counters.HelpProvided
		return nil
	})
}

// setHelperProfile связывает (или отвязывает при nil) профиль помощника с устройством
func (uc *SettingsUseCase) setHelperProfile(ctx context.Context, tx repository.Store, helperID *int64) error {
	settings, err := tx.Settings().Get(ctx)
	if err != nil || settings == nil {
		return err
	}
	settings.IsHelper = helperID != nil
	settings.HelperProfileID = helperID
	settings.UpdatedAt = uc.ledger.Now()
	return tx.Settings().Update(ctx, settings)
}

// markSynced запоминает время последней синхронизации
func (uc *SettingsUseCase) markSynced(ctx context.Context, tx repository.Store, at time.Time) error {
	settings, err := tx.Settings().Get(ctx)
	if err != nil || settings == nil {
		return err
	}
	settings.LastSyncAt = &at
	settings.UpdatedAt = at
	return tx.Settings().Update(ctx, settings)
}

// ClearAllData удаляет все данные сообщества и журнал; настройки остаются,
// счётчики обнуляются
func (uc *SettingsUseCase) ClearAllData(ctx context.Context) error {
	err := uc.store.WithinTx(ctx, func(tx repository.Store) error {
		all := repository.Query{}
		if _, err := tx.Contributions().DeleteAll(ctx); err != nil {
			return err
		}
		if _, err := tx.HelpRequests().DeleteWhere(ctx, all); err != nil {
			return err
		}
		if _, err := tx.Helpers().DeleteWhere(ctx, all); err != nil {
			return err
		}
		if _, err := tx.Routes().DeleteWhere(ctx, all); err != nil {
			return err
		}
		if _, err := tx.Restrictions().DeleteWhere(ctx, all); err != nil {
			return err
		}
		if _, err := tx.Places().DeleteWhere(ctx, all); err != nil {
			return err
		}

		settings, err := tx.Settings().Get(ctx)
		if err != nil || settings == nil {
			return err
		}
		settings.ResetCounters()
		settings.IsHelper = false
		settings.HelperProfileID = nil
		settings.SetRegions(nil)
		settings.LastSyncAt = nil
		settings.UpdatedAt = uc.ledger.Now()
		return tx.Settings().Update(ctx, settings)
	})
	if err != nil {
		return err
	}

	uc.logger.Warn("All local data cleared")
	_, err = uc.Refresh(ctx)
	if errors.Is(err, errors.ErrSettingsNotInitialized) {
		return nil
	}
	return err
}

// VehicleProfiles - каталог типовых профилей ТС
func (uc *SettingsUseCase) VehicleProfiles() []domain.VehicleProfile {
	return slices.Clone(domain.VehicleProfiles)
}
