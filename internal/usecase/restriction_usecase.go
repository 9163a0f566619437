package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/siempreabierto/internal/config"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/metrics"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/pkg/geo"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// RestrictionUseCase - дорожные ограничения и предупреждения для габаритов ТС
type RestrictionUseCase struct {
	store    repository.Store
	ledger   *Ledger
	settings *SettingsUseCase
	cfg      config.GeoConfig
	logger   *zap.Logger
}

// NewRestrictionUseCase создает новый экземпляр RestrictionUseCase
func NewRestrictionUseCase(
	store repository.Store,
	ledger *Ledger,
	settings *SettingsUseCase,
	cfg config.GeoConfig,
	logger *zap.Logger,
) *RestrictionUseCase {
	return &RestrictionUseCase{
		store:    store,
		ledger:   ledger,
		settings: settings,
		cfg:      cfg,
		logger:   logger,
	}
}

// Create добавляет ограничение; хотя бы один лимит обязателен
func (uc *RestrictionUseCase) Create(ctx context.Context, req dto.CreateRestrictionRequest) (int64, error) {
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

	now := uc.ledger.Now()
	r := &domain.Restriction{
		Latitude:         lat,
		Longitude:        lon,
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		RoadName:         req.RoadName,
		KmPoint:          req.KmPoint,
		Type:             req.Type,
		MaxHeight:        req.MaxHeight,
		MaxWidth:         req.MaxWidth,
		MaxWeight:        req.MaxWeight,
		MaxLength:        req.MaxLength,
		Direction:        req.Direction,
		AlternativeRoute: req.AlternativeRoute,
		Notes:            req.Notes,
		City:             req.City,
		Province:         req.Province,
		Region:           region,
		ContributedBy:    actor.UserID,
		Source:           req.Source,
		CreatedAt:        now,
		UpdatedAt:        now,
		IsActive:         true,
	}
	if !r.HasAnyLimit() {
		return 0, errors.ErrValidation.WithReason("at least one of max_height, max_width, max_weight, max_length is required")
	}
	if r.Source == "" {
		r.Source = domain.SourceCommunity
	}

	id, err := createTracked(ctx, uc.store, uc.ledger, restrictionsOf, r, func(id int64) domain.ContributionEntry {
		return createEntry(domain.RestrictionRef{RestrictionID: id}, r.Name, actor)
	})
	if err != nil {
		uc.logger.Error("Failed to create restriction", zap.String("name", r.Name), zap.Error(err))
		return 0, err
	}

	uc.logger.Info("Restriction created",
		zap.Int64("restriction_id", id),
		zap.String("type", r.Type),
		zap.String("region", r.Region))
	return id, nil
}

// Update меняет заданные поля; нельзя убрать последний лимит
func (uc *RestrictionUseCase) Update(ctx context.Context, id int64, req dto.UpdateRestrictionRequest) (*domain.Restriction, error) {
	actor, err := uc.settings.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return nil, err
	}

	return updateTracked(ctx, uc.store, uc.ledger, restrictionsOf, id, errors.ErrRestrictionNotFound,
		func(_ repository.Store, r *domain.Restriction) ([]domain.ContributionEntry, error) {
			before := *r
			applyRestrictionPatch(r, req)

			changes := diffFields(&before, r)
			if len(changes) == 0 {
				return nil, nil
			}
			r.UpdatedAt = uc.ledger.Now()
			return changeEntries(domain.RestrictionRef{RestrictionID: id}, r.Name, actor, changes), nil
		})
}

func applyRestrictionPatch(r *domain.Restriction, req dto.UpdateRestrictionRequest) {
	if req.Name != nil {
		r.Name = strings.TrimSpace(*req.Name)
	}
	setIf(&r.Type, req.Type)

	for _, f := range []struct {
		dst **string
		src *string
	}{
		{&r.Description, req.Description},
		{&r.RoadName, req.RoadName},
		{&r.KmPoint, req.KmPoint},
		{&r.Direction, req.Direction},
		{&r.AlternativeRoute, req.AlternativeRoute},
		{&r.Notes, req.Notes},
	} {
		if f.src != nil {
			*f.dst = f.src
		}
	}

	for _, f := range []struct {
		dst **float64
		src *float64
	}{
		{&r.MaxHeight, req.MaxHeight},
		{&r.MaxWidth, req.MaxWidth},
		{&r.MaxWeight, req.MaxWeight},
		{&r.MaxLength, req.MaxLength},
	} {
		if f.src != nil {
			*f.dst = f.src
		}
	}
}

// Confirm подтверждает актуальность ограничения
func (uc *RestrictionUseCase) Confirm(ctx context.Context, id int64, req dto.ActorRequest) (*domain.Restriction, error) {
	actor, err := uc.settings.ResolveActor(ctx, req)
	if err != nil {
		return nil, err
	}

	return updateTracked(ctx, uc.store, uc.ledger, restrictionsOf, id, errors.ErrRestrictionNotFound,
		func(_ repository.Store, r *domain.Restriction) ([]domain.ContributionEntry, error) {
			if !r.IsActive {
				return nil, errors.ErrRestrictionNotFound
			}
			now := uc.ledger.Now()
			r.LastConfirmedAt = &now
			r.LastConfirmedBy = ptr(actor.UserID)
			r.UpdatedAt = now
			return []domain.ContributionEntry{{
				Target:     domain.RestrictionRef{RestrictionID: id},
				TargetName: r.Name,
				Action:     domain.ActionConfirm,
				Actor:      actor,
			}}, nil
		})
}

// Report - жалоба на неверное ограничение
func (uc *RestrictionUseCase) Report(ctx context.Context, id int64, req dto.ReportRequest) (*domain.Restriction, error) {
	actor, err := uc.settings.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return nil, err
	}

	r, err := updateTracked(ctx, uc.store, uc.ledger, restrictionsOf, id, errors.ErrRestrictionNotFound,
		func(_ repository.Store, r *domain.Restriction) ([]domain.ContributionEntry, error) {
			r.ReportCount++
			r.UpdatedAt = uc.ledger.Now()
			return []domain.ContributionEntry{{
				Target:     domain.RestrictionRef{RestrictionID: id},
				TargetName: r.Name,
				Action:     domain.ActionReport,
				Actor:      actor,
				Notes:      strings.TrimSpace(req.Reason),
			}}, nil
		})
	if err != nil {
		return nil, err
	}

	if r.NeedsReview() {
		uc.logger.Warn("Restriction flagged for review",
			zap.Int64("restriction_id", id),
			zap.Int("report_count", r.ReportCount))
	}
	return r, nil
}

// Deactivate - мягкое удаление
func (uc *RestrictionUseCase) Deactivate(ctx context.Context, id int64, req dto.DeactivateRequest) error {
	actor, err := uc.settings.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return err
	}

	_, err = updateTracked(ctx, uc.store, uc.ledger, restrictionsOf, id, errors.ErrRestrictionNotFound,
		func(_ repository.Store, r *domain.Restriction) ([]domain.ContributionEntry, error) {
			if !r.IsActive {
				return nil, nil
			}
			r.IsActive = false
			r.UpdatedAt = uc.ledger.Now()
			return []domain.ContributionEntry{{
				Target:     domain.RestrictionRef{RestrictionID: id},
				TargetName: r.Name,
				Action:     domain.ActionDelete,
				Actor:      actor,
				Notes:      strings.TrimSpace(req.Reason),
			}}, nil
		})
	return err
}

func (uc *RestrictionUseCase) GetByID(ctx context.Context, id int64) (*dto.RestrictionResult, error) {
	r, err := getOr(ctx, uc.store.Restrictions(), id, errors.ErrRestrictionNotFound)
	if err != nil {
		return nil, err
	}
	res := dto.NewRestrictionResult(*r, nil)
	return &res, nil
}

func restrictionFilters(restrictionType string) []repository.Predicate {
	preds := []repository.Predicate{repository.Eq("is_active", true)}
	if restrictionType != "" {
		preds = append(preds, repository.Eq("type", restrictionType))
	}
	return preds
}

// Nearby - активные ограничения в радиусе
func (uc *RestrictionUseCase) Nearby(ctx context.Context, req dto.NearbyRestrictionsRequest) (*dto.NearbyResponse[dto.RestrictionResult], error) {
	p, err := checkGeo(uc.cfg, req.NearbyRequest)
	if err != nil {
		return nil, err
	}

	found, err := nearby(ctx, uc.store.Restrictions(), repository.TableRestrictions,
		boxQuery("latitude", "longitude", p, restrictionFilters(req.Type)...), p)
	if err != nil {
		uc.logger.Error("Failed to search restrictions nearby", zap.Error(err))
		return nil, err
	}
	found = truncate(found, p.limit)

	items := make([]dto.RestrictionResult, 0, len(found))
	for _, f := range found {
		items = append(items, dto.NewRestrictionResult(f.Item, distance(f.DistanceKm)))
	}

	return &dto.NearbyResponse[dto.RestrictionResult]{
		Items:    items,
		Total:    len(items),
		Center:   domain.Point{Lat: p.lat, Lon: p.lon},
		RadiusKm: p.radiusKm,
	}, nil
}

// SubscribeNearby - живая версия Nearby
func (uc *RestrictionUseCase) SubscribeNearby(ctx context.Context, req dto.NearbyRestrictionsRequest) (<-chan []geo.WithDistance[domain.Restriction], error) {
	p, err := checkGeo(uc.cfg, req.NearbyRequest)
	if err != nil {
		return nil, err
	}
	return subscribeNearby(ctx, uc.store.Restrictions(),
		boxQuery("latitude", "longitude", p, restrictionFilters(req.Type)...), p), nil
}

// CheckForVehicle возвращает ограничения в радиусе, которые ТС не проходит,
// от ближних к дальним. Кандидаты берутся только по bounding box: угол
// прямоугольника тоже даёт предупреждение, его срочность - по расстоянию.
func (uc *RestrictionUseCase) CheckForVehicle(
	ctx context.Context,
	vehicle domain.VehicleDimensions,
	lat, lon, radiusKm float64,
) ([]domain.RestrictionAlert, error) {
	if !geo.ValidateCoordinates(lat, lon) {
		return nil, errors.ErrInvalidCoordinates
	}
	if radiusKm <= 0 {
		return nil, errors.ErrInvalidRadius
	}
	alerts := []domain.RestrictionAlert{}
	if vehicle.IsEmpty() {
		return alerts, nil
	}

	box := geo.BoundingBoxAround(lat, lon, radiusKm)
	candidates, err := uc.store.Restrictions().Find(ctx,
		repository.NewQuery(repository.InBox(box)...).And(repository.Eq("is_active", true)))
	if err != nil {
		return nil, err
	}

	for _, r := range candidates {
		reasons := r.Violations(vehicle)
		if len(reasons) == 0 {
			continue
		}
		d := geo.DistanceKm(lat, lon, r.Latitude, r.Longitude)
		sev := domain.SeverityForDistance(d)
		metrics.RestrictionAlertsTotal.WithLabelValues(string(sev)).Inc()
		alerts = append(alerts, domain.RestrictionAlert{
			Restriction: r,
			DistanceKm:  d,
			Reasons:     reasons,
			Severity:    sev,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DistanceKm < alerts[j].DistanceKm
	})
	return alerts, nil
}

// AlertsForMyVehicle - предупреждения для ТС из настроек устройства.
// Габариты из запроса имеют приоритет, затем настройки, затем типовой профиль ТС.
func (uc *RestrictionUseCase) AlertsForMyVehicle(ctx context.Context, req dto.AlertRequest) (*dto.AlertsResponse, error) {
	lat, lon, err := coordinates(req.Lat, req.Lon)
	if err != nil {
		return nil, err
	}
	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	vehicle := settings.Vehicle()
	if profile, ok := domain.ProfileFor(settings.VehicleType); ok {
		vehicle = fillDimensions(vehicle, profile.Dimensions())
	}
	vehicle = fillDimensions(domain.VehicleDimensions{
		Height: req.Height,
		Width:  req.Width,
		Weight: req.Weight,
		Length: req.Length,
	}, vehicle)

	radius := req.RadiusKm
	if radius == 0 {
		radius = float64(settings.RestrictionAlertDistance)
	}
	if radius <= 0 {
		radius = uc.cfg.AlertRadiusKm
	}

	alerts, err := uc.CheckForVehicle(ctx, vehicle, lat, lon, radius)
	if err != nil {
		return nil, err
	}
	return &dto.AlertsResponse{
		Alerts:   alerts,
		Total:    len(alerts),
		Vehicle:  vehicle,
		RadiusKm: radius,
	}, nil
}

// fillDimensions дополняет незаданные габариты из fallback
func fillDimensions(v, fallback domain.VehicleDimensions) domain.VehicleDimensions {
	if v.Height == nil {
		v.Height = fallback.Height
	}
	if v.Width == nil {
		v.Width = fallback.Width
	}
	if v.Weight == nil {
		v.Weight = fallback.Weight
	}
	if v.Length == nil {
		v.Length = fallback.Length
	}
	return v
}

// ByRegion - активные ограничения региона
func (uc *RestrictionUseCase) ByRegion(ctx context.Context, region string, limit int) (*dto.ListResponse[dto.RestrictionResult], error) {
	if !geo.IsValidRegion(region) {
		return nil, errors.ErrInvalidRegion
	}
	items, err := uc.store.Restrictions().Find(ctx, repository.NewQuery(
		repository.Eq("is_active", true),
		repository.Eq("region", region),
	).Sort(repository.Asc("name")).Take(limit))
	if err != nil {
		return nil, err
	}

	out := make([]dto.RestrictionResult, 0, len(items))
	for _, r := range items {
		out = append(out, dto.NewRestrictionResult(r, nil))
	}
	res := dto.NewListResponse(out)
	return &res, nil
}

// ExportGeoJSON - активные ограничения региона (или все) как FeatureCollection
func (uc *RestrictionUseCase) ExportGeoJSON(ctx context.Context, region string) (*geojson.FeatureCollection, error) {
	q := repository.NewQuery(repository.Eq("is_active", true)).Sort(repository.Asc("id"))
	if region != "" {
		if !geo.IsValidRegion(region) {
			return nil, errors.ErrInvalidRegion
		}
		q = q.And(repository.Eq("region", region))
	}

	items, err := uc.store.Restrictions().Find(ctx, q)
	if err != nil {
		return nil, err
	}

	return featureCollection(items,
		func(r domain.Restriction) int64 { return r.ID },
		func(r domain.Restriction) geojson.Properties {
			return geojson.Properties{
				"name":         r.Name,
				"type":         r.Type,
				"region":       r.Region,
				"limits":       r.LimitsText(),
				"needs_review": r.NeedsReview(),
			}
		}), nil
}
