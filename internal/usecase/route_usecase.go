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

// RouteUseCase - сохранённые маршруты и голосование сообщества
type RouteUseCase struct {
	store    repository.Store
	ledger   *Ledger
	settings *SettingsUseCase
	cfg      config.GeoConfig
	logger   *zap.Logger
}

// NewRouteUseCase создает новый экземпляр RouteUseCase
func NewRouteUseCase(
	store repository.Store,
	ledger *Ledger,
	settings *SettingsUseCase,
	cfg config.GeoConfig,
	logger *zap.Logger,
) *RouteUseCase {
	return &RouteUseCase{
		store:    store,
		ledger:   ledger,
		settings: settings,
		cfg:      cfg,
		logger:   logger,
	}
}

// routeWaypoints - точки маршрута из GeoJSON или, без геометрии, из начала и конца
func routeWaypoints(req dto.CreateRouteRequest) ([]domain.Point, error) {
	if len(req.Geometry) > 0 && string(req.Geometry) != "null" {
		points, err := domain.ParseGeoJSONLineString(req.Geometry)
		if err != nil {
			return nil, errors.ErrValidation.WithReason(err.Error())
		}
		return points, nil
	}

	origin := domain.Point{Lat: req.OriginLat, Lon: req.OriginLon}
	dest := domain.Point{Lat: req.DestinationLat, Lon: req.DestinationLon}
	if origin == (domain.Point{}) || dest == (domain.Point{}) {
		return nil, errors.ErrValidation.WithReason("geometry or origin and destination coordinates are required")
	}
	return []domain.Point{origin, dest}, nil
}

// Create сохраняет маршрут. Начало, конец, длина, время в пути и регион
// выводятся из геометрии, если не заданы явно.
func (uc *RouteUseCase) Create(ctx context.Context, req dto.CreateRouteRequest) (int64, error) {
	points, err := routeWaypoints(req)
	if err != nil {
		return 0, err
	}
	for _, p := range points {
		if !geo.ValidateCoordinates(p.Lat, p.Lon) {
			return 0, errors.ErrInvalidCoordinates
		}
	}
	geometry, err := domain.EncodeWaypoints(points)
	if err != nil {
		return 0, errors.ErrValidation.WithReason(err.Error())
	}

	actor, err := uc.settings.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return 0, err
	}

	first, last := points[0], points[len(points)-1]
	now := uc.ledger.Now()
	r := &domain.Route{
		Name:                  strings.TrimSpace(req.Name),
		Description:           req.Description,
		Geometry:              geometry,
		Waypoints:             points,
		OriginName:            req.OriginName,
		OriginLat:             first.Lat,
		OriginLon:             first.Lon,
		DestinationName:       req.DestinationName,
		DestinationLat:        last.Lat,
		DestinationLon:        last.Lon,
		DistanceKm:            req.DistanceKm,
		EstimatedMinutes:      req.EstimatedMinutes,
		TollRoads:             req.TollRoads,
		TollCost:              req.TollCost,
		VehicleType:           req.VehicleType,
		SuitableForTruck:      req.SuitableForTruck,
		SuitableForBus:        req.SuitableForBus,
		SuitableForCamper:     req.SuitableForCamper,
		HasHeightRestrictions: req.HasHeightRestrictions,
		MinHeightOnRoute:      req.MinHeightOnRoute,
		HasWeightRestrictions: req.HasWeightRestrictions,
		MaxWeightOnRoute:      req.MaxWeightOnRoute,
		RestrictionNotes:      req.RestrictionNotes,
		IsPublic:              req.IsPublic,
		CommunityNotes:        req.CommunityNotes,
		ContributedBy:         actor.UserID,
		CreatedAt:             now,
		UpdatedAt:             now,
		IsActive:              true,
	}
	if r.DistanceKm <= 0 {
		lines := make([][2]float64, 0, len(points))
		for _, p := range points {
			lines = append(lines, [2]float64{p.Lat, p.Lon})
		}
		r.DistanceKm = geo.PathLengthKm(lines)
	}
	if r.EstimatedMinutes <= 0 {
		r.EstimatedMinutes = geo.ETAMinutes(r.DistanceKm, uc.cfg.DefaultSpeedKmh)
	}
	if r.VehicleType == "" {
		r.VehicleType = domain.RouteVehicleCar
	}
	if region, ok := geo.RegionFromCoordinates(first.Lat, first.Lon); ok {
		r.Region = ptr(string(region))
	}

	id, err := createTracked(ctx, uc.store, uc.ledger, routesOf, r, func(id int64) domain.ContributionEntry {
		return createEntry(domain.RouteRef{RouteID: id}, r.Name, actor)
	})
	if err != nil {
		uc.logger.Error("Failed to create route", zap.String("name", r.Name), zap.Error(err))
		return 0, err
	}

	uc.logger.Info("Route created",
		zap.Int64("route_id", id),
		zap.Int("waypoints", len(points)),
		zap.Float64("distance_km", r.DistanceKm))
	return id, nil
}

// withWaypoints декодирует WKB геометрию в точки
func (uc *RouteUseCase) withWaypoints(r *domain.Route) {
	points, err := domain.DecodeWaypoints(r.Geometry)
	if err != nil {
		uc.logger.Warn("Failed to decode route geometry", zap.Int64("route_id", r.ID), zap.Error(err))
		return
	}
	r.Waypoints = points
}

// GetByID возвращает маршрут с точками
func (uc *RouteUseCase) GetByID(ctx context.Context, id int64) (*dto.RouteResult, error) {
	r, err := getOr(ctx, uc.store.Routes(), id, errors.ErrRouteNotFound)
	if err != nil {
		return nil, err
	}
	uc.withWaypoints(r)
	res := dto.NewRouteResult(*r, nil)
	return &res, nil
}

// GeoJSON - геометрия маршрута в виде GeoJSON LineString
func (uc *RouteUseCase) GeoJSON(ctx context.Context, id int64) ([]byte, error) {
	r, err := getOr(ctx, uc.store.Routes(), id, errors.ErrRouteNotFound)
	if err != nil {
		return nil, err
	}
	points, err := domain.DecodeWaypoints(r.Geometry)
	if err != nil {
		return nil, err
	}
	return domain.WaypointsGeoJSON(points)
}

// Vote - голос за или против; баланс от 5 помечает маршрут рекомендованным
func (uc *RouteUseCase) Vote(ctx context.Context, id int64, req dto.VoteRequest) (*domain.Route, error) {
	actor, err := uc.settings.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return nil, err
	}

	return updateTracked(ctx, uc.store, uc.ledger, routesOf, id, errors.ErrRouteNotFound,
		func(_ repository.Store, r *domain.Route) ([]domain.ContributionEntry, error) {
			if !r.IsActive {
				return nil, errors.ErrRouteNotFound
			}
			action := domain.ActionDownvote
			if req.Up {
				action = domain.ActionUpvote
				r.Upvotes++
			} else {
				r.Downvotes++
			}
			r.IsCommunityRecommended = r.Score() >= domain.CommunityRecommendedScore
			r.UpdatedAt = uc.ledger.Now()
			return []domain.ContributionEntry{{
				Target:     domain.RouteRef{RouteID: id},
				TargetName: r.Name,
				Action:     action,
				Actor:      actor,
			}}, nil
		})
}

// ToggleFavorite - локальная отметка, в журнал не пишется
func (uc *RouteUseCase) ToggleFavorite(ctx context.Context, id int64) (*domain.Route, error) {
	var result *domain.Route
	err := uc.store.WithinTx(ctx, func(tx repository.Store) error {
		r, err := getOr(ctx, tx.Routes(), id, errors.ErrRouteNotFound)
		if err != nil {
			return err
		}
		r.IsFavorite = !r.IsFavorite
		r.UpdatedAt = uc.ledger.Now()
		if err := tx.Routes().Update(ctx, r); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordUsage отмечает, что маршрут был использован
func (uc *RouteUseCase) RecordUsage(ctx context.Context, id int64) error {
	return uc.store.Routes().IncrementUsage(ctx, id, uc.ledger.Now())
}

// Delete - мягкое удаление маршрута
func (uc *RouteUseCase) Delete(ctx context.Context, id int64, req dto.DeactivateRequest) error {
	actor, err := uc.settings.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return err
	}

	_, err = updateTracked(ctx, uc.store, uc.ledger, routesOf, id, errors.ErrRouteNotFound,
		func(_ repository.Store, r *domain.Route) ([]domain.ContributionEntry, error) {
			if !r.IsActive {
				return nil, nil
			}
			r.IsActive = false
			r.UpdatedAt = uc.ledger.Now()
			return []domain.ContributionEntry{{
				Target:     domain.RouteRef{RouteID: id},
				TargetName: r.Name,
				Action:     domain.ActionDelete,
				Actor:      actor,
				Notes:      strings.TrimSpace(req.Reason),
			}}, nil
		})
	return err
}

// List - активные маршруты по фильтру: избранные, затем по использованию
func (uc *RouteUseCase) List(ctx context.Context, filter dto.RouteFilter) (*dto.ListResponse[dto.RouteResult], error) {
	q := repository.NewQuery(repository.Eq("is_active", true))
	if filter.PublicOnly {
		q = q.And(repository.Eq("is_public", true))
	}
	if filter.FavoritesOnly {
		q = q.And(repository.Eq("is_favorite", true))
	}
	if filter.Region != "" {
		if !geo.IsValidRegion(filter.Region) {
			return nil, errors.ErrInvalidRegion
		}
		q = q.And(repository.Eq("region", filter.Region))
	}
	q = q.Sort(
		repository.Desc("is_favorite"),
		repository.Desc("usage_count"),
		repository.Desc("created_at"),
		repository.Asc("id"),
	)

	routes, err := uc.store.Routes().Find(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]dto.RouteResult, 0, len(routes))
	for i := range routes {
		if filter.VehicleType != "" && !routeFits(routes[i], filter.VehicleType) {
			continue
		}
		uc.withWaypoints(&routes[i])
		out = append(out, dto.NewRouteResult(routes[i], nil))
	}
	res := dto.NewListResponse(truncate(out, filter.Limit))
	return &res, nil
}

// ForMyVehicle - маршруты, подходящие для ТС из настроек устройства
func (uc *RouteUseCase) ForMyVehicle(ctx context.Context, limit int) (*dto.ListResponse[dto.RouteResult], error) {
	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return uc.List(ctx, dto.RouteFilter{
		VehicleType: domain.RouteVehicleFamily(settings.VehicleType),
		Limit:       limit,
	})
}

func routeFits(r domain.Route, vehicleType string) bool {
	return r.VehicleType == vehicleType || r.VehicleType == domain.RouteVehicleAny || r.IsSuitableFor(vehicleType)
}

// Nearby - активные маршруты, начинающиеся в радиусе
func (uc *RouteUseCase) Nearby(ctx context.Context, req dto.NearbyRequest) (*dto.NearbyResponse[dto.RouteResult], error) {
	p, err := checkGeo(uc.cfg, req)
	if err != nil {
		return nil, err
	}

	found, err := nearby(ctx, uc.store.Routes(), repository.TableRoutes,
		boxQuery("origin_lat", "origin_lon", p, repository.Eq("is_active", true)), p)
	if err != nil {
		return nil, err
	}
	found = truncate(found, p.limit)

	items := make([]dto.RouteResult, 0, len(found))
	for _, f := range found {
		uc.withWaypoints(&f.Item)
		items = append(items, dto.NewRouteResult(f.Item, distance(f.DistanceKm)))
	}

	return &dto.NearbyResponse[dto.RouteResult]{
		Items:    items,
		Total:    len(items),
		Center:   domain.Point{Lat: p.lat, Lon: p.lon},
		RadiusKm: p.radiusKm,
	}, nil
}
