package usecase

import (
	"context"
	"time"

	"github.com/siempreabierto/internal/config"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/live"
	"github.com/siempreabierto/internal/metrics"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/pkg/geo"
	"github.com/siempreabierto/internal/usecase/dto"
)

// ActorResolver определяет, от чьего имени пишется изменение
type ActorResolver interface {
	ResolveActor(ctx context.Context, req dto.ActorRequest) (domain.Actor, error)
}

// geoParams - проверенные параметры гео-запроса
type geoParams struct {
	lat, lon float64
	radiusKm float64
	limit    int
}

// checkGeo подставляет значения по умолчанию для незаданных радиуса и лимита
// и проверяет координаты и радиус.
func checkGeo(cfg config.GeoConfig, req dto.NearbyRequest) (geoParams, error) {
	lat, lon, err := coordinates(req.Lat, req.Lon)
	if err != nil {
		return geoParams{}, err
	}

	radius := req.RadiusKm
	if radius == 0 {
		radius = cfg.DefaultRadiusKm
	}
	if !geo.ValidateRadius(radius, cfg.MinRadiusKm, cfg.MaxRadiusKm) {
		return geoParams{}, errors.ErrInvalidRadius
	}

	limit := req.Limit
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	if limit <= 0 {
		limit = domain.DefaultResultsLimit
	}

	return geoParams{lat: lat, lon: lon, radiusKm: radius, limit: limit}, nil
}

// boxQuery - грубый фильтр: bounding box по колонкам координат плюс доп. условия
func boxQuery(latField, lonField string, p geoParams, extra ...repository.Predicate) repository.Query {
	box := geo.BoundingBoxAround(p.lat, p.lon, p.radiusKm)
	return repository.NewQuery(repository.InBoxOn(latField, lonField, box)...).And(extra...)
}

// nearby - двухфазный гео-запрос: bounding box в хранилище, затем точный радиус в памяти
func nearby[T geo.Locatable](
	ctx context.Context,
	repo repository.RecordStore[T],
	entity string,
	q repository.Query,
	p geoParams,
) ([]geo.WithDistance[T], error) {
	start := time.Now()

	candidates, err := repo.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	metrics.GeoQueryCandidates.WithLabelValues(entity).Observe(float64(len(candidates)))

	result := geo.FilterAndSortByDistance(candidates, p.lat, p.lon, p.radiusKm)
	metrics.GeoQueryDurationMs.WithLabelValues(entity).Observe(float64(time.Since(start).Microseconds()) / 1000)
	return result, nil
}

// subscribeNearby - живая версия nearby: каждый новый результат bounding box
// проходит точный фильтр по радиусу
func subscribeNearby[T geo.Locatable](
	ctx context.Context,
	repo repository.RecordStore[T],
	q repository.Query,
	p geoParams,
) <-chan []geo.WithDistance[T] {
	return live.Map(ctx, repo.Subscribe(ctx, q), func(items []T) []geo.WithDistance[T] {
		return truncate(geo.FilterAndSortByDistance(items, p.lat, p.lon, p.radiusKm), p.limit)
	})
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// coordinates разворачивает обязательную пару координат; 0 - допустимое значение
func coordinates(lat, lon *float64) (float64, float64, error) {
	if lat == nil || lon == nil || !geo.ValidateCoordinates(*lat, *lon) {
		return 0, 0, errors.ErrInvalidCoordinates
	}
	return *lat, *lon, nil
}

// resolveRegion возвращает заданный регион или определяет его по координатам
func resolveRegion(region string, lat, lon float64) (string, error) {
	if region != "" {
		if !geo.IsValidRegion(region) {
			return "", errors.ErrInvalidRegion
		}
		return region, nil
	}
	r, ok := geo.RegionFromCoordinates(lat, lon)
	if !ok {
		return "", errors.ErrInvalidRegion
	}
	return string(r), nil
}

func ptr[T any](v T) *T {
	return &v
}

func distance(d float64) *float64 {
	return &d
}
