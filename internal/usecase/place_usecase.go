package usecase

import (
	"context"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/siempreabierto/internal/config"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/pkg/geo"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// PlaceUseCase - места сообщества: гео-поиск и изменения с записью в журнал
type PlaceUseCase struct {
	store  repository.Store
	ledger *Ledger
	actors ActorResolver
	cfg    config.GeoConfig
	logger *zap.Logger
}

// NewPlaceUseCase создает новый экземпляр PlaceUseCase
func NewPlaceUseCase(
	store repository.Store,
	ledger *Ledger,
	actors ActorResolver,
	cfg config.GeoConfig,
	logger *zap.Logger,
) *PlaceUseCase {
	return &PlaceUseCase{
		store:  store,
		ledger: ledger,
		actors: actors,
		cfg:    cfg,
		logger: logger,
	}
}

// Create добавляет место и запись "create" в журнал
func (uc *PlaceUseCase) Create(ctx context.Context, req dto.CreatePlaceRequest) (int64, error) {
	lat, lon, err := coordinates(req.Lat, req.Lon)
	if err != nil {
		return 0, err
	}
	region, err := resolveRegion(req.Region, lat, lon)
	if err != nil {
		return 0, err
	}
	actor, err := uc.actors.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return 0, err
	}

	now := uc.ledger.Now()
	place := &domain.Place{
		Name:          strings.TrimSpace(req.Name),
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Latitude:      lat,
		Longitude:     lon,
		Address:       req.Address,
		City:          req.City,
		Province:      req.Province,
		Region:        region,
		Phone:         req.Phone,
		Phone2:        req.Phone2,
		Schedule:      req.Schedule,
		Is24h:         req.Is24h || req.Category == domain.CategoryWorkshop24h || req.Category == domain.CategorySupermarket24h,
		UsuallyOpen:   req.UsuallyOpen,
		FitsTrailer:   req.FitsTrailer,
		FitsBus:       req.FitsBus,
		FitsTruck:     req.FitsTruck,
		MaxHeight:     req.MaxHeight,
		MaxWidth:      req.MaxWidth,
		MaxWeight:     req.MaxWeight,
		PriceRange:    req.PriceRange,
		Notes:         req.Notes,
		ContributedBy: actor.UserID,
		Source:        req.Source,
		CreatedAt:     now,
		UpdatedAt:     now,
		IsActive:      true,
	}
	if services := domain.JoinTags(req.Services); services != "" {
		place.Services = &services
	}
	if place.Source == "" {
		place.Source = domain.SourceCommunity
	}

	id, err := createTracked(ctx, uc.store, uc.ledger, placesOf, place, func(id int64) domain.ContributionEntry {
		return createEntry(domain.PlaceRef{PlaceID: id}, place.Name, actor)
	})
	if err != nil {
		uc.logger.Error("Failed to create place", zap.String("name", place.Name), zap.Error(err))
		return 0, err
	}

	uc.logger.Info("Place created",
		zap.Int64("place_id", id),
		zap.String("category", place.Category),
		zap.String("region", place.Region))
	return id, nil
}

// Update меняет заданные поля; в журнал пишется по записи на каждое изменённое поле
func (uc *PlaceUseCase) Update(ctx context.Context, id int64, req dto.UpdatePlaceRequest) (*domain.Place, error) {
	actor, err := uc.actors.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return nil, err
	}

	return updateTracked(ctx, uc.store, uc.ledger, placesOf, id, errors.ErrPlaceNotFound,
		func(_ repository.Store, p *domain.Place) ([]domain.ContributionEntry, error) {
			before := *p
			applyPlacePatch(p, req)

			changes := diffFields(&before, p)
			if len(changes) == 0 {
				return nil, nil
			}
			p.UpdatedAt = uc.ledger.Now()
			return changeEntries(domain.PlaceRef{PlaceID: id}, p.Name, actor, changes), nil
		})
}

func applyPlacePatch(p *domain.Place, req dto.UpdatePlaceRequest) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	setIf(&p.Category, req.Category)
	setIf(&p.Is24h, req.Is24h)
	if req.Services != nil {
		services := domain.JoinTags(*req.Services)
		p.Services = &services
	}

	for _, f := range []struct {
		dst **string
		src *string
	}{
		{&p.Subcategory, req.Subcategory},
		{&p.Address, req.Address},
		{&p.City, req.City},
		{&p.Province, req.Province},
		{&p.Phone, req.Phone},
		{&p.Phone2, req.Phone2},
		{&p.Schedule, req.Schedule},
		{&p.UsuallyOpen, req.UsuallyOpen},
		{&p.PriceRange, req.PriceRange},
		{&p.Notes, req.Notes},
	} {
		if f.src != nil {
			*f.dst = f.src
		}
	}

	if req.FitsTrailer != nil {
		p.FitsTrailer = req.FitsTrailer
	}
	if req.FitsBus != nil {
		p.FitsBus = req.FitsBus
	}
	if req.FitsTruck != nil {
		p.FitsTruck = req.FitsTruck
	}
	if req.MaxHeight != nil {
		p.MaxHeight = req.MaxHeight
	}
	if req.MaxWidth != nil {
		p.MaxWidth = req.MaxWidth
	}
	if req.MaxWeight != nil {
		p.MaxWeight = req.MaxWeight
	}
}

// Confirm подтверждает актуальность места
func (uc *PlaceUseCase) Confirm(ctx context.Context, id int64, req dto.ActorRequest) (*domain.Place, error) {
	actor, err := uc.actors.ResolveActor(ctx, req)
	if err != nil {
		return nil, err
	}

	return updateTracked(ctx, uc.store, uc.ledger, placesOf, id, errors.ErrPlaceNotFound,
		func(_ repository.Store, p *domain.Place) ([]domain.ContributionEntry, error) {
			if !p.IsActive {
				return nil, errors.ErrPlaceNotFound
			}
			now := uc.ledger.Now()
			p.LastConfirmedAt = &now
			p.LastConfirmedBy = ptr(actor.UserID)
			p.UpdatedAt = now
			return []domain.ContributionEntry{{
				Target:     domain.PlaceRef{PlaceID: id},
				TargetName: p.Name,
				Action:     domain.ActionConfirm,
				Actor:      actor,
			}}, nil
		})
}

// Report увеличивает счётчик жалоб; причина сохраняется в журнале
func (uc *PlaceUseCase) Report(ctx context.Context, id int64, req dto.ReportRequest) (*domain.Place, error) {
	actor, err := uc.actors.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return nil, err
	}

	place, err := updateTracked(ctx, uc.store, uc.ledger, placesOf, id, errors.ErrPlaceNotFound,
		func(_ repository.Store, p *domain.Place) ([]domain.ContributionEntry, error) {
			p.ReportCount++
			p.UpdatedAt = uc.ledger.Now()
			return []domain.ContributionEntry{{
				Target:     domain.PlaceRef{PlaceID: id},
				TargetName: p.Name,
				Action:     domain.ActionReport,
				Actor:      actor,
				Notes:      strings.TrimSpace(req.Reason),
			}}, nil
		})
	if err != nil {
		return nil, err
	}

	if place.ReportCount == uc.reportThreshold() {
		uc.logger.Warn("Place flagged for review",
			zap.Int64("place_id", id),
			zap.Int("report_count", place.ReportCount))
	}
	return place, nil
}

func (uc *PlaceUseCase) reportThreshold() int {
	if uc.cfg.ReportThreshold > 0 {
		return uc.cfg.ReportThreshold
	}
	return domain.ReportThreshold
}

// Deactivate - мягкое удаление: запись остаётся, история в журнале сохраняется
func (uc *PlaceUseCase) Deactivate(ctx context.Context, id int64, req dto.DeactivateRequest) error {
	actor, err := uc.actors.ResolveActor(ctx, req.ActorRequest)
	if err != nil {
		return err
	}

	_, err = updateTracked(ctx, uc.store, uc.ledger, placesOf, id, errors.ErrPlaceNotFound,
		func(_ repository.Store, p *domain.Place) ([]domain.ContributionEntry, error) {
			if !p.IsActive {
				return nil, nil
			}
			p.IsActive = false
			p.UpdatedAt = uc.ledger.Now()
			return []domain.ContributionEntry{{
				Target:     domain.PlaceRef{PlaceID: id},
				TargetName: p.Name,
				Action:     domain.ActionDelete,
				Actor:      actor,
				Notes:      strings.TrimSpace(req.Reason),
			}}, nil
		})
	return err
}

// GetByID возвращает место, включая неактивные
func (uc *PlaceUseCase) GetByID(ctx context.Context, id int64) (*dto.PlaceResult, error) {
	p, err := getOr(ctx, uc.store.Places(), id, errors.ErrPlaceNotFound)
	if err != nil {
		return nil, err
	}
	res := dto.NewPlaceResult(*p, nil)
	return &res, nil
}

func placeFilters(req dto.NearbyPlacesRequest) []repository.Predicate {
	preds := []repository.Predicate{repository.Eq("is_active", true)}
	if req.Category != "" {
		preds = append(preds, repository.Eq("category", req.Category))
	}
	if req.Only24h {
		preds = append(preds, repository.Eq("is_24h", true))
	}
	return preds
}

// Nearby - активные места в радиусе, от ближних к дальним
func (uc *PlaceUseCase) Nearby(ctx context.Context, req dto.NearbyPlacesRequest) (*dto.NearbyResponse[dto.PlaceResult], error) {
	p, err := checkGeo(uc.cfg, req.NearbyRequest)
	if err != nil {
		return nil, err
	}

	found, err := nearby(ctx, uc.store.Places(), repository.TablePlaces,
		boxQuery("latitude", "longitude", p, placeFilters(req)...), p)
	if err != nil {
		uc.logger.Error("Failed to search places nearby", zap.Error(err))
		return nil, err
	}

	items := make([]dto.PlaceResult, 0, len(found))
	for _, f := range found {
		if req.TruckFriendly && !f.Item.IsTruckFriendly() {
			continue
		}
		items = append(items, dto.NewPlaceResult(f.Item, distance(f.DistanceKm)))
	}
	items = truncate(items, p.limit)

	return &dto.NearbyResponse[dto.PlaceResult]{
		Items:    items,
		Total:    len(items),
		Center:   domain.Point{Lat: p.lat, Lon: p.lon},
		RadiusKm: p.radiusKm,
	}, nil
}

// SubscribeNearby - живая версия Nearby; канал закрывается при отмене ctx
func (uc *PlaceUseCase) SubscribeNearby(ctx context.Context, req dto.NearbyPlacesRequest) (<-chan []geo.WithDistance[domain.Place], error) {
	p, err := checkGeo(uc.cfg, req.NearbyRequest)
	if err != nil {
		return nil, err
	}
	return subscribeNearby(ctx, uc.store.Places(), boxQuery("latitude", "longitude", p, placeFilters(req)...), p), nil
}

func searchQuery(req dto.SearchPlacesRequest) repository.Query {
	text := strings.TrimSpace(req.Query)
	q := repository.NewQuery(repository.Eq("is_active", true)).
		Or(
			repository.Like("name", text),
			repository.Like("city", text),
			repository.Like("address", text),
		).
		Sort(repository.Asc("name"), repository.Asc("id")).
		Take(req.Limit)
	if req.Category != "" {
		q = q.And(repository.Eq("category", req.Category))
	}
	return q
}

// Search - поиск по подстроке в названии, городе или адресе без учёта регистра
func (uc *PlaceUseCase) Search(ctx context.Context, req dto.SearchPlacesRequest) (*dto.ListResponse[dto.PlaceResult], error) {
	if req.Limit <= 0 {
		req.Limit = uc.cfg.DefaultLimit
	}
	places, err := uc.store.Places().Find(ctx, searchQuery(req))
	if err != nil {
		return nil, err
	}
	res := dto.NewListResponse(toPlaceResults(places))
	return &res, nil
}

// SubscribeSearch - живая версия Search
func (uc *PlaceUseCase) SubscribeSearch(ctx context.Context, req dto.SearchPlacesRequest) <-chan []domain.Place {
	if req.Limit <= 0 {
		req.Limit = uc.cfg.DefaultLimit
	}
	return uc.store.Places().Subscribe(ctx, searchQuery(req))
}

// ByCategory - активные места категории
func (uc *PlaceUseCase) ByCategory(ctx context.Context, category string, limit int) (*dto.ListResponse[dto.PlaceResult], error) {
	if !domain.IsValidCategory(category) {
		return nil, errors.ErrValidation.WithReason("unknown place category")
	}
	places, err := uc.store.Places().Find(ctx, repository.NewQuery(
		repository.Eq("is_active", true),
		repository.Eq("category", category),
	).Sort(repository.Asc("name")).Take(limit))
	if err != nil {
		return nil, err
	}
	res := dto.NewListResponse(toPlaceResults(places))
	return &res, nil
}

// ByRegion - активные места региона
func (uc *PlaceUseCase) ByRegion(ctx context.Context, region string, limit int) (*dto.ListResponse[dto.PlaceResult], error) {
	if !geo.IsValidRegion(region) {
		return nil, errors.ErrInvalidRegion
	}
	places, err := uc.store.Places().Find(ctx, repository.NewQuery(
		repository.Eq("is_active", true),
		repository.Eq("region", region),
	).Sort(repository.Asc("name")).Take(limit))
	if err != nil {
		return nil, err
	}
	res := dto.NewListResponse(toPlaceResults(places))
	return &res, nil
}

// NeedingReview - места, набравшие достаточно жалоб
func (uc *PlaceUseCase) NeedingReview(ctx context.Context, limit int) (*dto.ListResponse[dto.PlaceResult], error) {
	places, err := uc.store.Places().Find(ctx, repository.NewQuery(
		repository.Eq("is_active", true),
		repository.Gte("report_count", uc.reportThreshold()),
	).Sort(repository.Desc("report_count"), repository.Asc("id")).Take(limit))
	if err != nil {
		return nil, err
	}
	res := dto.NewListResponse(toPlaceResults(places))
	return &res, nil
}

// Categories - каталог категорий
func (uc *PlaceUseCase) Categories() []domain.Category {
	return domain.PlaceCategories
}

func toPlaceResults(places []domain.Place) []dto.PlaceResult {
	out := make([]dto.PlaceResult, 0, len(places))
	for _, p := range places {
		out = append(out, dto.NewPlaceResult(p, nil))
	}
	return out
}

// ExportGeoJSON - активные места региона (или все) как FeatureCollection для карты
func (uc *PlaceUseCase) ExportGeoJSON(ctx context.Context, region, category string) (*geojson.FeatureCollection, error) {
	q := repository.NewQuery(repository.Eq("is_active", true)).Sort(repository.Asc("id"))
	if region != "" {
		if !geo.IsValidRegion(region) {
			return nil, errors.ErrInvalidRegion
		}
		q = q.And(repository.Eq("region", region))
	}
	if category != "" {
		q = q.And(repository.Eq("category", category))
	}

	places, err := uc.store.Places().Find(ctx, q)
	if err != nil {
		return nil, err
	}

	return featureCollection(places,
		func(p domain.Place) int64 { return p.ID },
		func(p domain.Place) geojson.Properties {
			return geojson.Properties{
				"name":         p.Name,
				"category":     p.Category,
				"region":       p.Region,
				"is_24h":       p.Is24h,
				"needs_review": p.NeedsReview(),
			}
		}), nil
}
