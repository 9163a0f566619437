package testhelpers

import (
	"time"

	"github.com/siempreabierto/internal/domain"
)

// Fixed reference points
var (
	Madrid    = domain.Point{Lat: 40.4168, Lon: -3.7038}
	Getafe    = domain.Point{Lat: 40.3057, Lon: -3.7329}
	Alcala    = domain.Point{Lat: 40.4820, Lon: -3.3635}
	Toledo    = domain.Point{Lat: 39.8628, Lon: -4.0273}
	Barcelona = domain.Point{Lat: 41.3874, Lon: 2.1686}
)

// Now - fixed clock for deterministic fixtures
var Now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// NewPlace builds an active community place at p
func NewPlace(name, category string, p domain.Point) *domain.Place {
	return &domain.Place{
		Name:          name,
		Category:      category,
		Latitude:      p.Lat,
		Longitude:     p.Lon,
		Region:        "madrid",
		ContributedBy: "user_test00000001",
		Source:        domain.SourceCommunity,
		CreatedAt:     Now,
		UpdatedAt:     Now,
		IsActive:      true,
	}
}

// NewRestriction builds an active height restriction at p
func NewRestriction(name string, maxHeight float64, p domain.Point) *domain.Restriction {
	return &domain.Restriction{
		Name:          name,
		Latitude:      p.Lat,
		Longitude:     p.Lon,
		Type:          domain.RestrictionHeight,
		MaxHeight:     &maxHeight,
		Region:        "madrid",
		ContributedBy: "user_test00000001",
		Source:        domain.SourceCommunity,
		CreatedAt:     Now,
		UpdatedAt:     Now,
		IsActive:      true,
	}
}

// NewHelper builds an available helper profile for localUserID at p
func NewHelper(nickname, localUserID string, p domain.Point) *domain.Helper {
	return &domain.Helper{
		Nickname:         nickname,
		LocalUserID:      localUserID,
		Latitude:         p.Lat,
		Longitude:        p.Lon,
		Region:           "madrid",
		CoverageRadiusKm: domain.HelperCoverageDefaultKm,
		VehicleType:      domain.VehicleCar,
		CanHelpWith:      domain.JoinTags([]string{domain.HelpJumpStart, domain.HelpTools}),
		IsAvailable:      true,
		CreatedAt:        Now,
		UpdatedAt:        Now,
		LastActiveAt:     Now,
		IsActive:         true,
	}
}

// NewHelpRequest builds a pending help request at p
func NewHelpRequest(requesterID string, p domain.Point) *domain.HelpRequest {
	desc := "Área de servicio km 24 de la A-4, junto a la gasolinera"
	return &domain.HelpRequest{
		RequesterID:         requesterID,
		Latitude:            p.Lat,
		Longitude:           p.Lon,
		LocationDescription: &desc,
		ProblemType:         domain.ProblemBattery,
		Status:              domain.HelpStatusPending,
		CreatedAt:           Now,
	}
}

// NewRoute builds an active public route from a to b
func NewRoute(name string, a, b domain.Point) *domain.Route {
	geometry, _ := domain.EncodeWaypoints([]domain.Point{a, b})
	return &domain.Route{
		Name:             name,
		Geometry:         geometry,
		Waypoints:        []domain.Point{a, b},
		OriginName:       "A",
		OriginLat:        a.Lat,
		OriginLon:        a.Lon,
		DestinationName:  "B",
		DestinationLat:   b.Lat,
		DestinationLon:   b.Lon,
		DistanceKm:       10,
		EstimatedMinutes: 10,
		VehicleType:      domain.RouteVehicleAny,
		IsPublic:         true,
		ContributedBy:    "user_test00000001",
		CreatedAt:        Now,
		UpdatedAt:        Now,
		IsActive:         true,
	}
}

// NewContribution builds an unsynced ledger entry
func NewContribution(target domain.Target, action domain.Action, userID string, at time.Time) *domain.Contribution {
	c := domain.ContributionEntry{
		Target: target,
		Action: action,
		Actor:  domain.Actor{UserID: userID},
	}.ToContribution(at)
	return &c
}
