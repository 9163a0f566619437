package domain

import "time"

// Point - координата (используется в геометрии маршрутов)
type Point struct {
	Lat float64 `json:"lat" db:"lat"`
	Lon float64 `json:"lon" db:"lon"`
}

// Coordinates реализует geo.Locatable
func (p Point) Coordinates() (float64, float64) {
	return p.Lat, p.Lon
}

// Source - происхождение записи
const (
	SourceCommunity = "community"
	SourceBusiness  = "business"
	SourceOfficial  = "official"
	SourceImport    = "import"
)

// Community thresholds
const (
	ReportThreshold        = 3
	DefaultResultsLimit    = 50
	ConfirmationExpiryDays = 90
)

// Statistics - сводная статистика сообщества
type Statistics struct {
	Places        PlaceStats        `json:"places"`
	Restrictions  RestrictionStats  `json:"restrictions"`
	Helpers       HelperStats       `json:"helpers"`
	Routes        RouteStats        `json:"routes"`
	Contributions ContributionStats `json:"contributions"`
	LastUpdated   time.Time         `json:"last_updated"`
}

// PlaceStats статистика по местам
type PlaceStats struct {
	TotalActive int            `json:"total_active"`
	ByCategory  map[string]int `json:"by_category"`
	ByRegion    map[string]int `json:"by_region"`
	Open24h     int            `json:"open_24h"`
	NeedsReview int            `json:"needs_review"`
}

// RestrictionStats статистика по ограничениям
type RestrictionStats struct {
	TotalActive int            `json:"total_active"`
	ByType      map[string]int `json:"by_type"`
	ByRegion    map[string]int `json:"by_region"`
}

// HelperStats статистика по помощникам и запросам помощи
type HelperStats struct {
	TotalActive      int            `json:"total_active"`
	Available        int            `json:"available"`
	TotalHelpsGiven  int            `json:"total_helps_given"`
	RequestsByStatus map[string]int `json:"requests_by_status"`
}

// RouteStats статистика по маршрутам
type RouteStats struct {
	TotalActive int `json:"total_active"`
	Public      int `json:"public"`
	Favorites   int `json:"favorites"`
}

// ContributionStats статистика по журналу вкладов
type ContributionStats struct {
	Total           int64            `json:"total"`
	ByAction        map[string]int64 `json:"by_action"`
	ByTargetType    map[string]int64 `json:"by_target_type"`
	DistinctUsers   int64            `json:"distinct_users"`
	Unsynced        int64            `json:"unsynced"`
	LastSevenDays   int64            `json:"last_seven_days"`
	TopContributors []UserCount      `json:"top_contributors"`
}

// UserCount - строка рейтинга участников
type UserCount struct {
	UserID   string  `json:"user_id" db:"user_id"`
	UserName *string `json:"user_name,omitempty" db:"user_name"`
	Count    int64   `json:"count" db:"count"`
}

// StringValue возвращает значение указателя или пустую строку
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
