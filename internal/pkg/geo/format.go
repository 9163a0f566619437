package geo

import (
	"fmt"
	"strings"
)

// FormatDistance - человекочитаемое расстояние: "850 m", "3.4 km", "27 km"
func FormatDistance(distanceKm float64) string {
	switch {
	case distanceKm < 1:
		return fmt.Sprintf("%d m", int(distanceKm*1000))
	case distanceKm < 10:
		return fmt.Sprintf("%.1f km", distanceKm)
	default:
		return fmt.Sprintf("%d km", int(distanceKm))
	}
}

// FormatDistanceUnit форматирует расстояние в км или милях ("mi")
func FormatDistanceUnit(distanceKm float64, unit string) string {
	if strings.EqualFold(unit, "mi") {
		miles := distanceKm * 0.621371
		if miles < 10 {
			return fmt.Sprintf("%.1f mi", miles)
		}
		return fmt.Sprintf("%d mi", int(miles))
	}
	return FormatDistance(distanceKm)
}

// FormatETA - "< 1 min", "25 min", "2h", "1h 15min"
func FormatETA(minutes int) string {
	switch {
	case minutes < 1:
		return "< 1 min"
	case minutes < 60:
		return fmt.Sprintf("%d min", minutes)
	default:
		hours := minutes / 60
		mins := minutes % 60
		if mins == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh %dmin", hours, mins)
	}
}
