package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalUserID(t *testing.T) {
	id := NewLocalUserID()
	assert.Regexp(t, regexp.MustCompile(`^user_[0-9a-f]{12}$`), id)
	assert.NotEqual(t, id, NewLocalUserID())
}

func TestDefaultUserSettings(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := DefaultUserSettings(now)

	assert.Equal(t, SettingsID, s.ID)
	assert.Equal(t, VehicleCar, s.VehicleType)
	assert.Equal(t, AlertDistanceDefaultKm, s.RestrictionAlertDistance)
	assert.Equal(t, "[]", s.DownloadedRegions)
	assert.Empty(t, s.RegionsList())
	assert.False(t, s.NeedsRestrictionAlerts())
	assert.True(t, s.Vehicle().IsEmpty())
	assert.Equal(t, s.LocalUserID, s.DisplayName())
}

func TestUserSettings_Regions(t *testing.T) {
	var s UserSettings
	s.SetRegions([]string{"madrid", "galicia", "madrid"})

	assert.Equal(t, `["galicia","madrid"]`, s.DownloadedRegions)
	assert.True(t, s.HasRegionDownloaded("madrid"))
	assert.False(t, s.HasRegionDownloaded("murcia"))

	s.SetRegions(nil)
	assert.Equal(t, "[]", s.DownloadedRegions)
}

func TestVehicleProfiles(t *testing.T) {
	p, ok := ProfileFor(VehicleTruckLarge)
	require.True(t, ok)

	dims := p.Dimensions()
	assert.Equal(t, 4.0, *dims.Height)
	assert.Equal(t, 2.5, *dims.Width)
	assert.Equal(t, 26.0, *dims.Weight)
	assert.Equal(t, 12.0, *dims.Length)

	assert.True(t, NeedsRestrictionAlerts(VehicleBus))
	assert.True(t, NeedsRestrictionAlerts(VehicleCamperLarge))
	assert.False(t, NeedsRestrictionAlerts(VehicleVan))
	assert.True(t, IsValidVehicleType(VehicleMotorcycle))
	assert.False(t, IsValidVehicleType("tractor"))
}
