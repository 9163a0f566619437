package usecase_test

import (
	"context"
	"testing"

	"github.com/siempreabierto/internal/config"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/repository/sqlstore/testhelpers"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
	"github.com/stretchr/testify/require"
)

// testEnv собирает все use case поверх in-memory SQLite
type testEnv struct {
	ctx  context.Context
	tdb  *testhelpers.TestDB
	cfg  *config.Config
	self *domain.UserSettings

	ledger        *usecase.Ledger
	settings      *usecase.SettingsUseCase
	places        *usecase.PlaceUseCase
	restrictions  *usecase.RestrictionUseCase
	helpers       *usecase.HelperUseCase
	helpRequests  *usecase.HelpRequestUseCase
	routes        *usecase.RouteUseCase
	contributions *usecase.ContributionUseCase
}

func newTestEnv(t *testing.T, sync usecase.SyncOptions) *testEnv {
	t.Helper()

	tdb := testhelpers.SetupTestDB(t)
	t.Cleanup(tdb.Close)

	ctx := context.Background()
	cfg := config.Default()
	store := tdb.Store
	logger := tdb.Logger

	ledger := usecase.NewLedger(logger)
	settings := usecase.NewSettingsUseCase(store, ledger, logger)
	self, err := settings.Initialize(ctx)
	require.NoError(t, err)

	return &testEnv{
		ctx:           ctx,
		tdb:           tdb,
		cfg:           cfg,
		self:          self,
		ledger:        ledger,
		settings:      settings,
		places:        usecase.NewPlaceUseCase(store, ledger, settings, cfg.Geo, logger),
		restrictions:  usecase.NewRestrictionUseCase(store, ledger, settings, cfg.Geo, logger),
		helpers:       usecase.NewHelperUseCase(store, ledger, settings, cfg.Geo, logger),
		helpRequests:  usecase.NewHelpRequestUseCase(store, ledger, settings, cfg.Geo, logger),
		routes:        usecase.NewRouteUseCase(store, ledger, settings, cfg.Geo, logger),
		contributions: usecase.NewContributionUseCase(store, ledger, settings, sync, logger),
	}
}

func (e *testEnv) history(t *testing.T, target domain.Target) []domain.Contribution {
	t.Helper()
	items, err := e.contributions.HistoryForTarget(e.ctx, target, "", 100)
	require.NoError(t, err)
	return items
}

func (e *testEnv) refreshSettings(t *testing.T) *domain.UserSettings {
	t.Helper()
	s, err := e.settings.Refresh(e.ctx)
	require.NoError(t, err)
	return s
}

func coord(v float64) *float64 { return &v }

func nearMadrid(radiusKm float64) dto.NearbyRequest {
	return dto.NearbyRequest{Lat: coord(testhelpers.Madrid.Lat), Lon: coord(testhelpers.Madrid.Lon), RadiusKm: radiusKm}
}
