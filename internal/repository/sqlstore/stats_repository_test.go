package sqlstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/repository/sqlstore/testhelpers"
)

// StatsRepositoryTestSuite тестирует агрегаты по всем таблицам
type StatsRepositoryTestSuite struct {
	suite.Suite
	testDB *testhelpers.TestDB
	ctx    context.Context
}

func (s *StatsRepositoryTestSuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDB(s.T())
	s.ctx = context.Background()

	store := s.testDB.Store
	places := []*domain.Place{
		testhelpers.NewPlace("Taller 1", domain.CategoryWorkshop, testhelpers.Madrid),
		testhelpers.NewPlace("Taller 2", domain.CategoryWorkshop, testhelpers.Getafe),
		testhelpers.NewPlace("Bar", domain.CategoryBar, testhelpers.Madrid),
		testhelpers.NewPlace("Cerrado", domain.CategoryBar, testhelpers.Madrid),
	}
	places[0].Is24h = true
	places[1].ReportCount = domain.ReportThreshold
	places[2].Region = "cataluna"
	places[3].IsActive = false
	for _, p := range places {
		_, err := store.Places().Insert(s.ctx, p)
		s.Require().NoError(err)
	}

	_, err := store.Restrictions().Insert(s.ctx, testhelpers.NewRestriction("Puente", 3.5, testhelpers.Madrid))
	s.Require().NoError(err)

	helper := testhelpers.NewHelper("Paco", "user_aaaaaaaaaaaa", testhelpers.Madrid)
	helper.HelpCount = 4
	_, err = store.Helpers().Insert(s.ctx, helper)
	s.Require().NoError(err)

	_, err = store.HelpRequests().Insert(s.ctx, testhelpers.NewHelpRequest("user_b", testhelpers.Madrid))
	s.Require().NoError(err)

	route := testhelpers.NewRoute("R", testhelpers.Madrid, testhelpers.Getafe)
	route.IsFavorite = true
	_, err = store.Routes().Insert(s.ctx, route)
	s.Require().NoError(err)

	_, err = store.Contributions().Append(s.ctx,
		testhelpers.NewContribution(domain.PlaceRef{PlaceID: places[0].ID}, domain.ActionCreate, "u1", testhelpers.Now))
	s.Require().NoError(err)
}

func (s *StatsRepositoryTestSuite) TearDownSuite() {
	if s.testDB != nil {
		s.testDB.Close()
	}
}

// ============================================================================
// GetStatistics Tests
// ============================================================================

func (s *StatsRepositoryTestSuite) TestGetStatistics_Success() {
	// Act
	stats, err := s.testDB.Store.Stats().GetStatistics(s.ctx)

	// Assert
	s.NoError(err)
	s.Require().NotNil(stats)
	s.NotZero(stats.LastUpdated)

	s.Equal(3, stats.Places.TotalActive)
	s.Equal(2, stats.Places.ByCategory[domain.CategoryWorkshop])
	s.Equal(1, stats.Places.ByCategory[domain.CategoryBar])
	s.Equal(1, stats.Places.ByRegion["cataluna"])
	s.Equal(1, stats.Places.Open24h)
	s.Equal(1, stats.Places.NeedsReview)

	s.Equal(1, stats.Restrictions.TotalActive)
	s.Equal(1, stats.Restrictions.ByType[domain.RestrictionHeight])

	s.Equal(1, stats.Helpers.Available)
	s.Equal(4, stats.Helpers.TotalHelpsGiven)
	s.Equal(1, stats.Helpers.RequestsByStatus[string(domain.HelpStatusPending)])

	s.Equal(1, stats.Routes.TotalActive)
	s.Equal(1, stats.Routes.Favorites)

	s.EqualValues(1, stats.Contributions.Total)
	s.EqualValues(1, stats.Contributions.Unsynced)
	s.EqualValues(1, stats.Contributions.ByAction[string(domain.ActionCreate)])
	s.Len(stats.Contributions.TopContributors, 1)
}

func TestStatsRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(StatsRepositoryTestSuite))
}
