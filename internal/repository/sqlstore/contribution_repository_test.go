package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/repository/sqlstore/testhelpers"
)

// ContributionRepositoryTestSuite тестирует журнал вкладов
type ContributionRepositoryTestSuite struct {
	suite.Suite
	testDB *testhelpers.TestDB
	repo   repository.ContributionRepository
	ctx    context.Context
}

func (s *ContributionRepositoryTestSuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDB(s.T())
	s.repo = s.testDB.Store.Contributions()
}

func (s *ContributionRepositoryTestSuite) TearDownSuite() {
	if s.testDB != nil {
		s.testDB.Close()
	}
}

func (s *ContributionRepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.testDB.Cleanup(s.ctx))
}

func (s *ContributionRepositoryTestSuite) appendAt(target domain.Target, action domain.Action, user string, at time.Time) *domain.Contribution {
	c := testhelpers.NewContribution(target, action, user, at)
	_, err := s.repo.Append(s.ctx, c)
	s.Require().NoError(err)
	return c
}

func (s *ContributionRepositoryTestSuite) fieldUpdate(target domain.Target, field, oldV, newV string, at time.Time) *domain.Contribution {
	entry := domain.ContributionEntry{
		Target: target,
		Action: domain.ActionUpdate,
		Actor:  domain.Actor{UserID: "u1"},
		Change: &domain.FieldChange{Field: field, OldValue: &oldV, NewValue: &newV},
	}.ToContribution(at)
	_, err := s.repo.Append(s.ctx, &entry)
	s.Require().NoError(err)
	return &entry
}

// ============================================================================
// Append / Count Tests
// ============================================================================

func (s *ContributionRepositoryTestSuite) TestAppend_BornUnsynced() {
	c := testhelpers.NewContribution(domain.PlaceRef{PlaceID: 1}, domain.ActionCreate, "u1", testhelpers.Now)
	c.IsSynced = true

	id, err := s.repo.Append(s.ctx, c)
	s.NoError(err)
	s.Positive(id)

	got, err := s.repo.GetByID(s.ctx, id)
	s.NoError(err)
	s.Require().NotNil(got)
	s.False(got.IsSynced)
	s.Nil(got.SyncedAt)
	s.Equal(domain.TargetPlace, got.TargetType)
	s.Equal(domain.ActionCreate, got.Action)
}

func (s *ContributionRepositoryTestSuite) TestCounts() {
	now := testhelpers.Now
	s.appendAt(domain.PlaceRef{PlaceID: 1}, domain.ActionCreate, "u1", now)
	s.appendAt(domain.PlaceRef{PlaceID: 1}, domain.ActionConfirm, "u2", now)
	s.appendAt(domain.RestrictionRef{RestrictionID: 1}, domain.ActionCreate, "u1", now)
	s.appendAt(domain.RouteRef{RouteID: 1}, domain.ActionUpvote, "u3", now.AddDate(0, 0, -10))

	all, err := s.repo.Count(s.ctx, domain.ContributionFilter{})
	s.NoError(err)
	s.EqualValues(4, all)

	byUser, err := s.repo.Count(s.ctx, domain.ContributionFilter{UserID: "u1"})
	s.NoError(err)
	s.EqualValues(2, byUser)

	byUserAction, err := s.repo.Count(s.ctx, domain.ContributionFilter{UserID: "u1", Action: domain.ActionCreate})
	s.NoError(err)
	s.EqualValues(2, byUserAction)

	byUserTarget, err := s.repo.Count(s.ctx, domain.ContributionFilter{UserID: "u1", TargetType: domain.TargetRestriction})
	s.NoError(err)
	s.EqualValues(1, byUserTarget)

	since := now.AddDate(0, 0, -7)
	recent, err := s.repo.Count(s.ctx, domain.ContributionFilter{Since: &since})
	s.NoError(err)
	s.EqualValues(3, recent)

	byAction, err := s.repo.CountByAction(s.ctx, domain.ContributionFilter{})
	s.NoError(err)
	s.Equal(map[domain.Action]int64{
		domain.ActionCreate:  2,
		domain.ActionConfirm: 1,
		domain.ActionUpvote:  1,
	}, byAction)

	byTarget, err := s.repo.CountByTargetType(s.ctx, domain.ContributionFilter{})
	s.NoError(err)
	s.EqualValues(2, byTarget[domain.TargetPlace])
	s.EqualValues(1, byTarget[domain.TargetRoute])

	distinct, err := s.repo.CountDistinctUsers(s.ctx)
	s.NoError(err)
	s.EqualValues(3, distinct)
}

func (s *ContributionRepositoryTestSuite) TestLastContributionAt() {
	none, err := s.repo.LastContributionAt(s.ctx, "nobody")
	s.NoError(err)
	s.Nil(none)

	later := testhelpers.Now.Add(time.Hour)
	s.appendAt(domain.PlaceRef{PlaceID: 1}, domain.ActionCreate, "u1", testhelpers.Now)
	s.appendAt(domain.PlaceRef{PlaceID: 2}, domain.ActionCreate, "u1", later)

	last, err := s.repo.LastContributionAt(s.ctx, "u1")
	s.NoError(err)
	s.Require().NotNil(last)
	s.True(last.Equal(later))
}

func (s *ContributionRepositoryTestSuite) TestTopContributors() {
	for i := 0; i < 3; i++ {
		s.appendAt(domain.PlaceRef{PlaceID: int64(i)}, domain.ActionCreate, "alice", testhelpers.Now)
	}
	s.appendAt(domain.PlaceRef{PlaceID: 9}, domain.ActionConfirm, "bob", testhelpers.Now)
	s.appendAt(domain.PlaceRef{PlaceID: 9}, domain.ActionConfirm, "carol", testhelpers.Now)

	top, err := s.repo.TopContributors(s.ctx, nil, 2)
	s.NoError(err)
	s.Require().Len(top, 2)
	s.Equal("alice", top[0].UserID)
	s.EqualValues(3, top[0].Count)
	s.Equal("bob", top[1].UserID)
}

// ============================================================================
// History Tests
// ============================================================================

func (s *ContributionRepositoryTestSuite) TestHistoryForTarget_NewestFirst() {
	target := domain.PlaceRef{PlaceID: 7}
	s.appendAt(target, domain.ActionCreate, "u1", testhelpers.Now)
	s.fieldUpdate(target, "phone", "1", "2", testhelpers.Now.Add(time.Minute))
	s.fieldUpdate(target, "schedule", "9-14", "9-20", testhelpers.Now.Add(2*time.Minute))
	s.appendAt(domain.PlaceRef{PlaceID: 8}, domain.ActionCreate, "u1", testhelpers.Now)

	history, err := s.repo.HistoryForTarget(s.ctx, target, "", 10)
	s.NoError(err)
	s.Require().Len(history, 3)
	s.Equal("schedule", domain.StringValue(history[0].FieldChanged))
	s.Equal(domain.ActionCreate, history[2].Action)

	phone, err := s.repo.HistoryForTarget(s.ctx, target, "phone", 10)
	s.NoError(err)
	s.Require().Len(phone, 1)
	s.Equal("2", domain.StringValue(phone[0].NewValue))

	limited, err := s.repo.HistoryForTarget(s.ctx, target, "", 1)
	s.NoError(err)
	s.Len(limited, 1)
}

func (s *ContributionRepositoryTestSuite) TestRecentAndByUser() {
	s.appendAt(domain.PlaceRef{PlaceID: 1}, domain.ActionCreate, "u1", testhelpers.Now)
	s.appendAt(domain.PlaceRef{PlaceID: 2}, domain.ActionCreate, "u2", testhelpers.Now.Add(time.Minute))

	recent, err := s.repo.Recent(s.ctx, 10)
	s.NoError(err)
	s.Require().Len(recent, 2)
	s.Equal("u2", recent[0].UserID)

	mine, err := s.repo.ByUser(s.ctx, "u1", 10)
	s.NoError(err)
	s.Require().Len(mine, 1)
	s.EqualValues(1, mine[0].TargetID)
}

// ============================================================================
// Sync Tests
// ============================================================================

func (s *ContributionRepositoryTestSuite) TestSyncFlags() {
	a := s.appendAt(domain.PlaceRef{PlaceID: 1}, domain.ActionCreate, "u1", testhelpers.Now)
	s.appendAt(domain.PlaceRef{PlaceID: 2}, domain.ActionCreate, "u1", testhelpers.Now)
	s.appendAt(domain.PlaceRef{PlaceID: 3}, domain.ActionCreate, "u1", testhelpers.Now)

	unsynced, err := s.repo.CountUnsynced(s.ctx)
	s.NoError(err)
	s.EqualValues(3, unsynced)

	syncedAt := testhelpers.Now.Add(time.Hour)
	marked, err := s.repo.MarkSynced(s.ctx, []int64{a.ID}, syncedAt)
	s.NoError(err)
	s.EqualValues(1, marked)

	batch, err := s.repo.Unsynced(s.ctx, 10)
	s.NoError(err)
	s.Len(batch, 2)

	marked, err = s.repo.MarkAllSynced(s.ctx, syncedAt)
	s.NoError(err)
	s.EqualValues(2, marked)

	unsynced, err = s.repo.CountUnsynced(s.ctx)
	s.NoError(err)
	s.Zero(unsynced)

	got, err := s.repo.GetByID(s.ctx, a.ID)
	s.NoError(err)
	s.True(got.IsSynced)
	s.Require().NotNil(got.SyncedAt)
	s.True(got.SyncedAt.Equal(syncedAt))

	// a second pass finds nothing to mark
	marked, err = s.repo.MarkAllSynced(s.ctx, syncedAt)
	s.NoError(err)
	s.Zero(marked)
}

func (s *ContributionRepositoryTestSuite) TestDeleteAll() {
	s.appendAt(domain.PlaceRef{PlaceID: 1}, domain.ActionCreate, "u1", testhelpers.Now)
	s.appendAt(domain.PlaceRef{PlaceID: 2}, domain.ActionCreate, "u1", testhelpers.Now)

	deleted, err := s.repo.DeleteAll(s.ctx)
	s.NoError(err)
	s.EqualValues(2, deleted)
}

func (s *ContributionRepositoryTestSuite) TestSubscribeHistory() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	target := domain.PlaceRef{PlaceID: 42}
	updates := s.repo.SubscribeHistory(ctx, target, "", 10)

	select {
	case initial := <-updates:
		s.Empty(initial)
	case <-time.After(2 * time.Second):
		s.FailNow("timeout waiting for initial history")
	}

	s.appendAt(target, domain.ActionConfirm, "u1", testhelpers.Now)

	select {
	case next := <-updates:
		s.Require().Len(next, 1)
		s.Equal(domain.ActionConfirm, next[0].Action)
	case <-time.After(2 * time.Second):
		s.FailNow("timeout waiting for history update")
	}
}

func TestContributionRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(ContributionRepositoryTestSuite))
}
