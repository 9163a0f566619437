package sqlstore

import (
	"context"
	"fmt"

	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/live"
	apperrors "github.com/siempreabierto/internal/pkg/errors"
	"go.uber.org/zap"
)

// Store - реализация repository.Store. Экземпляр либо работает напрямую с БД
// (каждая запись - отдельный auto-commit), либо привязан к транзакции.
type Store struct {
	db   *DB
	conn *conn

	places        repository.PlaceRepository
	restrictions  repository.RestrictionRepository
	helpers       repository.HelperRepository
	helpRequests  repository.HelpRequestRepository
	routes        repository.RouteRepository
	settings      repository.SettingsRepository
	contributions *contributionRepository
	stats         *statsRepository
}

// NewStore создает хранилище. hub получает уведомления об изменении таблиц;
// nil заменяется локальным hub без Redis.
func NewStore(db *DB, hub *live.Hub, logger *zap.Logger) *Store {
	if hub == nil {
		hub = live.NewHub(nil, "", logger)
	}
	return newStore(&conn{ext: db.DB, db: db, hub: hub, logger: logger})
}

func newStore(c *conn) *Store {
	return &Store{
		db:            c.db,
		conn:          c,
		places:        newPlaceRepository(c),
		restrictions:  newRestrictionRepository(c),
		helpers:       newHelperRepository(c),
		helpRequests:  newHelpRequestRepository(c),
		routes:        newRouteRepository(c),
		settings:      newSettingsRepository(c),
		contributions: newContributionRepository(c),
		stats:         newStatsRepository(c),
	}
}

func (s *Store) Places() repository.PlaceRepository               { return s.places }
func (s *Store) Restrictions() repository.RestrictionRepository   { return s.restrictions }
func (s *Store) Helpers() repository.HelperRepository             { return s.helpers }
func (s *Store) HelpRequests() repository.HelpRequestRepository   { return s.helpRequests }
func (s *Store) Routes() repository.RouteRepository               { return s.routes }
func (s *Store) Settings() repository.SettingsRepository          { return s.settings }
func (s *Store) Contributions() repository.ContributionRepository { return s.contributions }
func (s *Store) Stats() repository.StatsRepository                { return s.stats }

// Hub возвращает hub живых подписок
func (s *Store) Hub() *live.Hub {
	return s.conn.hub
}

// WithinTx выполняет fn в транзакции. Изменённые таблицы рассылаются
// подписчикам только после успешного commit.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.conn.inTx() {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.conn.logger.Error("Failed to begin transaction", zap.Error(err))
		return apperrors.ErrDatabaseError.WithReason(fmt.Sprintf("begin tx: %v", err))
	}

	txConn := &conn{
		ext:     tx,
		db:      s.db,
		hub:     s.conn.hub,
		logger:  s.conn.logger,
		touched: map[string]struct{}{},
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newStore(txConn)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.conn.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		s.conn.logger.Error("Failed to commit transaction", zap.Error(err))
		return apperrors.ErrDatabaseError.WithReason(fmt.Sprintf("commit tx: %v", err))
	}

	for table := range txConn.touched {
		s.conn.hub.Notify(table)
	}
	return nil
}

var _ repository.Store = (*Store)(nil)
