package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/metrics"
	"github.com/siempreabierto/internal/pkg/errors"
	"go.uber.org/zap"
)

// fieldHelpCount - поле журнала для оказанной помощи
const fieldHelpCount = "help_count"

// Ledger записывает вклады сообщества. Record вызывается на Store транзакции,
// в которой меняется сама сущность, поэтому изменение и запись журнала
// фиксируются или откатываются вместе.
type Ledger struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewLedger создает новый экземпляр Ledger
func NewLedger(logger *zap.Logger) *Ledger {
	return &Ledger{
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Now - текущее время в UTC
func (l *Ledger) Now() time.Time {
	return l.now()
}

// Record добавляет запись в журнал и обновляет кеш счётчиков настроек,
// если автор - локальный пользователь устройства.
func (l *Ledger) Record(ctx context.Context, tx repository.Store, entry domain.ContributionEntry) (int64, error) {
	if entry.Target == nil || entry.Target.ID() <= 0 {
		return 0, errors.ErrInvalidTarget
	}
	if !domain.IsValidAction(entry.Action) {
		return 0, errors.ErrValidation.WithReason(fmt.Sprintf("unknown action %q", entry.Action))
	}
	if entry.Actor.UserID == "" {
		return 0, errors.ErrValidation.WithReason("user_id is required")
	}

	c := entry.ToContribution(l.now())
	id, err := tx.Contributions().Append(ctx, &c)
	if err != nil {
		return 0, err
	}

	if err := l.bumpCounters(ctx, tx, c); err != nil {
		return 0, err
	}

	metrics.LedgerEntriesTotal.WithLabelValues(string(c.TargetType), string(c.Action)).Inc()
	l.logger.Debug("Contribution recorded",
		zap.Int64("contribution_id", id),
		zap.String("target_type", string(c.TargetType)),
		zap.Int64("target_id", c.TargetID),
		zap.String("action", string(c.Action)),
		zap.String("user_id", c.UserID))
	return id, nil
}

// RecordAll записывает несколько записей в одной транзакции
func (l *Ledger) RecordAll(ctx context.Context, tx repository.Store, entries []domain.ContributionEntry) error {
	for _, e := range entries {
		if _, err := l.Record(ctx, tx, e); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) bumpCounters(ctx context.Context, tx repository.Store, c domain.Contribution) error {
	settings, err := tx.Settings().Get(ctx)
	if err != nil {
		return err
	}
	if settings == nil || settings.LocalUserID != c.UserID {
		return nil
	}
	return tx.Settings().AddCounters(ctx, counterDelta(c), c.CreatedAt)
}

// counterDelta - какие счётчики увеличивает запись
func counterDelta(c domain.Contribution) repository.CounterDelta {
	d := repository.CounterDelta{Total: 1}
	switch {
	case c.Action == domain.ActionCreate && c.TargetType == domain.TargetPlace:
		d.PlacesAdded = 1
	case c.Action == domain.ActionConfirm:
		d.ConfirmationsMade = 1
	case c.Action == domain.ActionUpdate && c.TargetType == domain.TargetHelper &&
		domain.StringValue(c.FieldChanged) == fieldHelpCount:
		d.HelpProvided = 1
	}
	return d
}

// Counters пересчитывает счётчики пользователя из журнала по тем же правилам, что и counterDelta
func (l *Ledger) Counters(ctx context.Context, contributions repository.ContributionRepository, userID string) (repository.CounterDelta, error) {
	var out repository.CounterDelta

	counts := []struct {
		dst    *int
		filter domain.ContributionFilter
	}{
		{&out.Total, domain.ContributionFilter{UserID: userID}},
		{&out.PlacesAdded, domain.ContributionFilter{UserID: userID, Action: domain.ActionCreate, TargetType: domain.TargetPlace}},
		{&out.ConfirmationsMade, domain.ContributionFilter{UserID: userID, Action: domain.ActionConfirm}},
		{&out.HelpProvided, domain.ContributionFilter{
			UserID: userID, Action: domain.ActionUpdate, TargetType: domain.TargetHelper, Field: fieldHelpCount,
		}},
	}

	for _, c := range counts {
		n, err := contributions.Count(ctx, c.filter)
		if err != nil {
			return repository.CounterDelta{}, err
		}
		*c.dst = int(n)
	}
	return out, nil
}

// createEntry - запись о создании сущности
func createEntry(target domain.Target, name string, actor domain.Actor) domain.ContributionEntry {
	return domain.ContributionEntry{Target: target, TargetName: name, Action: domain.ActionCreate, Actor: actor}
}

// changeEntries - по одной записи "update" на каждое изменённое поле
func changeEntries(target domain.Target, name string, actor domain.Actor, changes []domain.FieldChange) []domain.ContributionEntry {
	entries := make([]domain.ContributionEntry, 0, len(changes))
	for i := range changes {
		entries = append(entries, domain.ContributionEntry{
			Target:     target,
			TargetName: name,
			Action:     domain.ActionUpdate,
			Actor:      actor,
			Change:     &changes[i],
		})
	}
	return entries
}
