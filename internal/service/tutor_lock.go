package service

import (
	"context"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tutor-allocation-api/pkg/errors"
)

type tutorLocker interface {
	LockTutor(ctx context.Context, exec sqlx.ExtContext, tutorID string) error
}

// inTutorTx runs fn in one transaction that holds the schedule lock of every
// tutor in tutorIDs. Locks are taken in id order. Without a provider fn runs
// against the store directly.
func inTutorTx(ctx context.Context, provider txProvider, locker tutorLocker, tutorIDs []string, fn func(exec sqlx.ExtContext) error) (err error) {
	if provider == nil {
		return fn(nil)
	}

	tx, err := provider.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ids := lo.Uniq(tutorIDs)
	slices.Sort(ids)
	for _, id := range ids {
		if err = locker.LockTutor(ctx, tx, id); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock tutor schedule")
			return err
		}
	}

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
		return err
	}
	return nil
}

// parseSlotDate parses a class date and rejects slots that run past midnight.
func parseSlotDate(raw, startTime string, durationMinutes int) (date time.Time, err error) {
	date, err = time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	if !models.EndsSameDay(startTime, durationMinutes) {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "class must end by midnight")
	}
	return date, nil
}
