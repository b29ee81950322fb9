// Package arbiter decides whether a booking may occupy a property interval.
//
// Arbitration is best-effort serialized with an advisory per-property lock,
// but the lock is an optimization, not the source of truth: the conditional
// insert on the booking key is the final arbiter. Two writers racing on
// distinct keys over the same interval can, in a narrow window, both pass
// the overlap check; the lock shrinks that window and a re-check on
// contention shrinks it further.
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "stayhub/internal/bookings/errors"
	"stayhub/internal/bookings/repository"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/model"
)

// Candidate describes an interval a booking wants to occupy. When the
// candidate comes from an update of an existing booking, ExcludeBookingID
// names that booking so it does not conflict with itself.
type Candidate struct {
	PropertyID       string
	StartDate        string
	EndDate          string
	ExcludeBookingID string
}

type ConflictArbiter interface {
	// CheckAndReserve runs the full arbitration: overlap check, then the
	// conditional insert of the booking record.
	CheckAndReserve(ctx context.Context, booking *model.Booking) error
	// CheckOnly runs the overlap check without writing. Callers that go on
	// to write must treat the follow-up conditional write as authoritative.
	CheckOnly(ctx context.Context, candidate Candidate) error
}

type conflictArbiter struct {
	cfg   *config.Config
	repo  repository.BookingRepository
	locks repository.ReservationLockRepository
}

func New(cfg *config.Config, repo repository.BookingRepository, locks repository.ReservationLockRepository) ConflictArbiter {
	return &conflictArbiter{cfg: cfg, repo: repo, locks: locks}
}

func propertyLockID(propertyID string) string {
	return "property:" + propertyID
}

func (a *conflictArbiter) CheckAndReserve(ctx context.Context, booking *model.Booking) error {
	candidate := Candidate{
		PropertyID:       booking.PropertyID,
		StartDate:        booking.StartDate,
		EndDate:          booking.EndDate,
		ExcludeBookingID: booking.BookingID,
	}
	if err := validateWindow(candidate); err != nil {
		return err
	}

	lockID := propertyLockID(booking.PropertyID)
	locked := true
	if err := a.locks.Acquire(ctx, lockID, a.cfg.ReservationLockTTL); err != nil {
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			return apperrors.Storage("Failed to acquire reservation lock", err)
		}
		locked = false
	}
	if locked {
		defer func() {
			if err := a.locks.Release(context.WithoutCancel(ctx), lockID); err != nil {
				a.cfg.Log.Warn("Failed to release reservation lock", "lockId", lockID, "error", err)
			}
		}()
	}

	if err := a.checkOverlap(ctx, candidate); err != nil {
		return err
	}

	if !locked {
		// Another request is arbitrating this property. Wait it out and
		// check again before committing.
		select {
		case <-ctx.Done():
			return contextError(ctx.Err())
		case <-time.After(a.cfg.StoreRetryBaseDelay):
		}
		if err := a.checkOverlap(ctx, candidate); err != nil {
			return err
		}
	}

	// A bookingId identifies one reservation. Resubmitting it with shifted
	// dates would land under a different composite key, so the _id guard
	// alone is not enough; any record holding the id blocks the write.
	if _, err := a.repo.FindByBookingID(ctx, booking.BookingID); err == nil {
		return apperrors.BookingConflict(
			"A booking with this id already exists",
			booking.BookingID,
		)
	} else if !errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.Storage("Failed to check booking id", err)
	}

	if err := a.repo.Insert(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrKeyExists) {
			return apperrors.BookingConflict(
				"A booking with this id and start date already exists",
				booking.BookingID,
			)
		}
		return apperrors.Storage("Failed to persist booking", err)
	}
	return nil
}

func (a *conflictArbiter) CheckOnly(ctx context.Context, candidate Candidate) error {
	if err := validateWindow(candidate); err != nil {
		return err
	}
	return a.checkOverlap(ctx, candidate)
}

func (a *conflictArbiter) checkOverlap(ctx context.Context, c Candidate) error {
	existing, err := a.repo.FindConfirmedOverlapping(ctx, c.PropertyID, c.StartDate, c.EndDate)
	if err != nil {
		return apperrors.Storage("Failed to query existing bookings", err)
	}

	for _, b := range existing {
		if c.ExcludeBookingID != "" && b.BookingID == c.ExcludeBookingID {
			continue
		}
		// Re-check in process rather than trusting the store filter.
		if intervalsOverlap(c.StartDate, c.EndDate, b.StartDate, b.EndDate) {
			return apperrors.BookingConflict(
				fmt.Sprintf("Requested dates conflict with an existing booking from %s to %s", b.StartDate, b.EndDate),
				b.BookingID,
			)
		}
	}
	return nil
}

// intervalsOverlap reports whether the half-open intervals [s1, e1) and
// [s2, e2) intersect. Wire dates order lexicographically, so string
// comparison is date comparison.
func intervalsOverlap(s1, e1, s2, e2 string) bool {
	return s1 < e2 && s2 < e1
}

func validateWindow(c Candidate) error {
	start, err := model.ParseDate(c.StartDate)
	if err != nil {
		return apperrors.Validation("startDate must be a calendar date in YYYY-MM-DD format", map[string]any{
			"startDate": c.StartDate,
		})
	}
	end, err := model.ParseDate(c.EndDate)
	if err != nil {
		return apperrors.Validation("endDate must be a calendar date in YYYY-MM-DD format", map[string]any{
			"endDate": c.EndDate,
		})
	}
	if !end.After(start) {
		return apperrors.Validation("endDate must be after startDate", map[string]any{
			"startDate": c.StartDate,
			"endDate":   c.EndDate,
		})
	}
	return nil
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("Booking arbitration timed out")
	}
	return apperrors.Storage("Booking arbitration interrupted", err)
}
