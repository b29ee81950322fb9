package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/bookings/arbiter"
	bookingserrors "stayhub/internal/bookings/errors"
	"stayhub/internal/bookings/repository"
	"stayhub/internal/bookings/validator"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/kafka"
	"stayhub/pkg/model"
	"stayhub/pkg/updates"
)

// EventPublisher publishes booking lifecycle events. A nil publisher
// disables events; publishing is best-effort and never fails the request.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	Get(ctx context.Context, bookingID, startDate string) (*model.Booking, error)
	Update(ctx context.Context, bookingID, startDate string, attrs map[string]any) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID, startDate string) (*model.Booking, error)
	ListByProperty(ctx context.Context, propertyID, status string, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	cfg       *config.Config
	repo      repository.BookingRepository
	arbiter   arbiter.ConflictArbiter
	validator *validator.BookingValidator
	events    EventPublisher
}

func NewBookingService(
	cfg *config.Config,
	repo repository.BookingRepository,
	arb arbiter.ConflictArbiter,
	bookingValidator *validator.BookingValidator,
	events EventPublisher,
) BookingService {
	return &bookingService{
		cfg:       cfg,
		repo:      repo,
		arbiter:   arb,
		validator: bookingValidator,
		events:    events,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	if booking == nil {
		return nil, apperrors.InvalidInput("booking payload is required")
	}

	if booking.BookingID == "" {
		booking.BookingID = uuid.NewString()
	}
	// New bookings always enter the system confirmed; cancellation is the
	// only status transition and has its own operation.
	booking.Status = model.StatusConfirmed
	booking.CreatedAt = time.Time{}
	booking.UpdatedAt = time.Time{}

	if err := s.validator.Validate(booking); err != nil {
		return nil, translateValidation(err)
	}

	if err := s.arbiter.CheckAndReserve(ctx, booking); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

// Get resolves a booking by its full key, or by bookingId alone when the
// caller does not know the startDate.
func (s *bookingService) Get(ctx context.Context, bookingID, startDate string) (*model.Booking, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("bookingId is required")
	}

	var (
		booking *model.Booking
		err     error
	)
	if startDate != "" {
		booking, err = s.repo.FindByKey(ctx, model.BookingKey{BookingID: bookingID, StartDate: startDate})
	} else {
		booking, err = s.repo.FindByBookingID(ctx, bookingID)
	}
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		return nil, apperrors.Storage("Failed to load booking", err)
	}
	return booking, nil
}

// Update applies a partial update. Most attributes go through the composed
// $set path against a fixed key. A startDate change moves the record to a
// new key, so it is handled as an arbitrated rewrite: insert under the new
// key, then retire the old record.
func (s *bookingService) Update(ctx context.Context, bookingID, startDate string, attrs map[string]any) (*model.Booking, error) {
	existing, err := s.Get(ctx, bookingID, startDate)
	if err != nil {
		return nil, err
	}

	if len(attrs) == 0 {
		return nil, apperrors.InvalidUpdate("no attributes supplied")
	}
	if _, ok := attrs["status"]; ok {
		return nil, apperrors.InvalidUpdate("status cannot be updated directly; use the cancel operation")
	}
	if _, ok := attrs["bookingId"]; ok {
		return nil, apperrors.InvalidUpdate(`attribute "bookingId" is a key attribute and cannot be modified`)
	}

	newStart, startSupplied, err := stringAttr(attrs, "startDate")
	if err != nil {
		return nil, err
	}
	if startSupplied && newStart == existing.StartDate {
		// Echoing the current startDate is a no-op, not a key change.
		delete(attrs, "startDate")
		startSupplied = false
	}

	if startSupplied {
		return s.rewriteDates(ctx, existing, attrs)
	}

	newEnd, endSupplied, err := stringAttr(attrs, "endDate")
	if err != nil {
		return nil, err
	}
	if endSupplied && newEnd != existing.EndDate && existing.Status == model.StatusConfirmed {
		err := s.arbiter.CheckOnly(ctx, arbiter.Candidate{
			PropertyID:       existing.PropertyID,
			StartDate:        existing.StartDate,
			EndDate:          newEnd,
			ExcludeBookingID: existing.BookingID,
		})
		if err != nil {
			return nil, err
		}
	}

	update, err := model.BookingUpdateSchema.Compose(attrs, time.Now())
	if err != nil {
		return nil, translateCompose(err)
	}

	updated, err := s.repo.ApplyUpdate(ctx, existing.Key(), update)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		return nil, apperrors.Storage("Failed to update booking", err)
	}

	s.publishEvent(ctx, kafka.EventBookingUpdated, updated)
	return updated, nil
}

// rewriteDates handles a startDate change: the key moves, so the record is
// re-arbitrated and rewritten under the new key before the old one is
// retired. The two writes are not atomic; the conditional insert runs
// first so a failure leaves the original record untouched.
func (s *bookingService) rewriteDates(ctx context.Context, existing *model.Booking, attrs map[string]any) (*model.Booking, error) {
	merged := *existing
	for name, value := range attrs {
		switch name {
		case "startDate":
			merged.StartDate = value.(string)
		case "endDate":
			v, ok := value.(string)
			if !ok {
				return nil, apperrors.InvalidUpdate(`attribute "endDate" must be a string`)
			}
			merged.EndDate = v
		case "pricePerNight":
			v, ok := numberValue(value)
			if !ok {
				return nil, apperrors.InvalidUpdate(`attribute "pricePerNight" must be a number`)
			}
			merged.PricePerNight = v
		case "updatedAt", "createdAt":
			// Timestamps are service-owned; silently ignored like the
			// composed path does.
		default:
			return nil, apperrors.InvalidUpdate(fmt.Sprintf("attribute %q is not an updatable attribute", name))
		}
	}

	if err := s.validator.Validate(&merged); err != nil {
		return nil, translateValidation(err)
	}

	if merged.Status == model.StatusConfirmed {
		err := s.arbiter.CheckOnly(ctx, arbiter.Candidate{
			PropertyID:       merged.PropertyID,
			StartDate:        merged.StartDate,
			EndDate:          merged.EndDate,
			ExcludeBookingID: merged.BookingID,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.Insert(ctx, &merged); err != nil {
		if errors.Is(err, bookingserrors.ErrKeyExists) {
			return nil, apperrors.BookingConflict("A booking with this id and start date already exists", merged.BookingID)
		}
		return nil, apperrors.Storage("Failed to rewrite booking under new dates", err)
	}

	if err := s.repo.Delete(ctx, existing.Key()); err != nil && !errors.Is(err, bookingserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to retire booking record after date change",
			"bookingId", existing.BookingID,
			"oldStartDate", existing.StartDate,
			"newStartDate", merged.StartDate,
			"error", err,
		)
		return nil, apperrors.Storage("Failed to retire previous booking record", err)
	}

	s.publishEvent(ctx, kafka.EventBookingUpdated, &merged)
	return &merged, nil
}

// Cancel marks a booking CANCELLED, freeing its interval. Cancelling an
// already cancelled booking is a no-op.
func (s *bookingService) Cancel(ctx context.Context, bookingID, startDate string) (*model.Booking, error) {
	existing, err := s.Get(ctx, bookingID, startDate)
	if err != nil {
		return nil, err
	}
	if existing.Status == model.StatusCancelled {
		return existing, nil
	}

	update, err := model.BookingUpdateSchema.Compose(map[string]any{"status": model.StatusCancelled}, time.Now())
	if err != nil {
		return nil, translateCompose(err)
	}

	cancelled, err := s.repo.ApplyUpdate(ctx, existing.Key(), update)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		return nil, apperrors.Storage("Failed to cancel booking", err)
	}

	s.publishEvent(ctx, kafka.EventBookingCancelled, cancelled)
	return cancelled, nil
}

func (s *bookingService) ListByProperty(ctx context.Context, propertyID, status string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if propertyID == "" {
		return nil, 0, apperrors.InvalidInput("propertyId is required")
	}
	switch status {
	case "", model.StatusConfirmed, model.StatusCancelled:
	default:
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("status must be %s or %s", model.StatusConfirmed, model.StatusCancelled))
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var (
		wg       sync.WaitGroup
		bookings []*model.Booking
		total    int64
		findErr  error
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		bookings, findErr = s.repo.FindByProperty(ctx, propertyID, status, limit, offset)
	}()
	go func() {
		defer wg.Done()
		total, countErr = s.repo.CountByProperty(ctx, propertyID, status)
	}()
	wg.Wait()

	if findErr != nil {
		return nil, 0, apperrors.Storage("Failed to list bookings", findErr)
	}
	if countErr != nil {
		return nil, 0, apperrors.Storage("Failed to count bookings", countErr)
	}

	return bookings, total, nil
}

func (s *bookingService) publishEvent(ctx context.Context, eventType string, booking *model.Booking) {
	if s.events == nil {
		return
	}

	msg, err := kafka.NewEvent(eventType, booking.BookingID, "bookings", booking)
	if err != nil {
		s.cfg.Log.Warn("Failed to encode booking event", "eventType", eventType, "bookingId", booking.BookingID, "error", err)
		return
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), msg); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event", "eventType", eventType, "bookingId", booking.BookingID, "error", err)
	}
}

func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Booking validation failed", verrs.Details())
	}
	return apperrors.InvalidInput(err.Error())
}

func translateCompose(err error) error {
	var invalid *updates.InvalidUpdateError
	if errors.As(err, &invalid) {
		return apperrors.InvalidUpdate(invalid.Error())
	}
	return apperrors.Storage("Failed to compose update", err)
}

func stringAttr(attrs map[string]any, name string) (string, bool, error) {
	value, ok := attrs[name]
	if !ok {
		return "", false, nil
	}
	s, ok := value.(string)
	if !ok {
		return "", false, apperrors.InvalidUpdate(fmt.Sprintf("attribute %q must be a string", name))
	}
	return s, true, nil
}

// numberValue accepts the numeric types a decoded JSON body or a Go caller
// can supply.
func numberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
