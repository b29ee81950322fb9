package service

import (
	"context"
	"io"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"stayhub/internal/bookings/arbiter"
	bookingserrors "stayhub/internal/bookings/errors"
	"stayhub/internal/bookings/validator"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/kafka"
	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

type appliedUpdate struct {
	key    model.BookingKey
	update bson.M
}

type stubRepo struct {
	byKey map[model.BookingKey]*model.Booking

	insertErr error
	deleteErr error

	inserted []*model.Booking
	deleted  []model.BookingKey
	applied  []appliedUpdate
}

func newStubRepo(bookings ...*model.Booking) *stubRepo {
	r := &stubRepo{byKey: make(map[model.BookingKey]*model.Booking)}
	for _, b := range bookings {
		r.byKey[b.Key()] = b
	}
	return r
}

func (r *stubRepo) Insert(_ context.Context, booking *model.Booking) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, exists := r.byKey[booking.Key()]; exists {
		return bookingserrors.ErrKeyExists
	}
	r.byKey[booking.Key()] = booking
	r.inserted = append(r.inserted, booking)
	return nil
}

func (r *stubRepo) FindByKey(_ context.Context, key model.BookingKey) (*model.Booking, error) {
	if b, ok := r.byKey[key]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, bookingserrors.ErrNotFound
}

func (r *stubRepo) FindByBookingID(_ context.Context, bookingID string) (*model.Booking, error) {
	for _, b := range r.byKey {
		if b.BookingID == bookingID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (r *stubRepo) FindConfirmedOverlapping(context.Context, string, string, string) ([]*model.Booking, error) {
	return nil, nil
}

func (r *stubRepo) FindByProperty(_ context.Context, propertyID, status string, _ int, _ int64) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range r.byKey {
		if b.PropertyID == propertyID && (status == "" || b.Status == status) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *stubRepo) CountByProperty(_ context.Context, propertyID, status string) (int64, error) {
	bookings, _ := r.FindByProperty(context.Background(), propertyID, status, 0, 0)
	return int64(len(bookings)), nil
}

func (r *stubRepo) ApplyUpdate(_ context.Context, key model.BookingKey, update bson.M) (*model.Booking, error) {
	existing, ok := r.byKey[key]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	r.applied = append(r.applied, appliedUpdate{key: key, update: update})

	updated := *existing
	if set, ok := update["$set"].(bson.M); ok {
		if v, ok := set["status"].(string); ok {
			updated.Status = v
		}
		if v, ok := set["endDate"].(string); ok {
			updated.EndDate = v
		}
		if v, ok := set["pricePerNight"].(float64); ok {
			updated.PricePerNight = v
		}
	}
	r.byKey[key] = &updated
	return &updated, nil
}

func (r *stubRepo) Delete(_ context.Context, key model.BookingKey) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.byKey[key]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(r.byKey, key)
	r.deleted = append(r.deleted, key)
	return nil
}

type stubArbiter struct {
	repo       *stubRepo
	reserveErr error
	checkErr   error

	reserved []*model.Booking
	checked  []arbiter.Candidate
}

func (a *stubArbiter) CheckAndReserve(ctx context.Context, booking *model.Booking) error {
	if a.reserveErr != nil {
		return a.reserveErr
	}
	a.reserved = append(a.reserved, booking)
	return a.repo.Insert(ctx, booking)
}

func (a *stubArbiter) CheckOnly(_ context.Context, candidate arbiter.Candidate) error {
	a.checked = append(a.checked, candidate)
	return a.checkErr
}

type recordingPublisher struct {
	events []kafka.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg kafka.Message) error {
	p.events = append(p.events, msg)
	return nil
}

func eventTypes(events []kafka.Message) []string {
	var types []string
	for _, e := range events {
		types = append(types, e.Headers[kafka.HeaderEventType])
	}
	return types
}

type fixture struct {
	svc    BookingService
	repo   *stubRepo
	arb    *stubArbiter
	events *recordingPublisher
}

func newFixture(bookings ...*model.Booking) *fixture {
	repo := newStubRepo(bookings...)
	arb := &stubArbiter{repo: repo}
	events := &recordingPublisher{}
	cfg := &config.Config{Log: logger.New(logger.Config{Output: io.Discard})}
	v := validator.NewBookingValidator(cfg.Log)

	return &fixture{
		svc:    NewBookingService(cfg, repo, arb, v, events),
		repo:   repo,
		arb:    arb,
		events: events,
	}
}

func confirmedBooking(id, propertyID, start, end string) *model.Booking {
	return &model.Booking{
		BookingID:     id,
		PropertyID:    propertyID,
		UserID:        "u-1",
		StartDate:     start,
		EndDate:       end,
		PricePerNight: 150,
		Status:        model.StatusConfirmed,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := apperrors.AsAppError(err).Code; got != code {
		t.Fatalf("expected code %s, got %s (%v)", code, got, err)
	}
}

func TestCreateConfirmsAndPublishes(t *testing.T) {
	f := newFixture()

	booking := confirmedBooking("b-1", "p-1", "2026-10-01", "2026-10-05")
	booking.Status = ""

	created, err := f.svc.Create(context.Background(), booking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Status != model.StatusConfirmed {
		t.Fatalf("expected status CONFIRMED, got %q", created.Status)
	}
	if len(f.arb.reserved) != 1 {
		t.Fatalf("expected arbitration, got %d calls", len(f.arb.reserved))
	}
	if got := eventTypes(f.events.events); len(got) != 1 || got[0] != kafka.EventBookingCreated {
		t.Fatalf("expected booking.created event, got %v", got)
	}
}

func TestCreateGeneratesBookingID(t *testing.T) {
	f := newFixture()

	booking := confirmedBooking("", "p-1", "2026-10-01", "2026-10-05")
	created, err := f.svc.Create(context.Background(), booking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.BookingID == "" {
		t.Fatal("expected a generated bookingId")
	}
}

func TestCreateValidationFailureSkipsArbitration(t *testing.T) {
	f := newFixture()

	booking := confirmedBooking("b-1", "p-1", "2026-10-05", "2026-10-01")
	_, err := f.svc.Create(context.Background(), booking)
	assertCode(t, err, apperrors.CodeValidation)
	if len(f.arb.reserved) != 0 {
		t.Fatal("invalid booking must not reach the arbiter")
	}
	if len(f.events.events) != 0 {
		t.Fatal("no event on rejection")
	}
}

func TestCreatePropagatesConflict(t *testing.T) {
	f := newFixture()
	f.arb.reserveErr = apperrors.BookingConflict("dates taken", "b-0")

	_, err := f.svc.Create(context.Background(), confirmedBooking("b-1", "p-1", "2026-10-01", "2026-10-05"))
	assertCode(t, err, apperrors.CodeConflict)
	if len(f.events.events) != 0 {
		t.Fatal("no event on conflict")
	}
}

func TestGetByKeyAndByPartition(t *testing.T) {
	existing := confirmedBooking("b-1", "p-1", "2026-10-01", "2026-10-05")
	f := newFixture(existing)

	byKey, err := f.svc.Get(context.Background(), "b-1", "2026-10-01")
	if err != nil || byKey.BookingID != "b-1" {
		t.Fatalf("lookup by key failed: %v", err)
	}

	byID, err := f.svc.Get(context.Background(), "b-1", "")
	if err != nil || byID.StartDate != "2026-10-01" {
		t.Fatalf("lookup by bookingId failed: %v", err)
	}

	_, err = f.svc.Get(context.Background(), "missing", "")
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.Get(context.Background(), "", "")
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestUpdateRejectsUnsafeMappings(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]any
	}{
		{"empty", map[string]any{}},
		{"status", map[string]any{"status": "CANCELLED"}},
		{"partition key", map[string]any{"bookingId": "b-2"}},
		{"unknown attribute", map[string]any{"discount": 10}},
		{"wrong startDate type", map[string]any{"startDate": 42}},
		{"wrong endDate type", map[string]any{"endDate": 42, "startDate": "2026-11-01"}},
		{"only echoed startDate", map[string]any{"startDate": "2026-10-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(confirmedBooking("b-1", "p-1", "2026-10-01", "2026-10-05"))

			_, err := f.svc.Update(context.Background(), "b-1", "2026-10-01", tt.attrs)
			assertCode(t, err, apperrors.CodeInvalidUpdate)
			if len(f.repo.applied) != 0 || len(f.repo.inserted) != 0 {
				t.Fatal("rejected update must not touch the store")
			}
		})
	}
}

func TestUpdateComposedPath(t *testing.T) {
	f := newFixture(confirmedBooking("b-1", "p-1", "2026-10-01", "2026-10-05"))

	updated, err := f.svc.Update(context.Background(), "b-1", "2026-10-01", map[string]any{
		"pricePerNight": 175.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.PricePerNight != 175 {
		t.Fatalf("expected price 175, got %v", updated.PricePerNight)
	}

	if len(f.repo.applied) != 1 {
		t.Fatalf("expected one composed update, got %d", len(f.repo.applied))
	}
	set := f.repo.applied[0].update["$set"].(bson.M)
	if _, ok := set["bookingId"]; ok {
		t.Fatal("composed update must not touch key attributes")
	}
	if _, ok := set["updatedAt"]; !ok {
		t.Fatal("composed update must stamp updatedAt")
	}
	if got := eventTypes(f.events.events); len(got) != 1 || got[0] != kafka.EventBookingUpdated {
		t.Fatalf("expected booking.updated event, got %v", got)
	}
}

func TestUpdateEndDateReArbitrates(t *testing.T) {
	f := newFixture(confirmedBooking("b-1", "p-1", "2026-10-01", "2026-10-05"))

	_, err := f.svc.Update(context.Background(), "b-1", "2026-10-01", map[string]any{
		"endDate": "2026-10-08",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.arb.checked) != 1 {
		t.Fatalf("expected one overlap check, got %d", len(f.arb.checked))
	}
	c := f.arb.checked[0]
	if c.EndDate != "2026-10-08" || c.ExcludeBookingID != "b-1" {
		t.Fatalf("unexpected candidate: %+v", c)
	}
}

func TestUpdateEndDateConflictLeavesRecord(t *testing.T) {
	f := newFixture(confirmedBooking("b-1", "p-1", "2026-10-01", "2026-10-05"))
	f.arb.checkErr = apperrors.BookingConflict("dates taken", "b-9")

	_, err := f.svc.Update(context.Background(), "b-1", "2026-10-01", map[string]any{
		"endDate": "2026-10-12",
	})
	assertCode(t, err, apperrors.CodeConflict)
	if len(f.repo.applied) != 0 {
		t.Fatal("conflicting update must not be applied")
	}
}

func TestUpdateStartDateRewritesKey(t *testing.T) {
	f := newFixture(confirmedBooking("b-1", "p-1", "2026-10-01", "2026-10-05"))

	updated, err := f.svc.Update(context.Background(), "b-1", "2026-10-01", map[string]any{
		"startDate": "2026-11-01",
		"endDate":   "2026-11-05",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.StartDate != "2026-11-01" || updated.EndDate != "2026-11-05" {
		t.Fatalf("unexpected dates: %s to %s", updated.StartDate, updated.EndDate)
	}

	if len(f.arb.checked) != 1 {
		t.Fatalf("expected arbitration of new window, got %d checks", len(f.arb.checked))
	}
	if len(f.repo.inserted) != 1 {
		t.Fatalf("expected insert under new key, got %d", len(f.repo.inserted))
	}
	if len(f.repo.deleted) != 1 || f.repo.deleted[0].StartDate != "2026-10-01" {
		t.Fatalf("expected old record retired, got %v", f.repo.deleted)
	}

	if _, err := f.svc.Get(context.Background(), "b-1", "2026-10-01"); err == nil {
		t.Fatal("old key should be gone")
	}
	if _, err := f.svc.Get(context.Background(), "b-1", "2026-11-01"); err != nil {
		t.Fatalf("new key should resolve: %v", err)
	}
}

func TestUpdateStartDateInsertConflictKeepsOriginal(t *testing.T) {
	f := newFixture(confirmedBooking("b-1", "p-1", "2026-10-01", "2026-10-05"))
	f.repo.insertErr = bookingserrors.ErrKeyExists

	_, err := f.svc.Update(context.Background(), "b-1", "2026-10-01", map[string]any{
		"startDate": "2026-11-01",
		"endDate":   "2026-11-05",
	})
	assertCode(t, err, apperrors.CodeConflict)

	if len(f.repo.deleted) != 0 {
		t.Fatal("original record must survive a failed rewrite")
	}
	if _, err := f.svc.Get(context.Background(), "b-1", "2026-10-01"); err != nil {
		t.Fatalf("original record should still resolve: %v", err)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(confirmedBooking("b-1", "p-1", "2026-10-01", "2026-10-05"))

	first, err := f.svc.Cancel(context.Background(), "b-1", "2026-10-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Status != model.StatusCancelled {
		t.Fatalf("expected CANCELLED, got %q", first.Status)
	}

	second, err := f.svc.Cancel(context.Background(), "b-1", "2026-10-01")
	if err != nil {
		t.Fatalf("second cancel must succeed: %v", err)
	}
	if second.Status != model.StatusCancelled {
		t.Fatalf("expected CANCELLED, got %q", second.Status)
	}

	if len(f.repo.applied) != 1 {
		t.Fatalf("expected a single status write, got %d", len(f.repo.applied))
	}
	if got := eventTypes(f.events.events); len(got) != 1 || got[0] != kafka.EventBookingCancelled {
		t.Fatalf("expected one booking.cancelled event, got %v", got)
	}
}

func TestCancelMissingBooking(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Cancel(context.Background(), "ghost", "")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestListByProperty(t *testing.T) {
	f := newFixture(
		confirmedBooking("b-1", "p-1", "2026-10-01", "2026-10-05"),
		confirmedBooking("b-2", "p-1", "2026-10-10", "2026-10-12"),
		confirmedBooking("b-3", "p-2", "2026-10-01", "2026-10-05"),
	)

	bookings, total, err := f.svc.ListByProperty(context.Background(), "p-1", "", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bookings) != 2 || total != 2 {
		t.Fatalf("expected 2 bookings for p-1, got %d (total %d)", len(bookings), total)
	}

	_, _, err = f.svc.ListByProperty(context.Background(), "", "", 20, 0)
	assertCode(t, err, apperrors.CodeInvalidInput)

	_, _, err = f.svc.ListByProperty(context.Background(), "p-1", "PENDING", 20, 0)
	assertCode(t, err, apperrors.CodeInvalidInput)
}
