package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	apperrors "stayhub/pkg/errors"
	httputil "stayhub/pkg/http"
	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

type stubService struct {
	booking *model.Booking
	list    []*model.Booking
	total   int64
	err     error

	gotBookingID string
	gotStartDate string
	gotAttrs     map[string]any
	gotStatus    string
}

func (s *stubService) Create(_ context.Context, booking *model.Booking) (*model.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	booking.Status = model.StatusConfirmed
	return booking, nil
}

func (s *stubService) Get(_ context.Context, bookingID, startDate string) (*model.Booking, error) {
	s.gotBookingID, s.gotStartDate = bookingID, startDate
	return s.booking, s.err
}

func (s *stubService) Update(_ context.Context, bookingID, startDate string, attrs map[string]any) (*model.Booking, error) {
	s.gotBookingID, s.gotStartDate, s.gotAttrs = bookingID, startDate, attrs
	return s.booking, s.err
}

func (s *stubService) Cancel(_ context.Context, bookingID, startDate string) (*model.Booking, error) {
	s.gotBookingID, s.gotStartDate = bookingID, startDate
	return s.booking, s.err
}

func (s *stubService) ListByProperty(_ context.Context, propertyID, status string, _ int, _ int64) ([]*model.Booking, int64, error) {
	s.gotBookingID, s.gotStatus = propertyID, status
	return s.list, s.total, s.err
}

func newRouter(svc *stubService) *httprouter.Router {
	h := NewBookingHandler(svc, logger.New(logger.Config{Output: io.Discard}))
	router := httprouter.New()
	h.RegisterRoutes(router)
	return router
}

func doRequest(router *httprouter.Router, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateReturns201(t *testing.T) {
	svc := &stubService{}
	rec := doRequest(newRouter(svc), http.MethodPost, "/api/v1/bookings",
		`{"bookingId":"b-1","propertyId":"p-1","userId":"u-1","startDate":"2026-10-01","endDate":"2026-10-05","pricePerNight":100}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp httputil.SuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	rec := doRequest(newRouter(&stubService{}), http.MethodPost, "/api/v1/bookings", `{"bookingId":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateConflictPayload(t *testing.T) {
	svc := &stubService{err: apperrors.BookingConflict("Requested dates conflict with an existing booking", "b-9")}
	rec := doRequest(newRouter(svc), http.MethodPost, "/api/v1/bookings",
		`{"bookingId":"b-1","propertyId":"p-1","userId":"u-1","startDate":"2026-10-01","endDate":"2026-10-05","pricePerNight":100}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var resp httputil.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if resp.Code != apperrors.CodeConflict {
		t.Fatalf("expected code CONFLICT, got %s", resp.Code)
	}
	if resp.Details["bookingId"] != "b-9" {
		t.Fatalf("expected conflicting bookingId in details, got %v", resp.Details)
	}
}

func TestGetByIDPassesKey(t *testing.T) {
	svc := &stubService{booking: &model.Booking{BookingID: "b-1", StartDate: "2026-10-01"}}
	rec := doRequest(newRouter(svc), http.MethodGet, "/api/v1/bookings/id/b-1?startDate=2026-10-01", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotBookingID != "b-1" || svc.gotStartDate != "2026-10-01" {
		t.Fatalf("key not forwarded: id=%q startDate=%q", svc.gotBookingID, svc.gotStartDate)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc := &stubService{err: apperrors.NotFoundWithID("Booking", "ghost")}
	rec := doRequest(newRouter(svc), http.MethodGet, "/api/v1/bookings/id/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateForwardsAttrs(t *testing.T) {
	svc := &stubService{booking: &model.Booking{BookingID: "b-1"}}
	rec := doRequest(newRouter(svc), http.MethodPatch, "/api/v1/bookings/id/b-1", `{"pricePerNight":175}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotAttrs["pricePerNight"] != 175.0 {
		t.Fatalf("attrs not forwarded: %v", svc.gotAttrs)
	}
}

func TestCancelRoute(t *testing.T) {
	svc := &stubService{booking: &model.Booking{BookingID: "b-1", Status: model.StatusCancelled}}
	rec := doRequest(newRouter(svc), http.MethodPost, "/api/v1/bookings/id/b-1/cancel", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotBookingID != "b-1" {
		t.Fatalf("bookingId not forwarded: %q", svc.gotBookingID)
	}
}

func TestSearchReturnsEmptyArrayNotNull(t *testing.T) {
	svc := &stubService{list: nil, total: 0}
	rec := doRequest(newRouter(svc), http.MethodGet, "/api/v1/bookings/search?propertyId=p-1&status=CONFIRMED", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotBookingID != "p-1" || svc.gotStatus != model.StatusConfirmed {
		t.Fatalf("filters not forwarded: %q %q", svc.gotBookingID, svc.gotStatus)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Fatalf("expected empty data array, got %s", rec.Body.String())
	}
}

func TestSearchRejectsBadPagination(t *testing.T) {
	rec := doRequest(newRouter(&stubService{}), http.MethodGet, "/api/v1/bookings/search?propertyId=p-1&limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
