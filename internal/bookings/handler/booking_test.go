package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "facilitybook/pkg/errors"
	"facilitybook/pkg/logger"
	"facilitybook/pkg/middleware"
	"facilitybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	createFunc        func(ctx context.Context, actor *model.Actor, req *model.BookingRequest) (*model.Booking, error)
	editFunc          func(ctx context.Context, actor *model.Actor, id string, req *model.BookingRequest) (*model.Booking, error)
	cancelFunc        func(ctx context.Context, actor *model.Actor, id, reason string) (*model.Booking, error)
	approveFunc       func(ctx context.Context, actor *model.Actor, id string) (*model.Booking, error)
	rejectFunc        func(ctx context.Context, actor *model.Actor, id, reason string) (*model.Booking, error)
	listApprovalsFunc func(ctx context.Context, actor *model.Actor, limit int, offset int64) ([]*model.Booking, int64, error)
	calendarFunc      func(ctx context.Context, view model.CalendarView, reference time.Time) (*model.Calendar, error)
}

func (m *mockBookingService) Create(ctx context.Context, actor *model.Actor, req *model.BookingRequest) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, actor, req)
	}
	return &model.Booking{ID: "b1"}, nil
}

func (m *mockBookingService) GetByID(_ context.Context, _ *model.Actor, id string) (*model.Booking, error) {
	if id == "missing" {
		return nil, apperrors.NotFoundWithID("Booking", id)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) Edit(ctx context.Context, actor *model.Actor, id string, req *model.BookingRequest) (*model.Booking, error) {
	if m.editFunc != nil {
		return m.editFunc(ctx, actor, id, req)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, actor *model.Actor, id, reason string) (*model.Booking, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, actor, id, reason)
	}
	return &model.Booking{ID: id, Status: model.StatusCanceled}, nil
}

func (m *mockBookingService) Approve(ctx context.Context, actor *model.Actor, id string) (*model.Booking, error) {
	if m.approveFunc != nil {
		return m.approveFunc(ctx, actor, id)
	}
	return &model.Booking{ID: id, Status: model.StatusApproved}, nil
}

func (m *mockBookingService) Reject(ctx context.Context, actor *model.Actor, id, reason string) (*model.Booking, error) {
	if m.rejectFunc != nil {
		return m.rejectFunc(ctx, actor, id, reason)
	}
	return &model.Booking{ID: id, Status: model.StatusRejected}, nil
}

func (m *mockBookingService) ListApprovals(ctx context.Context, actor *model.Actor, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.listApprovalsFunc != nil {
		return m.listApprovalsFunc(ctx, actor, limit, offset)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) GetCalendar(ctx context.Context, view model.CalendarView, reference time.Time) (*model.Calendar, error) {
	if m.calendarFunc != nil {
		return m.calendarFunc(ctx, view, reference)
	}
	return &model.Calendar{View: view}, nil
}

func (m *mockBookingService) ListFacilities(context.Context) ([]*model.Facility, error) {
	return []*model.Facility{{ID: "f1", Name: "Room", Active: true}}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
}

func newRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, time.UTC, testLogger()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithActor(req.Context(), &model.Actor{ID: "u1", Authenticated: true}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp.Code
}

func TestCreate(t *testing.T) {
	var received *model.BookingRequest
	var actor *model.Actor
	router := newRouter(&mockBookingService{
		createFunc: func(_ context.Context, a *model.Actor, req *model.BookingRequest) (*model.Booking, error) {
			received, actor = req, a
			return &model.Booking{ID: "b1", Status: model.StatusPending}, nil
		},
	})

	rec := serve(router, http.MethodPost, "/api/v1/bookings",
		`{"facility_id":"f1","date":"2026-10-15","start_time":"09:05","end_time":"09:50","title":"Standup"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if received == nil || received.StartTime != "09:05" || received.Title != "Standup" {
		t.Errorf("request not passed through: %+v", received)
	}
	if actor == nil || actor.ID != "u1" {
		t.Errorf("actor not taken from context: %+v", actor)
	}
}

func TestCreate_InvalidBody(t *testing.T) {
	rec := serve(newRouter(&mockBookingService{}), http.MethodPost, "/api/v1/bookings", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if code := decodeError(t, rec); code != apperrors.CodeInvalidInput {
		t.Errorf("code = %s", code)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"conflict", apperrors.SchedulingConflict("overlap"), http.StatusConflict, apperrors.CodeSchedulingConflict},
		{"already decided", apperrors.AlreadyDecided("APPROVED"), http.StatusConflict, apperrors.CodeAlreadyDecided},
		{"forbidden", apperrors.Forbidden("no"), http.StatusForbidden, apperrors.CodeForbidden},
		{"invalid interval", apperrors.InvalidInterval("10:00", "10:00"), http.StatusUnprocessableEntity, apperrors.CodeInvalidInterval},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockBookingService{
				approveFunc: func(context.Context, *model.Actor, string) (*model.Booking, error) {
					return nil, tt.err
				},
			})

			rec := serve(router, http.MethodPost, "/api/v1/approvals/b1/approve", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if code := decodeError(t, rec); code != tt.wantCode {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
		})
	}
}

func TestCancel_OptionalBody(t *testing.T) {
	var reasons []string
	router := newRouter(&mockBookingService{
		cancelFunc: func(_ context.Context, _ *model.Actor, id, reason string) (*model.Booking, error) {
			reasons = append(reasons, reason)
			return &model.Booking{ID: id, Status: model.StatusCanceled}, nil
		},
	})

	for _, body := range []string{"", `{"reason":"Room closed"}`} {
		rec := serve(router, http.MethodPost, "/api/v1/bookings/id/b1/cancel", body)
		if rec.Code != http.StatusOK {
			t.Errorf("body %q: status = %d, want 200", body, rec.Code)
		}
	}
	if len(reasons) != 2 || reasons[0] != "" || reasons[1] != "Room closed" {
		t.Errorf("reasons = %q", reasons)
	}
}

func TestReject_PassesReason(t *testing.T) {
	var gotID, gotReason string
	router := newRouter(&mockBookingService{
		rejectFunc: func(_ context.Context, _ *model.Actor, id, reason string) (*model.Booking, error) {
			gotID, gotReason = id, reason
			return &model.Booking{ID: id, Status: model.StatusRejected}, nil
		},
	})

	rec := serve(router, http.MethodPost, "/api/v1/approvals/b7/reject", `{"reason":"Double booked"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotID != "b7" || gotReason != "Double booked" {
		t.Errorf("got id=%q reason=%q", gotID, gotReason)
	}
}

func TestEdit(t *testing.T) {
	var gotID string
	router := newRouter(&mockBookingService{
		editFunc: func(_ context.Context, _ *model.Actor, id string, _ *model.BookingRequest) (*model.Booking, error) {
			gotID = id
			return &model.Booking{ID: id}, nil
		},
	})

	rec := serve(router, http.MethodPatch, "/api/v1/bookings/id/b3",
		`{"facility_id":"f1","date":"2026-10-15","start_time":"10:00","end_time":"11:00"}`)
	if rec.Code != http.StatusOK || gotID != "b3" {
		t.Errorf("status = %d, id = %q", rec.Code, gotID)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	rec := serve(newRouter(&mockBookingService{}), http.MethodGet, "/api/v1/bookings/id/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListApprovals_Pagination(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	router := newRouter(&mockBookingService{
		listApprovalsFunc: func(_ context.Context, _ *model.Actor, limit int, offset int64) ([]*model.Booking, int64, error) {
			gotLimit, gotOffset = limit, offset
			return []*model.Booking{{ID: "b1"}}, 12, nil
		},
	})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
		wantOffset int64
	}{
		{"defaults", "", http.StatusOK, 10, 0},
		{"explicit", "?limit=5&offset=5", http.StatusOK, 5, 5},
		{"negative offset is clamped", "?offset=-3", http.StatusOK, 10, 0},
		{"invalid limit", "?limit=abc", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLimit, gotOffset = 0, 0
			rec := serve(router, http.MethodGet, "/api/v1/approvals"+tt.query, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Errorf("limit=%d offset=%d, want %d %d", gotLimit, gotOffset, tt.wantLimit, tt.wantOffset)
			}
			if tt.wantStatus == http.StatusOK {
				var resp struct {
					TotalCount int64 `json:"total_count"`
				}
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.TotalCount != 12 {
					t.Errorf("total_count = %d, err = %v", resp.TotalCount, err)
				}
			}
		})
	}
}

func TestCalendar_Query(t *testing.T) {
	var gotView model.CalendarView
	var gotRef time.Time
	router := newRouter(&mockBookingService{
		calendarFunc: func(_ context.Context, view model.CalendarView, reference time.Time) (*model.Calendar, error) {
			gotView, gotRef = view, reference
			return &model.Calendar{View: model.ViewWeek}, nil
		},
	})

	rec := serve(router, http.MethodGet, "/api/v1/calendar?view=week&date=2026-10-15", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotView != model.ViewWeek || gotRef.Format("2006-01-02") != "2026-10-15" {
		t.Errorf("view=%q ref=%s", gotView, gotRef)
	}

	serve(router, http.MethodGet, "/api/v1/calendar", "")
	if !gotRef.IsZero() || gotView != "" {
		t.Errorf("missing parameters should reach the service as zero values, got %q %s", gotView, gotRef)
	}

	rec = serve(router, http.MethodGet, "/api/v1/calendar?date=15-10-2026", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestFacilities(t *testing.T) {
	rec := serve(newRouter(&mockBookingService{}), http.MethodGet, "/api/v1/facilities", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"name":"Room"`) {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestReady(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("no primary") }

	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
	}{
		{"all ok", map[string]Check{"mongo": healthy, "redis": healthy}, http.StatusOK},
		{"one failing", map[string]Check{"mongo": broken, "redis": healthy}, http.StatusServiceUnavailable},
		{"no checks", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(tt.checks, testLogger()).RegisterRoutes(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
