package service

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	bookingserrors "facilitybook/internal/bookings/errors"
	"facilitybook/internal/bookings/lock"
	"facilitybook/internal/bookings/validator"
	"facilitybook/pkg/config"
	mongotx "facilitybook/pkg/db/mongo"
	"facilitybook/pkg/logger"
	"facilitybook/pkg/model"
	"facilitybook/pkg/slot"
)

type fakeBookingRepo struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*model.Booking
	// readDelay widens race windows in concurrency tests.
	readDelay time.Duration
	// afterRead runs once a FindByID has returned its copy, simulating a
	// write committed by another request in between.
	afterRead func(id string)
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*model.Booking)}
}

func clone(b *model.Booking) *model.Booking {
	c := *b
	return &c
}

func (r *fakeBookingRepo) put(b *model.Booking) *model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		r.seq++
		b.ID = fmt.Sprintf("b%d", r.seq)
	}
	r.bookings[b.ID] = clone(b)
	return b
}

func (r *fakeBookingRepo) get(id string) *model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.bookings[id])
}

func (r *fakeBookingRepo) Create(_ context.Context, b *model.Booking) error {
	r.put(b)
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	if r.readDelay > 0 {
		time.Sleep(r.readDelay)
	}
	r.mu.Lock()
	b, ok := r.bookings[id]
	if !ok {
		r.mu.Unlock()
		return nil, bookingserrors.ErrNotFound
	}
	read := clone(b)
	r.mu.Unlock()

	if r.afterRead != nil {
		r.afterRead(id)
	}
	return read, nil
}

func (r *fakeBookingRepo) UpdateIfStatus(_ context.Context, b *model.Booking, expected ...model.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID]
	if !ok || !stored.Status.In(expected...) {
		return bookingserrors.ErrStatusChanged
	}
	r.bookings[b.ID] = clone(b)
	return nil
}

func (r *fakeBookingRepo) MarkCanceled(_ context.Context, id, canceledBy, reason string, at time.Time) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[id]
	if !ok || !stored.Status.In(model.CancelableStatuses...) {
		return nil, bookingserrors.ErrStatusChanged
	}
	stored.Status = model.StatusCanceled
	stored.CanceledBy = &canceledBy
	stored.CanceledAt = &at
	stored.CancelReason = reason
	stored.UpdatedAt = at
	return clone(stored), nil
}

func (r *fakeBookingRepo) FindApprovedOverlapping(_ context.Context, facilityID, date string, start, end slot.TimeOfDay, excludeID string) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.FacilityID == facilityID && b.Date == date && b.Status == model.StatusApproved &&
			b.ID != excludeID && b.StartSlot < end && b.EndSlot > start {
			out = append(out, clone(b))
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindInRange(_ context.Context, from, to string, statuses []model.BookingStatus) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.Date >= from && b.Date <= to && slices.Contains(statuses, b.Status) {
			out = append(out, clone(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartSlot < out[j].StartSlot
	})
	return out, nil
}

func (r *fakeBookingRepo) pending(facilityIDs []string) []*model.Booking {
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.Status == model.StatusPending && (facilityIDs == nil || slices.Contains(facilityIDs, b.FacilityID)) {
			out = append(out, clone(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeBookingRepo) FindPending(_ context.Context, facilityIDs []string, limit int, offset int64) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.pending(facilityIDs)
	if int(offset) >= len(all) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeBookingRepo) CountPending(_ context.Context, facilityIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.pending(facilityIDs))), nil
}

func (r *fakeBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type fakeFacilityRepo struct {
	facilities map[string]*model.Facility
}

func newFakeFacilityRepo(facilities ...*model.Facility) *fakeFacilityRepo {
	r := &fakeFacilityRepo{facilities: make(map[string]*model.Facility)}
	for _, f := range facilities {
		r.facilities[f.ID] = f
	}
	return r
}

func (r *fakeFacilityRepo) FindByID(_ context.Context, id string) (*model.Facility, error) {
	f, ok := r.facilities[id]
	if !ok {
		return nil, bookingserrors.ErrFacilityNotFound
	}
	return f, nil
}

func (r *fakeFacilityRepo) active(match func(*model.Facility) bool) []*model.Facility {
	var out []*model.Facility
	for _, f := range r.facilities {
		if f.Active && match(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *fakeFacilityRepo) FindActive(context.Context) ([]*model.Facility, error) {
	return r.active(func(*model.Facility) bool { return true }), nil
}

func (r *fakeFacilityRepo) FindActiveByApprover(_ context.Context, approverID string) ([]*model.Facility, error) {
	return r.active(func(f *model.Facility) bool {
		return f.ApproverID != nil && *f.ApproverID == approverID
	}), nil
}

type sentNotification struct {
	RecipientID string
	Title       string
	Body        string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, recipientID, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{recipientID, title, body})
}

func (n *recordingNotifier) to(recipientID string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.RecipientID == recipientID {
			out = append(out, s)
		}
	}
	return out
}

const (
	testDate   = "2026-10-15"
	facilityF  = "facility-f"
	facilityG  = "facility-g"
	approverID = "approver"
	ownerID    = "owner"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

type fixture struct {
	svc        *bookingService
	repo       *fakeBookingRepo
	facilities *fakeFacilityRepo
	notifier   *recordingNotifier
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
	cfg := &config.Config{
		Log:             log,
		Location:        time.UTC,
		LockTTL:         10 * time.Second,
		LockWaitTimeout: 5 * time.Second,
	}

	repo := newFakeBookingRepo()
	facilities := newFakeFacilityRepo(
		&model.Facility{ID: facilityF, Name: "Conference Room F", Active: true, ApproverID: strPtr(approverID), ManagementMinRankLevel: intPtr(50)},
		&model.Facility{ID: facilityG, Name: "Gym", Active: true, ApproverID: strPtr("gym-approver")},
		&model.Facility{ID: "closed", Name: "Closed Hall", Active: false, ApproverID: strPtr(approverID)},
		&model.Facility{ID: "orphan", Name: "Orphan Room", Active: true},
		&model.Facility{ID: "execs", Name: "Board Room", Active: true, MinRankLevel: intPtr(70)},
	)
	notifier := &recordingNotifier{}

	f := &fixture{
		repo:       repo,
		facilities: facilities,
		notifier:   notifier,
		now:        time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC),
	}
	svc := NewBookingService(repo, facilities, lock.NewMemoryLocker(), notifier, validator.NewBookingValidator(log), cfg).(*bookingService)
	svc.now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

func user(id string, level int) *model.Actor {
	return &model.Actor{ID: id, DisplayName: id, Authenticated: true, RankLevel: level}
}

func superuser() *model.Actor {
	return &model.Actor{ID: "root", Authenticated: true, Superuser: true}
}

func (f *fixture) seed(facilityID, start, end string, status model.BookingStatus) *model.Booking {
	b := &model.Booking{
		FacilityID: facilityID,
		OwnerID:    ownerID,
		Date:       testDate,
		StartSlot:  slot.MustParse(start),
		EndSlot:    slot.MustParse(end),
		Status:     status,
	}
	if status == model.StatusApproved {
		b.ApprovedBy = strPtr(approverID)
		b.ApprovedAt = &f.now
	}
	return f.repo.put(b)
}

func request(facilityID, start, end string) *model.BookingRequest {
	return &model.BookingRequest{FacilityID: facilityID, Date: testDate, StartTime: start, EndTime: end}
}
