package service

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "facilitybook/pkg/errors"
	"facilitybook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprove(t *testing.T) {
	f := newFixture(t)
	b := f.seed(facilityF, "09:00", "10:00", model.StatusPending)

	approved, err := f.svc.Approve(context.Background(), user(approverID, 0), b.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, approverID, *approved.ApprovedBy)
	assert.Equal(t, f.now, *approved.ApprovedAt)
	assert.Equal(t, model.StatusApproved, f.repo.get(b.ID).Status)

	sent := f.notifier.to(ownerID)
	require.Len(t, sent, 1)
	assert.Equal(t, "Booking approved", sent[0].Title)

	_, err = f.svc.Approve(context.Background(), user(approverID, 0), b.ID)
	assertCode(t, err, apperrors.CodeAlreadyDecided)
}

func TestApprove_Permissions(t *testing.T) {
	f := newFixture(t)
	b := f.seed(facilityF, "09:00", "10:00", model.StatusPending)
	orphaned := f.seed("orphan", "09:00", "10:00", model.StatusPending)

	_, err := f.svc.Approve(context.Background(), user("gym-approver", 99), b.ID)
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.Approve(context.Background(), user(ownerID, 0), b.ID)
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.Approve(context.Background(), user(approverID, 0), orphaned.ID)
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.Approve(context.Background(), superuser(), orphaned.ID)
	assert.NoError(t, err, "a superuser may decide bookings of facilities without approver")

	_, err = f.svc.Approve(context.Background(), &model.Actor{ID: approverID}, b.ID)
	assertCode(t, err, apperrors.CodeUnauthorized)

	assert.Equal(t, model.StatusPending, f.repo.get(b.ID).Status)
}

func TestApprove_RejectsOverlapWithApproved(t *testing.T) {
	f := newFixture(t)
	f.seed(facilityF, "09:00", "10:00", model.StatusApproved)
	p := f.seed(facilityF, "09:30", "10:30", model.StatusPending)

	_, err := f.svc.Approve(context.Background(), user(approverID, 0), p.ID)
	assertCode(t, err, apperrors.CodeSchedulingConflict)

	assert.Equal(t, model.StatusPending, f.repo.get(p.ID).Status)
	assert.Empty(t, f.notifier.to(ownerID))
}

func TestApprove_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Approve(context.Background(), user(approverID, 0), "missing")
	assertCode(t, err, apperrors.CodeNotFound)
}

// Two approvers decide overlapping requests at the same time. The facility
// and date lock lets exactly one of them create occupancy.
func TestApprove_ConcurrentOverlappingDecisions(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		f.repo.readDelay = time.Millisecond
		bID := f.seed(facilityF, "09:30", "10:30", model.StatusPending).ID
		cID := f.seed(facilityF, "09:45", "10:15", model.StatusPending).ID

		var wg sync.WaitGroup
		errs := make([]error, 2)
		start := make(chan struct{})
		decide := func(i int, actor *model.Actor, id string) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.Approve(context.Background(), actor, id)
		}
		wg.Add(2)
		go decide(0, user(approverID, 0), bID)
		go decide(1, superuser(), cID)
		close(start)
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assertCode(t, err, apperrors.CodeSchedulingConflict)
		}
		require.Equal(t, 1, succeeded, "round %d: exactly one approval must win", round)

		statuses := []model.BookingStatus{f.repo.get(bID).Status, f.repo.get(cID).Status}
		assert.ElementsMatch(t, []model.BookingStatus{model.StatusApproved, model.StatusPending}, statuses)
	}
}

func TestApprove_ManyConcurrentOverlaps(t *testing.T) {
	f := newFixture(t)
	f.repo.readDelay = 500 * time.Microsecond

	starts := []string{"09:00", "09:30", "10:00", "10:30", "09:00", "09:30", "10:00", "10:30"}
	ids := make([]string, len(starts))
	for i, s := range starts {
		ids[i] = f.seed(facilityF, s, "11:00", model.StatusPending).ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.Approve(context.Background(), user(approverID, 0), id)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.Truef(t, apperrors.Is(err, apperrors.CodeSchedulingConflict), "unexpected error: %v", err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "all requests overlap 10:30-11:00 so only one may be approved")

	approved, err := f.repo.FindInRange(context.Background(), testDate, testDate, []model.BookingStatus{model.StatusApproved})
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}

func TestApprove_DifferentDatesDoNotInterfere(t *testing.T) {
	f := newFixture(t)
	b := f.seed(facilityF, "09:00", "10:00", model.StatusPending)
	other := f.seed(facilityF, "09:00", "10:00", model.StatusPending)
	other.Date = "2026-10-16"
	f.repo.put(other)

	_, err := f.svc.Approve(context.Background(), user(approverID, 0), b.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), user(approverID, 0), other.ID)
	assert.NoError(t, err)
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	b := f.seed(facilityF, "09:00", "10:00", model.StatusPending)

	rejected, err := f.svc.Reject(context.Background(), user(approverID, 0), b.ID, "  Room is being renovated  ")
	require.NoError(t, err)

	assert.Equal(t, model.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectedBy)
	assert.Equal(t, approverID, *rejected.RejectedBy)
	assert.Equal(t, "Room is being renovated", rejected.RejectionReason)
	assert.Nil(t, rejected.ApprovedBy)

	sent := f.notifier.to(ownerID)
	require.Len(t, sent, 1)
	assert.Equal(t, "Booking rejected", sent[0].Title)
	assert.Contains(t, sent[0].Body, "Reason: Room is being renovated")

	_, err = f.svc.Reject(context.Background(), user(approverID, 0), b.ID, "again")
	assertCode(t, err, apperrors.CodeAlreadyDecided)
}

func TestReject_ReasonCheckedFirst(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Reject(context.Background(), user(approverID, 0), "missing", "")
	assertCode(t, err, apperrors.CodeMissingReason)

	_, err = f.svc.Reject(context.Background(), user(approverID, 0), "missing", " \n\t ")
	assertCode(t, err, apperrors.CodeMissingReason)
}

func TestReject_Permissions(t *testing.T) {
	f := newFixture(t)
	b := f.seed(facilityF, "09:00", "10:00", model.StatusPending)

	_, err := f.svc.Reject(context.Background(), user("manager", 99), b.ID, "no")
	assertCode(t, err, apperrors.CodeForbidden)
	assert.Equal(t, model.StatusPending, f.repo.get(b.ID).Status)
}

func TestReject_ApprovedBookingCannotBeRejected(t *testing.T) {
	f := newFixture(t)
	b := f.seed(facilityF, "09:00", "10:00", model.StatusApproved)

	_, err := f.svc.Reject(context.Background(), user(approverID, 0), b.ID, "too late")
	assertCode(t, err, apperrors.CodeAlreadyDecided)
}

func TestListApprovals(t *testing.T) {
	f := newFixture(t)
	f.seed(facilityF, "09:00", "10:00", model.StatusPending)
	f.seed(facilityF, "10:00", "11:00", model.StatusPending)
	f.seed(facilityF, "11:00", "12:00", model.StatusApproved)
	f.seed(facilityG, "09:00", "10:00", model.StatusPending)
	f.seed("closed", "09:00", "10:00", model.StatusPending)

	bookings, total, err := f.svc.ListApprovals(context.Background(), user(approverID, 0), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "inactive facilities are not part of the queue")
	for _, b := range bookings {
		assert.Equal(t, facilityF, b.FacilityID)
		assert.Equal(t, model.StatusPending, b.Status)
	}

	page, total, err := f.svc.ListApprovals(context.Background(), user(approverID, 0), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 1)

	all, total, err := f.svc.ListApprovals(context.Background(), superuser(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 4)

	_, _, err = f.svc.ListApprovals(context.Background(), user(ownerID, 0), 10, 0)
	assertCode(t, err, apperrors.CodeForbidden)

	_, _, err = f.svc.ListApprovals(context.Background(), &model.Actor{}, 10, 0)
	assertCode(t, err, apperrors.CodeUnauthorized)
}
