package mongo

import (
	"testing"

	"facilitybook/internal/bookings/repository"
	"facilitybook/internal/directory"
	"facilitybook/internal/notifications"
)

func TestCollections_MatchRepositories(t *testing.T) {
	collections := Collections()
	for _, name := range []string{
		repository.CollectionName,
		repository.FacilityCollectionName,
		repository.LockCollectionName,
		directory.CollectionName,
		notifications.InboxCollectionName,
	} {
		if _, ok := collections[name]; !ok {
			t.Errorf("no migration for collection %s", name)
		}
	}
}

func TestMessages_EventIDIsUnique(t *testing.T) {
	for _, idx := range MessagesIndexes {
		if idx.Options != nil && idx.Options.Unique != nil && *idx.Options.Unique {
			return
		}
	}
	t.Error("inbox deduplication needs a unique event_id index")
}

func TestBookingLocks_ExpireOnTTL(t *testing.T) {
	if len(BookingLocksIndexes) != 1 {
		t.Fatalf("expected one lock index, got %d", len(BookingLocksIndexes))
	}
	opts := BookingLocksIndexes[0].Options
	if opts == nil || opts.ExpireAfterSeconds == nil || *opts.ExpireAfterSeconds != 0 {
		t.Error("lock documents must expire at expires_at")
	}
}

func TestValidatorsPresent(t *testing.T) {
	for name, def := range Collections() {
		if name == repository.LockCollectionName {
			continue
		}
		if def.Validator == nil {
			t.Errorf("collection %s has no validator", name)
		}
	}
}
