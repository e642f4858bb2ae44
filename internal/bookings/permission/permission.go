// Package permission holds the booking access predicates. Every function is
// pure: it only looks at the actor's directory attributes as loaded for the
// current request and at the facility or booking in question.
package permission

import (
	"slices"

	"facilitybook/pkg/model"
)

// CanBook reports whether actor may request facility.
func CanBook(actor *model.Actor, facility *model.Facility) bool {
	if actor == nil || !actor.Authenticated || facility == nil || !facility.Active {
		return false
	}
	if actor.Superuser {
		return true
	}

	if len(facility.AllowedDepartments) > 0 {
		if actor.DepartmentID == "" || !slices.Contains(facility.AllowedDepartments, actor.DepartmentID) {
			return false
		}
	}
	if len(facility.AllowedRanks) > 0 {
		if actor.RankID == "" || !slices.Contains(facility.AllowedRanks, actor.RankID) {
			return false
		}
	}
	if facility.MinRankLevel != nil && actor.RankLevel < *facility.MinRankLevel {
		return false
	}
	return true
}

// IsAdministrator reports whether actor may manage other users' bookings on
// facility.
func IsAdministrator(actor *model.Actor, facility *model.Facility) bool {
	if actor == nil || !actor.Authenticated {
		return false
	}
	if actor.Superuser {
		return true
	}
	return facility != nil &&
		facility.ManagementMinRankLevel != nil &&
		actor.RankLevel >= *facility.ManagementMinRankLevel
}

func CanCancel(actor *model.Actor, booking *model.Booking, facility *model.Facility) bool {
	if actor == nil || !actor.Authenticated || booking == nil {
		return false
	}
	return booking.IsOwner(actor.ID) || IsAdministrator(actor, facility)
}

func CanEdit(actor *model.Actor, booking *model.Booking, facility *model.Facility) bool {
	return CanCancel(actor, booking, facility)
}

// CanApprove reports whether actor decides bookings on facility. A facility
// without an approver can only be decided by a superuser.
func CanApprove(actor *model.Actor, facility *model.Facility) bool {
	if actor == nil || !actor.Authenticated || facility == nil {
		return false
	}
	if actor.Superuser {
		return true
	}
	return facility.ApproverID != nil && *facility.ApproverID == actor.ID
}
