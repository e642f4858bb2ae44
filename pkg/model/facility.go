package model

// Facility is a bookable shared resource. Empty restriction lists and nil
// levels mean the restriction does not apply.
type Facility struct {
	ID       string `json:"id,omitempty" bson:"_id,omitempty"`
	Name     string `json:"name" bson:"name"`
	Location string `json:"location,omitempty" bson:"location"`
	Active   bool   `json:"active" bson:"active"`

	AllowedDepartments []string `json:"allowed_departments,omitempty" bson:"allowed_departments"`
	AllowedRanks       []string `json:"allowed_ranks,omitempty" bson:"allowed_ranks"`
	MinRankLevel       *int     `json:"min_rank_level,omitempty" bson:"min_rank_level"`

	// ManagementMinRankLevel is the rank level from which an actor may
	// cancel or edit other users' bookings on this facility.
	ManagementMinRankLevel *int `json:"management_min_rank_level,omitempty" bson:"management_min_rank_level"`

	// RequireApproval is kept for compatibility with existing records.
	// Every booking starts PENDING regardless of its value.
	RequireApproval bool `json:"require_approval" bson:"require_approval"`

	// ApproverID is the single user who approves or rejects bookings here.
	ApproverID *string `json:"approver_id,omitempty" bson:"approver_id"`
}
