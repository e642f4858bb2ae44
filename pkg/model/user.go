package model

// User is a directory record. The booking engine only reads it.
type User struct {
	ID           string `json:"id,omitempty" bson:"_id,omitempty"`
	DisplayName  string `json:"display_name" bson:"display_name"`
	DepartmentID string `json:"department_id,omitempty" bson:"department_id"`
	RankID       string `json:"rank_id,omitempty" bson:"rank_id"`
	RankLevel    int    `json:"rank_level" bson:"rank_level"`
	Superuser    bool   `json:"superuser" bson:"superuser"`
	Active       bool   `json:"active" bson:"active"`
}

// Actor is the caller of an operation as seen by the permission checks.
// The zero value is an unauthenticated actor.
type Actor struct {
	ID            string
	DisplayName   string
	Authenticated bool
	Superuser     bool
	DepartmentID  string
	RankID        string
	RankLevel     int
}

func ActorFromUser(u *User) *Actor {
	if u == nil || !u.Active {
		return &Actor{}
	}
	return &Actor{
		ID:            u.ID,
		DisplayName:   u.DisplayName,
		Authenticated: true,
		Superuser:     u.Superuser,
		DepartmentID:  u.DepartmentID,
		RankID:        u.RankID,
		RankLevel:     u.RankLevel,
	}
}
