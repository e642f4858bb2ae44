package model

import "time"

// BookingLock is an advisory lock document guarding the approval section of
// one facility and date. Owner identifies the holder so only it can release.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
