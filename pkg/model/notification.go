package model

import "time"

// Notification is what the booking engine hands to the notification sink.
type Notification struct {
	RecipientID string    `json:"recipient_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// InboxMessage is a delivered notification stored in a user's inbox. System
// notifications carry no sender.
type InboxMessage struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	EventID    string    `json:"event_id" bson:"event_id"`
	SenderID   *string   `json:"sender_id,omitempty" bson:"sender_id"`
	ReceiverID string    `json:"receiver_id" bson:"receiver_id"`
	Title      string    `json:"title" bson:"title"`
	Content    string    `json:"content" bson:"content"`
	Read       bool      `json:"read" bson:"read"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
