// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotificationTypeWelcome     = "welcome"
	NotificationTypeResult      = "result"
	NotificationTypeAppointment = "appointment"
	NotificationTypeReminder    = "reminder"
	NotificationTypeSystem      = "system"
)

// Notification read statuses.
const (
	NotificationUnread = "unread"
	NotificationRead   = "read"
)

// Notification is a recipient-addressed message record. It is append-only
// from the fan-out handlers' perspective; only the recipient flips the
// read/unread status.
//
// DedupeKey is set on notifications that must survive at-least-once trigger
// delivery without duplication (currently only the welcome notification).
// It is a deterministic UUID derived from the recipient and type, backed by
// a unique sparse index. Notifications without a dedupe key (results) are
// intentionally not deduplicated.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	DedupeKey string             `bson:"dedupe_key,omitempty" json:"-"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Status    string             `bson:"status" json:"status"`
	Type      string             `bson:"type" json:"type"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
