// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/medinotify/portal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicate is returned when an insert collides on the dedupe key.
	// Callers writing idempotent notifications treat this as success.
	ErrDuplicate = errors.New("a notification with this dedupe key already exists")
	// ErrNotFound is returned when no notification matches.
	ErrNotFound = errors.New("notification not found")
)

// Store provides access to the notifications collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Insert writes a notification. If the notification carries a dedupe key and
// a document with that key already exists, ErrDuplicate is returned and
// nothing is written. Notifications without a dedupe key always insert.
func (s *Store) Insert(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	if n.Status == "" {
		n.Status = models.NotificationUnread
	}

	if _, err := s.c.InsertOne(ctx, n); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Notification{}, ErrDuplicate
		}
		return models.Notification{}, err
	}
	return n, nil
}

// GetByID loads a single notification.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// ListByRecipient returns a user's notifications, newest first.
func (s *Store) ListByRecipient(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountUnread returns the user's unread notification count (the badge).
func (s *Store) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"status":  models.NotificationUnread,
	})
}

// MarkRead marks one notification as read. The user id is part of the filter
// so users cannot touch each other's notifications.
func (s *Store) MarkRead(ctx context.Context, id primitive.ObjectID, userID string) error {
	return s.setStatus(ctx, id, userID, models.NotificationRead)
}

// MarkUnread flips a notification back to unread.
func (s *Store) MarkUnread(ctx context.Context, id primitive.ObjectID, userID string) error {
	return s.setStatus(ctx, id, userID, models.NotificationUnread)
}

func (s *Store) setStatus(ctx context.Context, id primitive.ObjectID, userID, status string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification for the user as read and
// returns how many were updated.
func (s *Store) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "status": models.NotificationUnread},
		bson.M{"$set": bson.M{"status": models.NotificationRead}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes one notification owned by the user.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, userID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
