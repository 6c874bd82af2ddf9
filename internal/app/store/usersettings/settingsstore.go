// internal/app/store/usersettings/settingsstore.go
package settingsstore

import (
	"context"
	"time"

	"github.com/medinotify/portal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the userSettings collection. One document per
// patient account, keyed by the account id.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("userSettings")}
}

// EnsureDefaults seeds the default settings document for an account if none
// exists. An existing document is left untouched, so redelivered
// provisioning events never clobber preferences the patient already changed.
func (s *Store) EnsureDefaults(ctx context.Context, accountID string, now time.Time) error {
	def := models.DefaultUserSettings(accountID, now)
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":           def.AccountID,
			"notifications": def.Notifications,
			"language":      def.Language,
			"theme":         def.Theme,
			"dark_mode":     def.DarkMode,
			"email_alerts":  def.EmailAlerts,
			"created_at":    def.CreatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": accountID}, update, opts)
	return err
}

// Get returns the settings for an account. If no document exists yet the
// defaults are returned, matching what EnsureDefaults would seed.
func (s *Store) Get(ctx context.Context, accountID string) (models.UserSettings, error) {
	var settings models.UserSettings
	err := s.c.FindOne(ctx, bson.M{"_id": accountID}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return models.DefaultUserSettings(accountID, time.Now().UTC()), nil
	}
	if err != nil {
		return models.UserSettings{}, err
	}
	return settings, nil
}

// Update holds the preference fields a signed-in user may change.
type Update struct {
	Notifications bool
	Language      string
	Theme         string
	DarkMode      bool
	EmailAlerts   bool
}

// Save writes the user's preferences. Uses upsert so it works whether the
// provisioning fan-out has seeded the document or not.
func (s *Store) Save(ctx context.Context, accountID string, upd Update) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"notifications": upd.Notifications,
			"language":      upd.Language,
			"theme":         upd.Theme,
			"dark_mode":     upd.DarkMode,
			"email_alerts":  upd.EmailAlerts,
			"updated_at":    &now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": accountID}, update, opts)
	return err
}

// Exists reports whether a settings document has been written for the account.
func (s *Store) Exists(ctx context.Context, accountID string) (bool, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{"_id": accountID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes the settings document. Used when an account is removed.
func (s *Store) Delete(ctx context.Context, accountID string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": accountID})
	return err
}
