// internal/app/store/accounts/accountstore.go
package accountstore

import (
	"context"
	"errors"
	"time"

	"github.com/medinotify/portal/internal/app/system/normalize"
	"github.com/medinotify/portal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Directory collection names. Accounts are partitioned by role: each role
// writes to its own collection, keyed by the identity provider's account id.
const (
	CollUsers                = "users"
	CollAdmins               = "admins"
	CollMedicalTechnologists = "medical_technologists"
	CollPathologists         = "pathologists"
)

// Collections lists every directory collection, in lookup order.
func Collections() []string {
	return []string{CollUsers, CollAdmins, CollMedicalTechnologists, CollPathologists}
}

var (
	ErrUnknownCollection = errors.New("unknown directory collection")
	// ErrDuplicateEmail is returned when a write collides with another
	// account's email in the same collection.
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	// ErrNotFound is returned when no account matches.
	ErrNotFound = errors.New("account not found")
)

// Store provides access to the role-partitioned directory collections.
// Unlike single-collection stores it holds the database, because the target
// collection is chosen per call by the provisioning routing table.
type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) coll(name string) (*mongo.Collection, error) {
	switch name {
	case CollUsers, CollAdmins, CollMedicalTechnologists, CollPathologists:
		return s.db.Collection(name), nil
	default:
		return nil, ErrUnknownCollection
	}
}

// Upsert writes the account into the named collection, replacing any
// existing document with the same id. Redelivered provisioning events
// therefore converge on the latest payload instead of erroring.
func (s *Store) Upsert(ctx context.Context, collection string, a models.Account) (models.Account, error) {
	c, err := s.coll(collection)
	if err != nil {
		return models.Account{}, err
	}

	a.Email = normalize.Email(a.Email)
	a.DisplayName = normalize.Name(a.DisplayName)
	a.Role = normalize.Role(a.Role)
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)
	if _, err := c.ReplaceOne(ctx, bson.M{"_id": a.ID}, a, opts); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Account{}, ErrDuplicateEmail
		}
		return models.Account{}, err
	}
	return a, nil
}

// GetByID loads an account from the named collection.
func (s *Store) GetByID(ctx context.Context, collection, id string) (*models.Account, error) {
	c, err := s.coll(collection)
	if err != nil {
		return nil, err
	}
	var a models.Account
	if err := c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetByEmail looks up an account by case-insensitive email within one
// collection.
func (s *Store) GetByEmail(ctx context.Context, collection, email string) (*models.Account, error) {
	c, err := s.coll(collection)
	if err != nil {
		return nil, err
	}
	var a models.Account
	if err := c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindByEmail scans every directory collection for the email. Login does not
// know the caller's role, so it has to look everywhere. Returns the account
// and the collection it was found in.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.Account, string, error) {
	for _, name := range Collections() {
		a, err := s.GetByEmail(ctx, name, email)
		if err == nil {
			return a, name, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, "", err
		}
	}
	return nil, "", ErrNotFound
}

// FindByID scans every directory collection for the account id.
func (s *Store) FindByID(ctx context.Context, id string) (*models.Account, string, error) {
	for _, name := range Collections() {
		a, err := s.GetByID(ctx, name, id)
		if err == nil {
			return a, name, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, "", err
		}
	}
	return nil, "", ErrNotFound
}

// List returns accounts from one collection, newest first.
func (s *Store) List(ctx context.Context, collection string, limit int64) ([]models.Account, error) {
	c, err := s.coll(collection)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Account
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of accounts in one collection.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	c, err := s.coll(collection)
	if err != nil {
		return 0, err
	}
	return c.CountDocuments(ctx, bson.M{})
}

// SetStatus flips an account between active and disabled.
func (s *Store) SetStatus(ctx context.Context, collection, id, status string) error {
	c, err := s.coll(collection)
	if err != nil {
		return err
	}
	res, err := c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     normalize.Status(status),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPasswordHash stores a new password hash for an account.
func (s *Store) SetPasswordHash(ctx context.Context, collection, id, hash string) error {
	c, err := s.coll(collection)
	if err != nil {
		return err
	}
	res, err := c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
