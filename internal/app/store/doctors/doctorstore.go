// internal/app/store/doctors/doctorstore.go
package doctorstore

import (
	"context"
	"errors"
	"time"

	"github.com/medinotify/portal/internal/app/system/normalize"
	"github.com/medinotify/portal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("doctor not found")

// Store provides access to the doctors collection (the referral directory
// patients pick from when booking appointments).
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("doctors")}
}

// Create adds a doctor to the directory.
func (s *Store) Create(ctx context.Context, d models.Doctor) (models.Doctor, error) {
	d.ID = primitive.NewObjectID()
	d.Name = normalize.Name(d.Name)
	if d.Status == "" {
		d.Status = "active"
	}
	d.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Doctor{}, err
	}
	return d, nil
}

// List returns the directory sorted by name. Pass activeOnly to hide
// doctors who no longer accept referrals.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]models.Doctor, error) {
	filter := bson.M{}
	if activeOnly {
		filter["status"] = "active"
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Doctor
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus flips a doctor between active and inactive.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status": normalize.Status(status),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a doctor from the directory.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
