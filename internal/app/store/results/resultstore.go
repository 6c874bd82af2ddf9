// internal/app/store/results/resultstore.go
package resultstore

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

var (
	ErrNotFound = errors.New("result not found")

	errNoPatient  = errors.New("result must have a patient id")
	errNoTestName = errors.New("result must have a test name")
)

// Store provides access to the results collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("results")}
}

// Create inserts a lab result after validating required fields.
func (s *Store) Create(ctx context.Context, r models.Result) (models.Result, error) {
	if r.PatientID == "" {
		return models.Result{}, errNoPatient
	}
	if r.TestName == "" {
		return models.Result{}, errNoTestName
	}

	r.ID = primitive.NewObjectID()
	r.PatientName = normalize.Name(r.PatientName)
	if r.Status == "" {
		r.Status = models.ResultCompleted
	}
	r.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Result{}, err
	}
	return r, nil
}

// GetByID loads a single result.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Result, error) {
	var r models.Result
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ListByPatient returns one patient's results, newest first.
func (s *Store) ListByPatient(ctx context.Context, patientID string, limit int64) ([]models.Result, error) {
	return s.list(ctx, bson.M{"patient_id": patientID}, limit)
}

// ListRecent returns the latest results across all patients. Used by the
// staff dashboard.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]models.Result, error) {
	return s.list(ctx, bson.M{}, limit)
}

func (s *Store) list(ctx context.Context, filter bson.M, limit int64) ([]models.Result, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Result
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus updates a result's workflow status (pending/completed).
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
