// internal/app/store/appointments/appointmentstore.go
package appointmentstore

import (
	"context"
	"errors"
	"time"

	"github.com/medinotify/portal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("appointment not found")
	errBadStatus = errors.New(`status must be "pending"|"confirmed"|"declined"`)
)

// Store provides access to the appointments collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("appointments")}
}

// Create books an appointment request. Status always starts as pending;
// staff confirm or decline later.
func (s *Store) Create(ctx context.Context, a models.Appointment) (models.Appointment, error) {
	a.ID = primitive.NewObjectID()
	a.Status = models.AppointmentPending
	a.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Appointment{}, err
	}
	return a, nil
}

// GetByID loads a single appointment.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListByPatient returns one patient's appointments, newest first.
func (s *Store) ListByPatient(ctx context.Context, patientID string, limit int64) ([]models.Appointment, error) {
	return s.list(ctx, bson.M{"patient_id": patientID}, limit)
}

// ListByStatus returns appointments in one workflow state, newest first.
// Staff use this to review pending requests.
func (s *Store) ListByStatus(ctx context.Context, status string, limit int64) ([]models.Appointment, error) {
	return s.list(ctx, bson.M{"status": status}, limit)
}

// ListAll returns recent appointments regardless of status.
func (s *Store) ListAll(ctx context.Context, limit int64) ([]models.Appointment, error) {
	return s.list(ctx, bson.M{}, limit)
}

func (s *Store) list(ctx context.Context, filter bson.M, limit int64) ([]models.Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Appointment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus moves an appointment to confirmed or declined.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	switch status {
	case models.AppointmentPending, models.AppointmentConfirmed, models.AppointmentDeclined:
		// ok
	default:
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Cancel deletes a pending appointment owned by the patient. Confirmed
// appointments cannot be cancelled this way.
func (s *Store) Cancel(ctx context.Context, id primitive.ObjectID, patientID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{
		"_id":        id,
		"patient_id": patientID,
		"status":     models.AppointmentPending,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
