// internal/domain/models/appointment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Appointment statuses. Requests start Pending and are confirmed or
// declined by laboratory staff.
const (
	AppointmentPending   = "Pending"
	AppointmentConfirmed = "Confirmed"
	AppointmentDeclined  = "Declined"
)

// Appointment is a patient's laboratory booking request.
type Appointment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID string             `bson:"patient_id" json:"patient_id"`
	Doctor    string             `bson:"doctor" json:"doctor"`
	TestType  string             `bson:"test_type" json:"test_type"`
	Date      string             `bson:"date" json:"date"` // YYYY-MM-DD as entered
	Time      string             `bson:"time" json:"time"` // HH:MM as entered
	Status    string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
