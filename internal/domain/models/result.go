// internal/domain/models/result.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result statuses.
const (
	ResultCompleted = "Completed"
	ResultPending   = "Pending"
)

// Result is one uploaded lab result. The file itself lives in the external
// file store; FileURL is the reference handed back by that store.
type Result struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID   string             `bson:"patient_id" json:"patient_id"`
	PatientName string             `bson:"patient_name,omitempty" json:"patient_name,omitempty"`
	TestName    string             `bson:"test_name" json:"test_name"`
	FileURL     string             `bson:"file_url,omitempty" json:"file_url,omitempty"`
	Remarks     string             `bson:"remarks,omitempty" json:"remarks,omitempty"`
	Status      string             `bson:"status" json:"status"`
	UploadedBy  string             `bson:"uploaded_by" json:"uploaded_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
