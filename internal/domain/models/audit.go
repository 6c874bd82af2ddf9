package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Provision audit outcomes.
const (
	ProvisionOK     = "ok"
	ProvisionFailed = "failed"
)

// ProvisionAudit records one provisioning attempt: what event arrived, what
// role was resolved (and whether the lookup itself failed), and where the
// account landed. Admins read this feed to spot accounts that were defaulted
// to patient because the role lookup was unavailable.
type ProvisionAudit struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID  string             `bson:"account_id" json:"accountId"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Role       string             `bson:"role" json:"role"`
	Defaulted  bool               `bson:"defaulted" json:"defaulted"`
	LookupErr  string             `bson:"lookup_error,omitempty" json:"lookupError,omitempty"`
	Collection string             `bson:"collection" json:"collection"`
	Outcome    string             `bson:"outcome" json:"outcome"`
	Stage      string             `bson:"stage,omitempty" json:"stage,omitempty"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}
