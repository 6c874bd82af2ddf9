// internal/domain/models/settings.go
package models

import "time"

// Defaults seeded into a patient's settings document at provisioning time.
const (
	DefaultLanguage = "en"
	DefaultTheme    = "light"
)

// UserSettings holds a patient's portal preferences. Exactly one document
// exists per patient account, keyed by the account id, created when the
// account is provisioned and mutated only by the owner afterwards.
type UserSettings struct {
	AccountID     string `bson:"_id" json:"account_id"`
	Notifications bool   `bson:"notifications" json:"notifications"`
	Language      string `bson:"language" json:"language"`
	Theme         string `bson:"theme" json:"theme"`
	DarkMode      bool   `bson:"dark_mode" json:"dark_mode"`
	EmailAlerts   bool   `bson:"email_alerts" json:"email_alerts"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// DefaultUserSettings returns the settings seeded for a new patient.
func DefaultUserSettings(accountID string, now time.Time) UserSettings {
	return UserSettings{
		AccountID:     accountID,
		Notifications: true,
		Language:      DefaultLanguage,
		Theme:         DefaultTheme,
		EmailAlerts:   true,
		CreatedAt:     now,
	}
}
