package testutil

import (
	"time"

	"github.com/medinotify/portal/internal/domain/models"
)

// PatientAccount returns a minimal patient account fixture.
func PatientAccount(id string) models.Account {
	return models.Account{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: "Test Patient",
		Role:        models.RolePatient,
		AuthMethod:  "password",
		Status:      "active",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}

// StaffAccount returns an account fixture with the given staff role.
func StaffAccount(id, role string) models.Account {
	a := PatientAccount(id)
	a.DisplayName = "Test Staff"
	a.Role = role
	return a
}

// ResultFixture returns a completed lab result for the patient.
func ResultFixture(patientID, testName string) models.Result {
	return models.Result{
		PatientID:   patientID,
		PatientName: "Test Patient",
		TestName:    testName,
		Status:      models.ResultCompleted,
		UploadedBy:  "medtech-1",
	}
}
