package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// Participant is a patient or a doctor. Both roles share one identifier
// space, so participant ids are globally unique and comparable as plain
// values in authorization checks.
type Participant struct {
	Id        uuid.UUID
	Name      string
	Email     string
	Role      string
	CreatedAt time.Time
}
