package entity

import (
	"time"

	"github.com/google/uuid"
)

// Appointment is the authorization source of truth for chat access. The
// chat core reads it and never mutates it; booking lives elsewhere.
type Appointment struct {
	Id          uuid.UUID
	PatientId   uuid.UUID
	DoctorId    uuid.UUID
	Cancelled   bool
	ScheduledAt time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// IsParty reports whether the participant is the patient or the assigned
// doctor on this appointment.
func (a *Appointment) IsParty(participantId uuid.UUID) bool {
	return a.PatientId == participantId || a.DoctorId == participantId
}
