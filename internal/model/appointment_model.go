package model

import (
	"time"

	"github.com/google/uuid"
)

type Appointment struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PatientId   uuid.UUID `gorm:"type:uuid;not null;index"`
	DoctorId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Cancelled   bool      `gorm:"not null;default:false"`
	ScheduledAt time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Appointment) TableName() string {
	return "appointments"
}
