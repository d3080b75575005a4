package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByAppointmentID struct {
	AppointmentID uuid.UUID
}

func (s ByAppointmentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("appointment_id = ?", s.AppointmentID)
}

// OrderBySendTime yields ascending send order; seq breaks clock ties.
type OrderBySendTime struct{}

func (s OrderBySendTime) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("sent_at ASC").Order("seq ASC")
}
