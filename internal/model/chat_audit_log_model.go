package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChatAuditLog is an operational trail of chat events, written by the
// consumer worker off the hot path.
type ChatAuditLog struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventType     string         `gorm:"type:varchar(50);not null;index"`
	AppointmentId uuid.UUID      `gorm:"type:uuid;not null;index"`
	ActorId       uuid.UUID      `gorm:"type:uuid;not null"`
	Payload       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
}

func (ChatAuditLog) TableName() string {
	return "chat_audit_logs"
}
