package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AppointmentId uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_messages_appointment"`
	SenderId      uuid.UUID `gorm:"type:uuid;not null"`
	Body          string    `gorm:"type:text;not null"`
	// Seq breaks sent_at ties in history ordering (bigserial, assigned by
	// the database in insertion order).
	Seq    int64     `gorm:"not null;autoIncrement"`
	SentAt time.Time `gorm:"autoCreateTime;index:idx_chat_messages_sent_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
