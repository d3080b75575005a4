package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one persisted message of an appointment conversation.
// Messages are append-only: created exactly once, never updated or deleted.
type ChatMessage struct {
	Id            uuid.UUID
	AppointmentId uuid.UUID
	SenderId      uuid.UUID
	Body          string
	Seq           int64
	SentAt        time.Time
}
