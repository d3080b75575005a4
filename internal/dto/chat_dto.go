package dto

import (
	"time"

	"github.com/google/uuid"
)

// Websocket event names. Kept stable because the patient and doctor
// frontends both bind to them.
const (
	EventJoinRoom       = "joinRoom"
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
	EventJoinedRoom     = "joinedRoom"
	EventJoinError      = "joinError"
	EventSendError      = "sendError"
	EventError          = "error"
)

// ChatMessageResponse is the one canonical message shape. The history
// endpoint and the live receiveMessage event both carry it, so clients
// reuse a single message type.
type ChatMessageResponse struct {
	Id            uuid.UUID `json:"id"`
	AppointmentId uuid.UUID `json:"appointment_id"`
	SenderId      uuid.UUID `json:"sender_id"`
	Body          string    `json:"body"`
	SentAt        time.Time `json:"sent_at"`
}

// ClientFrame is an inbound websocket frame (joinRoom or sendMessage).
type ClientFrame struct {
	Type          string `json:"type" validate:"required"`
	AppointmentId string `json:"appointment_id"`
	Body          string `json:"body"`
}

// ServerFrame is an outbound websocket frame.
type ServerFrame struct {
	Type          string               `json:"type"`
	AppointmentId string               `json:"appointment_id,omitempty"`
	Message       string               `json:"message,omitempty"`
	Data          *ChatMessageResponse `json:"data,omitempty"`
}

// AppointmentSummary is what the authorization check exposes to the chat
// core: just enough to identify the parties.
type AppointmentSummary struct {
	Id        uuid.UUID `json:"id"`
	PatientId uuid.UUID `json:"patient_id"`
	DoctorId  uuid.UUID `json:"doctor_id"`
	Cancelled bool      `json:"cancelled"`
}

// ChatMessagePersistedEvent rides the in-process bus from the chat service
// to the consumer worker (unread counters, NATS publish, audit row).
type ChatMessagePersistedEvent struct {
	Message   ChatMessageResponse `json:"message"`
	PatientId uuid.UUID           `json:"patient_id"`
	DoctorId  uuid.UUID           `json:"doctor_id"`
}

// ChatRoomJoinedEvent is emitted after the relay admits a participant to
// a room; the consumer turns it into an audit row and a NATS event.
type ChatRoomJoinedEvent struct {
	AppointmentId uuid.UUID `json:"appointment_id"`
	ParticipantId uuid.UUID `json:"participant_id"`
	JoinedAt      time.Time `json:"joined_at"`
}

type UnreadCountResponse struct {
	AppointmentId uuid.UUID `json:"appointment_id"`
	Count         int64     `json:"count"`
}
