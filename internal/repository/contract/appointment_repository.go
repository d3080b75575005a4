package contract

import (
	"context"

	"telemed-chat-be/internal/entity"

	"github.com/google/uuid"
)

// AppointmentRepository is a read model from the chat core's point of
// view; Create exists for migrations, seeding and tests only.
type AppointmentRepository interface {
	FindById(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	Create(ctx context.Context, appointment *entity.Appointment) error
}
