package unitofwork

import (
	"context"

	"telemed-chat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatMessageRepository() contract.ChatMessageRepository
	AppointmentRepository() contract.AppointmentRepository
	ParticipantRepository() contract.ParticipantRepository
	ChatAuditRepository() contract.ChatAuditRepository
}
