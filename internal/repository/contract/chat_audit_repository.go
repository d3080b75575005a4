package contract

import (
	"context"

	"telemed-chat-be/internal/model"
)

type ChatAuditRepository interface {
	Create(ctx context.Context, log *model.ChatAuditLog) error
}
