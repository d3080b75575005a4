package implementation

import (
	"context"

	"telemed-chat-be/internal/model"
	"telemed-chat-be/internal/repository/contract"

	"gorm.io/gorm"
)

type ChatAuditRepositoryImpl struct {
	db *gorm.DB
}

func NewChatAuditRepository(db *gorm.DB) contract.ChatAuditRepository {
	return &ChatAuditRepositoryImpl{db: db}
}

func (r *ChatAuditRepositoryImpl) Create(ctx context.Context, log *model.ChatAuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
