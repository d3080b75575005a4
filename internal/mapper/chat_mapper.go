package mapper

import (
	"telemed-chat-be/internal/entity"
	"telemed-chat-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ChatMessageToModel(e *entity.ChatMessage) *model.ChatMessage {
	if e == nil {
		return nil
	}
	return &model.ChatMessage{
		Id:            e.Id,
		AppointmentId: e.AppointmentId,
		SenderId:      e.SenderId,
		Body:          e.Body,
		Seq:           e.Seq,
		SentAt:        e.SentAt,
	}
}

func (m *ChatMapper) ChatMessageToEntity(r *model.ChatMessage) *entity.ChatMessage {
	if r == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:            r.Id,
		AppointmentId: r.AppointmentId,
		SenderId:      r.SenderId,
		Body:          r.Body,
		Seq:           r.Seq,
		SentAt:        r.SentAt,
	}
}
