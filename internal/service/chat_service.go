package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"telemed-chat-be/internal/dto"
	"telemed-chat-be/internal/entity"
	"telemed-chat-be/internal/pkg/apperror"
	"telemed-chat-be/internal/pkg/logger"
	"telemed-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IChatService is the durable side of the chat core: the append-only
// message store, the authorized history read, and the unread counters.
type IChatService interface {
	// Send validates and persists a message. When deliver is non-nil it is
	// invoked with the stored message while the per-appointment lock is
	// still held, so live fan-out happens in persistence order: a second
	// sender cannot append (let alone deliver) until the first message has
	// been both persisted and handed off.
	Send(ctx context.Context, appointmentId, senderId uuid.UUID, body string, deliver func(*dto.ChatMessageResponse)) (*dto.ChatMessageResponse, error)

	// RecordJoin emits the room-joined domain event after the relay has
	// admitted a participant. Best-effort; joining never fails on it.
	RecordJoin(ctx context.Context, appointmentId, participantId uuid.UUID)

	// History returns the full backlog for a participant authorized on the
	// appointment, ascending send order.
	History(ctx context.Context, appointmentId, participantId uuid.UUID) ([]*dto.ChatMessageResponse, error)

	UnreadCount(ctx context.Context, appointmentId, participantId uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, appointmentId, participantId uuid.UUID) error
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	auth       IAppointmentAuthService
	publisher  IPublisherService
	rdb        *redis.Client
	logger     logger.ILogger

	// appendLocks serializes appends per appointment so durability order
	// is total within a room. Entries are never reclaimed; the set of
	// appointments with live chat at any point is small.
	appendLocks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	auth IAppointmentAuthService,
	publisher IPublisherService,
	rdb *redis.Client,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		auth:       auth,
		publisher:  publisher,
		rdb:        rdb,
		logger:     log,
	}
}

func (s *chatService) appendLock(appointmentId uuid.UUID) *sync.Mutex {
	lock, _ := s.appendLocks.LoadOrStore(appointmentId, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func unreadKey(appointmentId, participantId uuid.UUID) string {
	return fmt.Sprintf("chat:unread:%s:%s", appointmentId, participantId)
}

func (s *chatService) Send(ctx context.Context, appointmentId, senderId uuid.UUID, body string, deliver func(*dto.ChatMessageResponse)) (*dto.ChatMessageResponse, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperror.NewValidation("Message body must not be empty")
	}

	summary, err := s.auth.Resolve(ctx, appointmentId)
	if err != nil {
		return nil, err
	}

	message := &entity.ChatMessage{
		AppointmentId: appointmentId,
		SenderId:      senderId,
		Body:          body,
	}

	var res *dto.ChatMessageResponse
	lock := s.appendLock(appointmentId)
	lock.Lock()
	err = s.uowFactory.NewUnitOfWork(ctx).ChatMessageRepository().Create(ctx, message)
	if err == nil {
		res = toChatMessageResponse(message)
		// Fan-out under the same lock as the append: subscribers observe
		// live messages in exactly the order the store accepted them.
		if deliver != nil {
			deliver(res)
		}
	}
	lock.Unlock()
	if err != nil {
		s.logger.Error("ChatService", "Failed to persist message", map[string]interface{}{
			"appointment_id": appointmentId,
			"error":          err.Error(),
		})
		return nil, apperror.NewStore("Failed to send message due to server error", err)
	}

	if s.publisher != nil {
		event := dto.ChatMessagePersistedEvent{
			Message:   *res,
			PatientId: summary.PatientId,
			DoctorId:  summary.DoctorId,
		}
		if err := s.publisher.PublishMessagePersisted(ctx, event); err != nil {
			// Side effects are best-effort; the message is already durable.
			s.logger.Warn("ChatService", "Failed to publish persisted-message event", map[string]interface{}{
				"message_id": res.Id,
				"error":      err.Error(),
			})
		}
	}

	return res, nil
}

func (s *chatService) RecordJoin(ctx context.Context, appointmentId, participantId uuid.UUID) {
	if s.publisher == nil {
		return
	}

	event := dto.ChatRoomJoinedEvent{
		AppointmentId: appointmentId,
		ParticipantId: participantId,
		JoinedAt:      time.Now(),
	}
	if err := s.publisher.PublishRoomJoined(ctx, event); err != nil {
		s.logger.Warn("ChatService", "Failed to publish room-joined event", map[string]interface{}{
			"appointment_id": appointmentId,
			"participant_id": participantId,
			"error":          err.Error(),
		})
	}
}

func (s *chatService) History(ctx context.Context, appointmentId, participantId uuid.UUID) ([]*dto.ChatMessageResponse, error) {
	if _, err := s.auth.Authorize(ctx, appointmentId, participantId); err != nil {
		return nil, err
	}

	messages, err := s.uowFactory.NewUnitOfWork(ctx).ChatMessageRepository().FindByAppointment(ctx, appointmentId)
	if err != nil {
		return nil, apperror.NewStore("Failed to fetch chat messages", err)
	}

	result := make([]*dto.ChatMessageResponse, len(messages))
	for i, m := range messages {
		result[i] = toChatMessageResponse(m)
	}
	return result, nil
}

func (s *chatService) UnreadCount(ctx context.Context, appointmentId, participantId uuid.UUID) (int64, error) {
	if _, err := s.auth.Authorize(ctx, appointmentId, participantId); err != nil {
		return 0, err
	}
	if s.rdb == nil {
		return 0, nil
	}

	count, err := s.rdb.Get(ctx, unreadKey(appointmentId, participantId)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, apperror.NewStore("Failed to read unread counter", err)
	}
	return count, nil
}

func (s *chatService) MarkRead(ctx context.Context, appointmentId, participantId uuid.UUID) error {
	if _, err := s.auth.Authorize(ctx, appointmentId, participantId); err != nil {
		return err
	}
	if s.rdb == nil {
		return nil
	}

	if err := s.rdb.Del(ctx, unreadKey(appointmentId, participantId)).Err(); err != nil {
		return apperror.NewStore("Failed to reset unread counter", err)
	}
	return nil
}

func toChatMessageResponse(m *entity.ChatMessage) *dto.ChatMessageResponse {
	return &dto.ChatMessageResponse{
		Id:            m.Id,
		AppointmentId: m.AppointmentId,
		SenderId:      m.SenderId,
		Body:          m.Body,
		SentAt:        m.SentAt,
	}
}
