package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telemed-chat-be/internal/dto"
	"telemed-chat-be/internal/model"
	"telemed-chat-be/internal/pkg/logger"
	"telemed-chat-be/internal/repository/unitofwork"
	"telemed-chat-be/pkg/events"
	pktNats "telemed-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// IConsumerService drains the persisted-message bus and applies the side
// effects that must not sit on the relay hot path: unread counters, the
// audit trail, and the external NATS event.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub       *gochannel.GoChannel
	messageTopic string
	joinTopic    string
	uowFactory   unitofwork.RepositoryFactory
	rdb          *redis.Client
	natsPub      *pktNats.Publisher
	logger       logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	messageTopic string,
	joinTopic string,
	uowFactory unitofwork.RepositoryFactory,
	rdb *redis.Client,
	natsPub *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:       pubSub,
		messageTopic: messageTopic,
		joinTopic:    joinTopic,
		uowFactory:   uowFactory,
		rdb:          rdb,
		natsPub:      natsPub,
		logger:       log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.messageTopic)
	if err != nil {
		return err
	}
	joins, err := cs.pubSub.Subscribe(ctx, cs.joinTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()
	go func() {
		for msg := range joins {
			cs.processJoin(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event dto.ChatMessagePersistedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal persisted-message event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // invalid payloads are not retryable
		return
	}

	cs.bumpUnread(ctx, event)
	cs.writeAudit(ctx, event)
	cs.publishExternal(ctx, "CHAT_MESSAGE_SENT", map[string]interface{}{
		"message_id":     event.Message.Id.String(),
		"appointment_id": event.Message.AppointmentId.String(),
		"sender_id":      event.Message.SenderId.String(),
		"sent_at":        event.Message.SentAt.Format(time.RFC3339Nano),
	})

	msg.Ack()
}

func (cs *consumerService) processJoin(ctx context.Context, msg *message.Message) {
	var event dto.ChatRoomJoinedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal room-joined event", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	if payload, err := json.Marshal(event); err == nil {
		log := &model.ChatAuditLog{
			EventType:     "CHAT_ROOM_JOINED",
			AppointmentId: event.AppointmentId,
			ActorId:       event.ParticipantId,
			Payload:       payload,
		}
		if err := cs.uowFactory.NewUnitOfWork(ctx).ChatAuditRepository().Create(ctx, log); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to write room-joined audit log", map[string]interface{}{
				"appointment_id": event.AppointmentId,
				"error":          err.Error(),
			})
		}
	}

	cs.publishExternal(ctx, "CHAT_ROOM_JOINED", map[string]interface{}{
		"appointment_id": event.AppointmentId.String(),
		"participant_id": event.ParticipantId.String(),
		"joined_at":      event.JoinedAt.Format(time.RFC3339Nano),
	})

	msg.Ack()
}

// bumpUnread increments the counter of the party that did NOT send the
// message. The counter is reset when that party calls the read endpoint.
func (cs *consumerService) bumpUnread(ctx context.Context, event dto.ChatMessagePersistedEvent) {
	if cs.rdb == nil {
		return
	}

	recipient := event.PatientId
	if event.Message.SenderId == event.PatientId {
		recipient = event.DoctorId
	}

	key := unreadKey(event.Message.AppointmentId, recipient)
	if err := cs.rdb.Incr(ctx, key).Err(); err != nil {
		cs.logger.Warn("ConsumerService", "Failed to increment unread counter", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (cs *consumerService) writeAudit(ctx context.Context, event dto.ChatMessagePersistedEvent) {
	payload, err := json.Marshal(event.Message)
	if err != nil {
		return
	}

	log := &model.ChatAuditLog{
		EventType:     "CHAT_MESSAGE_SENT",
		AppointmentId: event.Message.AppointmentId,
		ActorId:       event.Message.SenderId,
		Payload:       payload,
	}
	if err := cs.uowFactory.NewUnitOfWork(ctx).ChatAuditRepository().Create(ctx, log); err != nil {
		cs.logger.Warn("ConsumerService", "Failed to write chat audit log", map[string]interface{}{
			"appointment_id": event.Message.AppointmentId,
			"error":          err.Error(),
		})
	}
}

// publishExternal emits a domain event for downstream services (e.g.
// the notification service that mails the offline party).
func (cs *consumerService) publishExternal(ctx context.Context, eventType string, data map[string]interface{}) {
	if cs.natsPub == nil {
		return
	}

	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := cs.natsPub.Publish(publishCtx, evt); err != nil {
		cs.logger.Warn("ConsumerService", fmt.Sprintf("Failed to publish %s event", evt.Type), map[string]interface{}{
			"error": err.Error(),
		})
	}
}
