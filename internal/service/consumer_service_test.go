package service_test

import (
	"context"
	"testing"
	"time"

	"telemed-chat-be/internal/dto"
	"telemed-chat-be/internal/service"
	"telemed-chat-be/internal/testutil"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerWritesAuditLogForPersistedMessage(t *testing.T) {
	store := testutil.NewInMemoryStore()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	const topic = "CHAT_MESSAGE_PERSISTED"
	const joinTopic = "CHAT_ROOM_JOINED"
	publisher := service.NewPublisherService(topic, joinTopic, pubSub)
	consumer := service.NewConsumerService(pubSub, topic, joinTopic, store, nil, nil, testutil.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	patientId, doctorId := uuid.New(), uuid.New()
	event := dto.ChatMessagePersistedEvent{
		Message: dto.ChatMessageResponse{
			Id:            uuid.New(),
			AppointmentId: uuid.New(),
			SenderId:      patientId,
			Body:          "hello",
			SentAt:        time.Now(),
		},
		PatientId: patientId,
		DoctorId:  doctorId,
	}
	require.NoError(t, publisher.PublishMessagePersisted(ctx, event))

	require.Eventually(t, func() bool {
		return store.AuditCount() == 1
	}, 2*time.Second, 10*time.Millisecond, "audit log row should be written")

	log := store.AuditLogs[0]
	assert.Equal(t, "CHAT_MESSAGE_SENT", log.EventType)
	assert.Equal(t, event.Message.AppointmentId, log.AppointmentId)
	assert.Equal(t, patientId, log.ActorId)
	assert.NotEmpty(t, log.Payload)
}

func TestConsumerIgnoresMalformedPayload(t *testing.T) {
	store := testutil.NewInMemoryStore()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	const topic = "CHAT_MESSAGE_PERSISTED"
	const joinTopic = "CHAT_ROOM_JOINED"
	publisher := service.NewPublisherService(topic, joinTopic, pubSub)
	consumer := service.NewConsumerService(pubSub, topic, joinTopic, store, nil, nil, testutil.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	// A malformed frame followed by a valid one: the consumer must ack the
	// bad frame and keep draining.
	require.NoError(t, publishRaw(pubSub, topic, []byte("{not json")))
	event := dto.ChatMessagePersistedEvent{
		Message: dto.ChatMessageResponse{
			Id:            uuid.New(),
			AppointmentId: uuid.New(),
			SenderId:      uuid.New(),
			Body:          "still alive",
			SentAt:        time.Now(),
		},
		PatientId: uuid.New(),
		DoctorId:  uuid.New(),
	}
	require.NoError(t, publisher.PublishMessagePersisted(ctx, event))

	require.Eventually(t, func() bool {
		return store.AuditCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func publishRaw(pubSub *gochannel.GoChannel, topic string, payload []byte) error {
	return pubSub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload))
}

func TestConsumerWritesAuditLogForRoomJoin(t *testing.T) {
	store := testutil.NewInMemoryStore()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	const topic = "CHAT_MESSAGE_PERSISTED"
	const joinTopic = "CHAT_ROOM_JOINED"
	publisher := service.NewPublisherService(topic, joinTopic, pubSub)
	consumer := service.NewConsumerService(pubSub, topic, joinTopic, store, nil, nil, testutil.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	event := dto.ChatRoomJoinedEvent{
		AppointmentId: uuid.New(),
		ParticipantId: uuid.New(),
		JoinedAt:      time.Now(),
	}
	require.NoError(t, publisher.PublishRoomJoined(ctx, event))

	require.Eventually(t, func() bool {
		return store.AuditCount() == 1
	}, 2*time.Second, 10*time.Millisecond, "room-joined audit row should be written")

	log := store.AuditLogs[0]
	assert.Equal(t, "CHAT_ROOM_JOINED", log.EventType)
	assert.Equal(t, event.AppointmentId, log.AppointmentId)
	assert.Equal(t, event.ParticipantId, log.ActorId)
}
