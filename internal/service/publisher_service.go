package service

import (
	"context"
	"encoding/json"

	"telemed-chat-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IPublisherService pushes chat domain events onto the in-process bus.
// Live fan-out stays synchronous in the relay; only side effects
// (counters, NATS, audit) ride the bus.
type IPublisherService interface {
	PublishMessagePersisted(ctx context.Context, event dto.ChatMessagePersistedEvent) error
	PublishRoomJoined(ctx context.Context, event dto.ChatRoomJoinedEvent) error
}

type publisherService struct {
	messageTopic string
	joinTopic    string
	pubSub       *gochannel.GoChannel
}

func NewPublisherService(messageTopic, joinTopic string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		messageTopic: messageTopic,
		joinTopic:    joinTopic,
		pubSub:       pubSub,
	}
}

func (s *publisherService) PublishMessagePersisted(ctx context.Context, event dto.ChatMessagePersistedEvent) error {
	return s.publish(ctx, s.messageTopic, event)
}

func (s *publisherService) PublishRoomJoined(ctx context.Context, event dto.ChatRoomJoinedEvent) error {
	return s.publish(ctx, s.joinTopic, event)
}

func (s *publisherService) publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return s.pubSub.Publish(topic, msg)
}
