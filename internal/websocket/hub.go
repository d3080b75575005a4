package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"telemed-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "chat_cluster_events"

// clusterEnvelope carries a room fan-out across instances via Redis
// pub/sub. OriginId lets an instance skip its own publications.
type clusterEnvelope struct {
	OriginId      string          `json:"origin_id"`
	AppointmentId string          `json:"appointment_id"`
	Payload       json.RawMessage `json:"payload"`
}

// Hub is the room registry: it tracks which live connections are
// subscribed to which appointment's message stream and fans persisted
// messages out to them. Membership changes only after authorization has
// already succeeded; the hub itself never authorizes.
type Hub struct {
	// rooms maps appointment id -> subscriber set. A room exists iff it
	// has at least one subscriber, so empty rooms cost nothing.
	rooms map[uuid.UUID]map[*Client]bool

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out. Optional.
	rdb *redis.Client

	instanceId string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

// Run consumes cluster fan-out events. Call as a goroutine; returns
// immediately when Redis is not configured.
func (h *Hub) Run() {
	if h.rdb == nil {
		return
	}
	h.subscribeToCluster()
}

// Join subscribes the client to the appointment's room. Idempotent: a
// repeated join to the same room is a no-op. A join to a different room
// replaces the previous membership, so a session is never in two rooms.
func (h *Hub) Join(c *Client, appointmentId uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := c.joinedRoom(); ok {
		if current == appointmentId {
			return
		}
		h.removeLocked(c, current)
	}

	subscribers, ok := h.rooms[appointmentId]
	if !ok {
		subscribers = make(map[*Client]bool)
		h.rooms[appointmentId] = subscribers
		h.logger.Info("Hub", "Room created", map[string]interface{}{"appointment_id": appointmentId})
	}
	subscribers[c] = true
	c.setJoinedRoom(&appointmentId)

	h.logger.Info("Hub", "Client joined room", map[string]interface{}{
		"appointment_id": appointmentId,
		"participant_id": c.participantId,
	})
}

// Leave removes the client from whatever room it is in. No-op when the
// client never joined. Must be called on disconnect.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := c.joinedRoom()
	if !ok {
		return
	}
	h.removeLocked(c, current)
}

func (h *Hub) removeLocked(c *Client, appointmentId uuid.UUID) {
	subscribers, ok := h.rooms[appointmentId]
	if !ok {
		return
	}
	delete(subscribers, c)
	c.setJoinedRoom(nil)
	if len(subscribers) == 0 {
		delete(h.rooms, appointmentId)
		h.logger.Info("Hub", "Room pruned", map[string]interface{}{"appointment_id": appointmentId})
	}
}

// Publish delivers an already-persisted message to every current
// subscriber of the room, the sender included. Each delivery is attempted
// independently; a dead subscriber is evicted without affecting the rest.
func (h *Hub) Publish(appointmentId uuid.UUID, payload []byte) {
	h.deliverLocal(appointmentId, payload)

	if h.rdb != nil {
		envelope, _ := json.Marshal(clusterEnvelope{
			OriginId:      h.instanceId,
			AppointmentId: appointmentId.String(),
			Payload:       payload,
		})
		if err := h.rdb.Publish(context.Background(), clusterChannel, envelope).Err(); err != nil {
			h.logger.Warn("Hub", "Cluster publish failed", map[string]interface{}{
				"appointment_id": appointmentId,
				"error":          err.Error(),
			})
		}
	}
}

func (h *Hub) deliverLocal(appointmentId uuid.UUID, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers, ok := h.rooms[appointmentId]
	if !ok {
		return
	}

	for client := range subscribers {
		if !client.trySend(payload) {
			// Send buffer full or connection gone: too slow to keep up.
			// Evict it; the backlog stays reachable via the history read.
			h.logger.Warn("Hub", "Subscriber not writable, evicting", map[string]interface{}{
				"appointment_id": appointmentId,
				"participant_id": client.participantId,
			})
			delete(subscribers, client)
			client.setJoinedRoom(nil)
			client.closeSend()
		}
	}

	if len(subscribers) == 0 {
		delete(h.rooms, appointmentId)
	}
}

func (h *Hub) subscribeToCluster() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope clusterEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			h.logger.Warn("Hub", "Malformed cluster event", map[string]interface{}{"error": err.Error()})
			continue
		}
		if envelope.OriginId == h.instanceId {
			continue
		}

		appointmentId, err := uuid.Parse(envelope.AppointmentId)
		if err != nil {
			continue
		}
		h.deliverLocal(appointmentId, envelope.Payload)
	}
}

// RoomCount returns the number of rooms with at least one subscriber.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// SubscriberCount returns the size of a room's subscriber set.
func (h *Hub) SubscriberCount(appointmentId uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[appointmentId])
}
