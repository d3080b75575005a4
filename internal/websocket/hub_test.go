package websocket

import (
	"testing"
	"time"

	"telemed-chat-be/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubClient(hub *Hub) *Client {
	return NewClient(hub, nil, uuid.New(), nil, nil, time.Second, testutil.NopLogger{})
}

func receiveFrame(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload := <-c.send:
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound frame")
		return nil
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected outbound frame: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubJoinIsIdempotent(t *testing.T) {
	hub := NewHub(nil, testutil.NopLogger{})
	client := newHubClient(hub)
	appointmentId := uuid.New()

	hub.Join(client, appointmentId)
	hub.Join(client, appointmentId)

	assert.Equal(t, 1, hub.RoomCount())
	assert.Equal(t, 1, hub.SubscriberCount(appointmentId))

	joined, ok := client.joinedRoom()
	require.True(t, ok)
	assert.Equal(t, appointmentId, joined)
}

func TestHubJoinReplacesPreviousRoom(t *testing.T) {
	hub := NewHub(nil, testutil.NopLogger{})
	client := newHubClient(hub)
	first, second := uuid.New(), uuid.New()

	hub.Join(client, first)
	hub.Join(client, second)

	assert.Equal(t, 0, hub.SubscriberCount(first))
	assert.Equal(t, 1, hub.SubscriberCount(second))
	assert.Equal(t, 1, hub.RoomCount(), "the abandoned room must be pruned")

	joined, ok := client.joinedRoom()
	require.True(t, ok)
	assert.Equal(t, second, joined)
}

func TestHubLeavePrunesEmptyRoom(t *testing.T) {
	hub := NewHub(nil, testutil.NopLogger{})
	first := newHubClient(hub)
	second := newHubClient(hub)
	appointmentId := uuid.New()

	hub.Join(first, appointmentId)
	hub.Join(second, appointmentId)

	hub.Leave(first)
	assert.Equal(t, 1, hub.SubscriberCount(appointmentId))

	hub.Leave(second)
	assert.Equal(t, 0, hub.RoomCount())

	// Leave without membership is a no-op.
	hub.Leave(second)
	assert.Equal(t, 0, hub.RoomCount())
}

func TestHubPublishReachesEverySubscriberIncludingSender(t *testing.T) {
	hub := NewHub(nil, testutil.NopLogger{})
	sender := newHubClient(hub)
	receiver := newHubClient(hub)
	appointmentId := uuid.New()

	hub.Join(sender, appointmentId)
	hub.Join(receiver, appointmentId)

	payload := []byte(`{"type":"receiveMessage"}`)
	hub.Publish(appointmentId, payload)

	assert.Equal(t, payload, receiveFrame(t, sender))
	assert.Equal(t, payload, receiveFrame(t, receiver))
}

func TestHubPublishToUnknownRoomIsNoop(t *testing.T) {
	hub := NewHub(nil, testutil.NopLogger{})
	bystander := newHubClient(hub)
	hub.Join(bystander, uuid.New())

	hub.Publish(uuid.New(), []byte("x"))
	assertNoFrame(t, bystander)
}

func TestHubEvictsUnwritableSubscriber(t *testing.T) {
	hub := NewHub(nil, testutil.NopLogger{})
	dead := newHubClient(hub)
	healthy := newHubClient(hub)
	appointmentId := uuid.New()

	hub.Join(dead, appointmentId)
	hub.Join(healthy, appointmentId)

	// A closed send channel models a connection whose write side is gone.
	dead.closeSend()

	payload := []byte(`{"type":"receiveMessage"}`)
	hub.Publish(appointmentId, payload)

	assert.Equal(t, payload, receiveFrame(t, healthy), "healthy subscriber is unaffected")
	assert.Equal(t, 1, hub.SubscriberCount(appointmentId))

	_, stillJoined := dead.joinedRoom()
	assert.False(t, stillJoined, "evicted session is no longer in the room")
}

func TestHubEvictsSlowSubscriber(t *testing.T) {
	hub := NewHub(nil, testutil.NopLogger{})
	slow := newHubClient(hub)
	healthy := newHubClient(hub)
	appointmentId := uuid.New()

	hub.Join(slow, appointmentId)
	hub.Join(healthy, appointmentId)

	// Fill the slow subscriber's outbound buffer so the next delivery
	// cannot be queued.
	for slow.trySend([]byte("backlog")) {
	}

	payload := []byte(`{"type":"receiveMessage"}`)
	hub.Publish(appointmentId, payload)

	assert.Equal(t, payload, receiveFrame(t, healthy))
	assert.Equal(t, 1, hub.SubscriberCount(appointmentId))
	_, stillJoined := slow.joinedRoom()
	assert.False(t, stillJoined)
}
