package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"telemed-chat-be/internal/dto"
	"telemed-chat-be/internal/repository/memory"
	"telemed-chat-be/internal/service"
	"telemed-chat-be/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relayFixture struct {
	store     *testutil.InMemoryStore
	publisher *testutil.MockPublisher
	hub       *Hub

	patient *Client
	doctor  *Client

	appointmentId uuid.UUID
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()

	store := testutil.NewInMemoryStore()
	patientId, doctorId := uuid.New(), uuid.New()
	appointment := store.AddAppointment(patientId, doctorId, false)

	auth := service.NewAppointmentAuthService(store, memory.NewAuthorizationCache(time.Minute), true)
	publisher := &testutil.MockPublisher{}
	chat := service.NewChatService(store, auth, publisher, nil, testutil.NopLogger{})
	hub := NewHub(nil, testutil.NopLogger{})

	return &relayFixture{
		store:         store,
		publisher:     publisher,
		hub:           hub,
		patient:       NewClient(hub, nil, patientId, chat, auth, time.Second, testutil.NopLogger{}),
		doctor:        NewClient(hub, nil, doctorId, chat, auth, time.Second, testutil.NopLogger{}),
		appointmentId: appointment.Id,
	}
}

func (f *relayFixture) inbound(c *Client, frameType, appointmentId, body string) {
	frame := dto.ClientFrame{Type: frameType, AppointmentId: appointmentId, Body: body}
	raw, _ := json.Marshal(frame)
	c.handleInbound(raw)
}

func decodeFrame(t *testing.T, c *Client) dto.ServerFrame {
	t.Helper()
	var frame dto.ServerFrame
	require.NoError(t, json.Unmarshal(receiveFrame(t, c), &frame))
	return frame
}

func TestRelayJoinAcksAndSubscribes(t *testing.T) {
	f := newRelayFixture(t)

	f.inbound(f.patient, dto.EventJoinRoom, f.appointmentId.String(), "")

	frame := decodeFrame(t, f.patient)
	assert.Equal(t, dto.EventJoinedRoom, frame.Type)
	assert.Equal(t, f.appointmentId.String(), frame.AppointmentId)

	joined, ok := f.patient.joinedRoom()
	require.True(t, ok)
	assert.Equal(t, f.appointmentId, joined)
}

func TestRelayJoinRejectsMalformedAppointmentId(t *testing.T) {
	f := newRelayFixture(t)

	f.inbound(f.patient, dto.EventJoinRoom, "not-a-uuid", "")

	frame := decodeFrame(t, f.patient)
	assert.Equal(t, dto.EventJoinError, frame.Type)
	assert.Equal(t, "Invalid appointment id", frame.Message)

	_, ok := f.patient.joinedRoom()
	assert.False(t, ok)
}

func TestRelayJoinDeniedKeepsSessionUsable(t *testing.T) {
	f := newRelayFixture(t)
	stranger := NewClient(f.hub, nil, uuid.New(), f.patient.chat, f.patient.auth, time.Second, testutil.NopLogger{})

	f.inbound(stranger, dto.EventJoinRoom, f.appointmentId.String(), "")

	frame := decodeFrame(t, stranger)
	assert.Equal(t, dto.EventJoinError, frame.Type)
	assert.Equal(t, "Not authorized for this chat room", frame.Message)
	assert.Equal(t, 0, f.hub.SubscriberCount(f.appointmentId))

	// The denial does not tear the session down; a later join to an
	// appointment the participant does belong to still works.
	own := f.store.AddAppointment(stranger.participantId, uuid.New(), false)
	f.inbound(stranger, dto.EventJoinRoom, own.Id.String(), "")
	frame = decodeFrame(t, stranger)
	assert.Equal(t, dto.EventJoinedRoom, frame.Type)
}

func TestRelayJoinUnknownAppointment(t *testing.T) {
	f := newRelayFixture(t)

	f.inbound(f.patient, dto.EventJoinRoom, uuid.NewString(), "")

	frame := decodeFrame(t, f.patient)
	assert.Equal(t, dto.EventJoinError, frame.Type)
	assert.Equal(t, "Appointment not found", frame.Message)
}

func TestRelaySendBeforeJoin(t *testing.T) {
	f := newRelayFixture(t)

	f.inbound(f.patient, dto.EventSendMessage, f.appointmentId.String(), "hello")

	frame := decodeFrame(t, f.patient)
	assert.Equal(t, dto.EventSendError, frame.Type)
	assert.Equal(t, "You are not currently in this chat room. Please rejoin.", frame.Message)

	assert.Equal(t, 0, f.store.MessageCount(f.appointmentId), "unjoined send must not persist")
}

func TestRelaySendToDifferentRoomThanJoined(t *testing.T) {
	f := newRelayFixture(t)
	other := f.store.AddAppointment(f.patient.participantId, uuid.New(), false)

	f.inbound(f.patient, dto.EventJoinRoom, f.appointmentId.String(), "")
	decodeFrame(t, f.patient) // join ack

	f.inbound(f.patient, dto.EventSendMessage, other.Id.String(), "hello")

	frame := decodeFrame(t, f.patient)
	assert.Equal(t, dto.EventSendError, frame.Type)
	assert.Equal(t, 0, f.store.MessageCount(other.Id))
}

func TestRelaySendPersistsThenFansOutToBothParties(t *testing.T) {
	f := newRelayFixture(t)

	f.inbound(f.patient, dto.EventJoinRoom, f.appointmentId.String(), "")
	decodeFrame(t, f.patient)
	f.inbound(f.doctor, dto.EventJoinRoom, f.appointmentId.String(), "")
	decodeFrame(t, f.doctor)

	f.inbound(f.patient, dto.EventSendMessage, f.appointmentId.String(), "how are you feeling today?")

	require.Equal(t, 1, f.store.MessageCount(f.appointmentId))

	for _, c := range []*Client{f.patient, f.doctor} {
		frame := decodeFrame(t, c)
		assert.Equal(t, dto.EventReceiveMessage, frame.Type)
		require.NotNil(t, frame.Data)
		assert.Equal(t, "how are you feeling today?", frame.Data.Body)
		assert.Equal(t, f.patient.participantId, frame.Data.SenderId)
		assert.Equal(t, f.appointmentId, frame.Data.AppointmentId)
		assert.NotEqual(t, uuid.Nil, frame.Data.Id)
	}
}

func TestRelaySendEmptyBodyRejected(t *testing.T) {
	f := newRelayFixture(t)

	f.inbound(f.patient, dto.EventJoinRoom, f.appointmentId.String(), "")
	decodeFrame(t, f.patient)

	f.inbound(f.patient, dto.EventSendMessage, f.appointmentId.String(), "   ")

	frame := decodeFrame(t, f.patient)
	assert.Equal(t, dto.EventSendError, frame.Type)
	assert.Equal(t, "Message body must not be empty", frame.Message)
	assert.Equal(t, 0, f.store.MessageCount(f.appointmentId))
}

func TestRelaySendStoreFailureSurfacesSendError(t *testing.T) {
	f := newRelayFixture(t)

	f.inbound(f.patient, dto.EventJoinRoom, f.appointmentId.String(), "")
	decodeFrame(t, f.patient)
	f.inbound(f.doctor, dto.EventJoinRoom, f.appointmentId.String(), "")
	decodeFrame(t, f.doctor)

	f.store.FailMessageCreate = true
	f.inbound(f.patient, dto.EventSendMessage, f.appointmentId.String(), "hello")

	frame := decodeFrame(t, f.patient)
	assert.Equal(t, dto.EventSendError, frame.Type)

	// Nothing was persisted, so nothing may be fanned out.
	assertNoFrame(t, f.doctor)
}

func TestRelayRejectsMalformedAndUnknownFrames(t *testing.T) {
	f := newRelayFixture(t)

	f.patient.handleInbound([]byte("{not json"))
	frame := decodeFrame(t, f.patient)
	assert.Equal(t, dto.EventError, frame.Type)
	assert.Equal(t, "Malformed frame", frame.Message)

	f.patient.handleInbound([]byte(`{"body":"no type"}`))
	frame = decodeFrame(t, f.patient)
	assert.Equal(t, dto.EventError, frame.Type)
	assert.Equal(t, "Malformed frame", frame.Message)

	f.inbound(f.patient, "typing", f.appointmentId.String(), "")
	frame = decodeFrame(t, f.patient)
	assert.Equal(t, dto.EventError, frame.Type)
	assert.Equal(t, "Unknown event type", frame.Message)
}

func TestRelayRejoinSameRoomIsIdempotent(t *testing.T) {
	f := newRelayFixture(t)

	for i := 0; i < 2; i++ {
		f.inbound(f.patient, dto.EventJoinRoom, f.appointmentId.String(), "")
		frame := decodeFrame(t, f.patient)
		require.Equal(t, dto.EventJoinedRoom, frame.Type, fmt.Sprintf("join attempt %d", i+1))
	}
	assert.Equal(t, 1, f.hub.SubscriberCount(f.appointmentId))
}

func TestRelayJoinEmitsRoomJoinedEvent(t *testing.T) {
	f := newRelayFixture(t)

	f.inbound(f.patient, dto.EventJoinRoom, f.appointmentId.String(), "")
	require.Equal(t, dto.EventJoinedRoom, decodeFrame(t, f.patient).Type)

	require.Equal(t, 1, f.publisher.JoinEventCount())
	event := f.publisher.JoinEvents[0]
	assert.Equal(t, f.appointmentId, event.AppointmentId)
	assert.Equal(t, f.patient.participantId, event.ParticipantId)

	// A denied join emits nothing.
	stranger := NewClient(f.hub, nil, uuid.New(), f.patient.chat, f.patient.auth, time.Second, testutil.NopLogger{})
	f.inbound(stranger, dto.EventJoinRoom, f.appointmentId.String(), "")
	require.Equal(t, dto.EventJoinError, decodeFrame(t, stranger).Type)
	assert.Equal(t, 1, f.publisher.JoinEventCount())
}

func TestRelayConcurrentSendsDeliverInPersistenceOrder(t *testing.T) {
	f := newRelayFixture(t)

	f.inbound(f.patient, dto.EventJoinRoom, f.appointmentId.String(), "")
	decodeFrame(t, f.patient)
	f.inbound(f.doctor, dto.EventJoinRoom, f.appointmentId.String(), "")
	decodeFrame(t, f.doctor)

	const perParty = 8
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < perParty; i++ {
			f.inbound(f.patient, dto.EventSendMessage, f.appointmentId.String(), fmt.Sprintf("patient %d", i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < perParty; i++ {
			f.inbound(f.doctor, dto.EventSendMessage, f.appointmentId.String(), fmt.Sprintf("doctor %d", i))
		}
	}()
	wg.Wait()

	stored, err := f.store.NewUnitOfWork(context.Background()).ChatMessageRepository().FindByAppointment(context.Background(), f.appointmentId)
	require.NoError(t, err)
	require.Len(t, stored, 2*perParty)

	// The doctor must observe every live frame in exactly the order the
	// store accepted the messages, regardless of sender interleaving.
	for _, want := range stored {
		frame := decodeFrame(t, f.doctor)
		require.Equal(t, dto.EventReceiveMessage, frame.Type)
		require.NotNil(t, frame.Data)
		assert.Equal(t, want.Id, frame.Data.Id, "live delivery order must match persistence order")
	}
}

// delayedAuth wraps an authorization service with a controllable delay
// that respects context cancellation, modelling a slow appointment store.
type delayedAuth struct {
	inner service.IAppointmentAuthService
	delay time.Duration
}

func (a *delayedAuth) wait(ctx context.Context) error {
	if a.delay == 0 {
		return nil
	}
	select {
	case <-time.After(a.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *delayedAuth) Authorize(ctx context.Context, appointmentId, participantId uuid.UUID) (*dto.AppointmentSummary, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	return a.inner.Authorize(ctx, appointmentId, participantId)
}

func (a *delayedAuth) Resolve(ctx context.Context, appointmentId uuid.UUID) (*dto.AppointmentSummary, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	return a.inner.Resolve(ctx, appointmentId)
}

func TestRelayJoinTimeoutKeepsSessionAuthenticated(t *testing.T) {
	store := testutil.NewInMemoryStore()
	patientId := uuid.New()
	appointment := store.AddAppointment(patientId, uuid.New(), false)

	auth := &delayedAuth{
		inner: service.NewAppointmentAuthService(store, memory.NewAuthorizationCache(time.Minute), true),
		delay: 500 * time.Millisecond,
	}
	chat := service.NewChatService(store, auth, nil, nil, testutil.NopLogger{})
	hub := NewHub(nil, testutil.NopLogger{})
	patient := NewClient(hub, nil, patientId, chat, auth, 20*time.Millisecond, testutil.NopLogger{})

	raw, _ := json.Marshal(dto.ClientFrame{Type: dto.EventJoinRoom, AppointmentId: appointment.Id.String()})
	patient.handleInbound(raw)

	frame := decodeFrame(t, patient)
	assert.Equal(t, dto.EventJoinError, frame.Type)
	assert.Equal(t, "Server error while joining room", frame.Message)

	_, joined := patient.joinedRoom()
	assert.False(t, joined, "a timed-out join must not subscribe the session")
	assert.Equal(t, 0, hub.SubscriberCount(appointment.Id))

	// The session is still authenticated: once the oracle responds in
	// time, the same connection joins normally.
	auth.delay = 0
	patient.handleInbound(raw)
	frame = decodeFrame(t, patient)
	assert.Equal(t, dto.EventJoinedRoom, frame.Type)
	assert.Equal(t, 1, hub.SubscriberCount(appointment.Id))
}
