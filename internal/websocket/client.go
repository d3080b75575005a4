package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"telemed-chat-be/internal/dto"
	"telemed-chat-be/internal/pkg/apperror"
	"telemed-chat-be/internal/pkg/logger"
	"telemed-chat-be/internal/pkg/serverutils"
	"telemed-chat-be/internal/service"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	sendTimeout = 10 * time.Second
)

// Client is one relay session: the server-side state of a single live
// connection. The participant identity is fixed at handshake time and the
// session can be joined to at most one appointment room.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	participantId uuid.UUID

	chat        service.IChatService
	auth        service.IAppointmentAuthService
	joinTimeout time.Duration
	logger      logger.ILogger

	// Buffered channel of outbound frames. Guarded by sendMu so nothing
	// writes to it after close.
	send   chan []byte
	sendMu sync.Mutex
	closed bool

	mu            sync.Mutex
	appointmentId *uuid.UUID
}

func NewClient(
	hub *Hub,
	conn *websocket.Conn,
	participantId uuid.UUID,
	chat service.IChatService,
	auth service.IAppointmentAuthService,
	joinTimeout time.Duration,
	log logger.ILogger,
) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		participantId: participantId,
		chat:          chat,
		auth:          auth,
		joinTimeout:   joinTimeout,
		logger:        log,
		send:          make(chan []byte, 256),
	}
}

func (c *Client) joinedRoom() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.appointmentId == nil {
		return uuid.Nil, false
	}
	return *c.appointmentId, true
}

func (c *Client) setJoinedRoom(appointmentId *uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appointmentId = appointmentId
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// trySend queues an outbound frame without blocking. Returns false when
// the buffer is full or the channel is already closed.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) emit(frame dto.ServerFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	// A dropped local frame is fine; a full buffer means the hub will
	// evict this connection on the next publish anyway.
	c.trySend(data)
}

func (c *Client) emitError(eventType, message string) {
	c.emit(dto.ServerFrame{Type: eventType, Message: message})
}

// handleInbound drives the session state machine for one client frame.
func (c *Client) handleInbound(raw []byte) {
	var frame dto.ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.emitError(dto.EventError, "Malformed frame")
		return
	}
	if err := serverutils.ValidateRequest(frame); err != nil {
		c.emitError(dto.EventError, "Malformed frame")
		return
	}

	switch frame.Type {
	case dto.EventJoinRoom:
		c.handleJoin(frame)
	case dto.EventSendMessage:
		c.handleSend(frame)
	default:
		c.emitError(dto.EventError, "Unknown event type")
	}
}

func (c *Client) handleJoin(frame dto.ClientFrame) {
	appointmentId, err := uuid.Parse(frame.AppointmentId)
	if err != nil {
		c.emitError(dto.EventJoinError, "Invalid appointment id")
		return
	}

	// Bounded lookup: a join that times out on the appointment store fails
	// cleanly and leaves the session authenticated but not joined.
	ctx, cancel := context.WithTimeout(context.Background(), c.joinTimeout)
	defer cancel()

	if _, err := c.auth.Authorize(ctx, appointmentId, c.participantId); err != nil {
		reason := "Server error while joining room"
		if appErr := apperror.As(err); appErr != nil {
			reason = appErr.Message
		}
		c.logger.Warn("Relay", "Join denied", map[string]interface{}{
			"appointment_id": appointmentId,
			"participant_id": c.participantId,
			"reason":         reason,
		})
		c.emitError(dto.EventJoinError, reason)
		return
	}

	c.hub.Join(c, appointmentId)
	c.emit(dto.ServerFrame{Type: dto.EventJoinedRoom, AppointmentId: appointmentId.String()})
	c.chat.RecordJoin(ctx, appointmentId, c.participantId)
}

func (c *Client) handleSend(frame dto.ClientFrame) {
	appointmentId, err := uuid.Parse(frame.AppointmentId)
	if err != nil {
		c.emitError(dto.EventSendError, "Invalid appointment id")
		return
	}

	joined, ok := c.joinedRoom()
	if !ok || joined != appointmentId {
		notJoined := apperror.NewNotJoined("You are not currently in this chat room. Please rejoin.")
		c.emitError(dto.EventSendError, notJoined.Message)
		return
	}

	// Deliberately not tied to the connection: a disconnect mid-send must
	// not cancel the append, and remaining subscribers still get the
	// message.
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	// Persist-then-publish: the delivery callback runs inside the store's
	// per-appointment critical section, so every message observed live is
	// already durable and frames arrive in persistence order even when
	// both parties send at once.
	_, err = c.chat.Send(ctx, appointmentId, c.participantId, frame.Body, func(persisted *dto.ChatMessageResponse) {
		payload, err := json.Marshal(dto.ServerFrame{Type: dto.EventReceiveMessage, Data: persisted})
		if err != nil {
			return
		}
		c.hub.Publish(appointmentId, payload)
	})
	if err != nil {
		reason := "Failed to send message due to server error"
		if appErr := apperror.As(err); appErr != nil {
			reason = appErr.Message
		}
		c.emitError(dto.EventSendError, reason)
	}
}

// readPump pumps frames from the websocket connection into the session
// state machine. Runs in the connection handler goroutine.
func (c *Client) readPump() {
	defer func() {
		c.hub.Leave(c)
		c.closeSend()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Relay", "Unexpected close", map[string]interface{}{
					"participant_id": c.participantId,
					"error":          err.Error(),
				})
			}
			break
		}
		c.handleInbound(raw)
	}
}

// writePump pumps frames from the send channel to the websocket
// connection and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(payload)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
