package handler

import (
	"time"

	"telemed-chat-be/internal/pkg/logger"
	"telemed-chat-be/internal/service"
	internalWS "telemed-chat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ChatWsHandler authenticates the websocket handshake and hands the
// connection to the relay. Credential failure here refuses the upgrade
// outright; after the upgrade, join/send errors are inline events and the
// connection stays open.
type ChatWsHandler struct {
	hub         *internalWS.Hub
	chat        service.IChatService
	auth        service.IAppointmentAuthService
	jwtSecret   string
	joinTimeout time.Duration
	logger      logger.ILogger
}

func NewChatWsHandler(
	hub *internalWS.Hub,
	chat service.IChatService,
	auth service.IAppointmentAuthService,
	jwtSecret string,
	joinTimeout time.Duration,
	log logger.ILogger,
) *ChatWsHandler {
	return &ChatWsHandler{
		hub:         hub,
		chat:        chat,
		auth:        auth,
		jwtSecret:   jwtSecret,
		joinTimeout: joinTimeout,
		logger:      log,
	}
}

// ServeWs handles websocket requests from patient and doctor clients.
func (h *ChatWsHandler) ServeWs(c *fiber.Ctx) error {
	// Token source priority: query param (browser websocket clients cannot
	// set headers), then Authorization header.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Missing token (query 'token' or Authorization header)"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("ChatWsHandler", "Invalid token in handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid token claims"})
	}

	participantIdStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Token missing user_id"})
	}

	participantId, err := uuid.Parse(participantIdStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid participant id in token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("ChatWsHandler", "Relay session started", map[string]interface{}{"participant_id": participantId})
			client := internalWS.NewClient(h.hub, conn, participantId, h.chat, h.auth, h.joinTimeout, h.logger)
			internalWS.ServeWs(client)
			h.logger.Info("ChatWsHandler", "Relay session ended", map[string]interface{}{"participant_id": participantId})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the websocket endpoint.
func (h *ChatWsHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/chat", h.ServeWs)
}
