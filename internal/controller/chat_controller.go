package controller

import (
	"telemed-chat-be/internal/dto"
	"telemed-chat-be/internal/pkg/apperror"
	"telemed-chat-be/internal/pkg/serverutils"
	"telemed-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	GetHistory(ctx *fiber.Ctx) error
	GetUnreadCount(ctx *fiber.Ctx) error
	MarkRead(ctx *fiber.Ctx) error
}

type chatController struct {
	service   service.IChatService
	jwtSecret string
}

func NewChatController(service service.IChatService, jwtSecret string) IChatController {
	return &chatController{service: service, jwtSecret: jwtSecret}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chats")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get(":appointmentId", c.GetHistory)
	h.Get(":appointmentId/unread", c.GetUnreadCount)
	h.Post(":appointmentId/read", c.MarkRead)
}

// requestIds pulls the authenticated participant and the appointment id
// from the request. A malformed appointment id is a 400, checked before
// any store access.
func requestIds(ctx *fiber.Ctx) (appointmentId, participantId uuid.UUID, err error) {
	participantId, err = uuid.Parse(ctx.Locals("user_id").(string))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperror.NewUnauthorized("Invalid participant id in token")
	}

	appointmentId, err = uuid.Parse(ctx.Params("appointmentId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperror.NewValidation("Invalid appointment id")
	}
	return appointmentId, participantId, nil
}

// GetHistory returns the full persisted backlog for the appointment, in
// ascending send order. Stateless and safely retryable; a client may call
// it before any live connection exists.
func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	appointmentId, participantId, err := requestIds(ctx)
	if err != nil {
		return err
	}

	messages, err := c.service.History(ctx.Context(), appointmentId, participantId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", messages))
}

func (c *chatController) GetUnreadCount(ctx *fiber.Ctx) error {
	appointmentId, participantId, err := requestIds(ctx)
	if err != nil {
		return err
	}

	count, err := c.service.UnreadCount(ctx.Context(), appointmentId, participantId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get unread count", dto.UnreadCountResponse{
		AppointmentId: appointmentId,
		Count:         count,
	}))
}

func (c *chatController) MarkRead(ctx *fiber.Ctx) error {
	appointmentId, participantId, err := requestIds(ctx)
	if err != nil {
		return err
	}

	if err := c.service.MarkRead(ctx.Context(), appointmentId, participantId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success mark chat as read", nil))
}
