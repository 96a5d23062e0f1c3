package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/farmhand-id/platform_be/internal/messaging"
)

const (
	ActionGetConversations   = "getConversations"
	ActionCreateConversation = "createConversation"
	ActionSendMessage        = "sendMessage"
	ActionMarkAsRead         = "markAsRead"
)

// MessagingHandler exposes the gate over HTTP. It never talks to storage
// itself.
type MessagingHandler struct {
	Gate *messaging.Gate
}

func NewMessagingHandler(gate *messaging.Gate) *MessagingHandler {
	return &MessagingHandler{Gate: gate}
}

type dispatchReq struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type createConversationReq struct {
	FarmerID  string `json:"farmer_id"`
	LaborerID string `json:"laborer_id"`
}

type sendMessageReq struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
}

type markAsReadReq struct {
	MessageID string `json:"message_id"`
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return messaging.BadRequest("invalid data")
	}
	return nil
}

// Dispatch is the single action endpoint: {action, data}.
func (h *MessagingHandler) Dispatch(c *fiber.Ctx) error {
	user, err := authUser(c)
	if err != nil {
		return fail(c, err)
	}

	var req dispatchReq
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fail(c, messaging.BadRequest("invalid request"))
	}

	switch req.Action {
	case ActionGetConversations:
		return h.getConversations(c, user)

	case ActionCreateConversation:
		var data createConversationReq
		if err := decodeData(req.Data, &data); err != nil {
			return fail(c, err)
		}
		return h.createConversation(c, user, data)

	case ActionSendMessage:
		var data sendMessageReq
		if err := decodeData(req.Data, &data); err != nil {
			return fail(c, err)
		}
		return h.sendMessage(c, user, data)

	case ActionMarkAsRead:
		var data markAsReadReq
		if err := decodeData(req.Data, &data); err != nil {
			return fail(c, err)
		}
		return h.markAsRead(c, user, data.MessageID)

	default:
		return fail(c, messaging.BadRequest("unknown action"))
	}
}

func (h *MessagingHandler) getConversations(c *fiber.Ctx, user messaging.AuthenticatedUser) error {
	convs, err := h.Gate.GetConversations(c.UserContext(), user)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

func (h *MessagingHandler) createConversation(c *fiber.Ctx, user messaging.AuthenticatedUser, req createConversationReq) error {
	farmerID, err := parseID("farmer_id", req.FarmerID)
	if err != nil {
		return fail(c, err)
	}
	laborerID, err := parseID("laborer_id", req.LaborerID)
	if err != nil {
		return fail(c, err)
	}

	conv, created, err := h.Gate.CreateConversation(c.UserContext(), user, farmerID, laborerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"conversation": conv,
		"created":      created,
	})
}

func (h *MessagingHandler) sendMessage(c *fiber.Ctx, user messaging.AuthenticatedUser, req sendMessageReq) error {
	convID, err := parseID("conversation_id", req.ConversationID)
	if err != nil {
		return fail(c, err)
	}

	msg, err := h.Gate.SendMessage(c.UserContext(), user, convID, req.Content, req.MessageType)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": msg})
}

func (h *MessagingHandler) markAsRead(c *fiber.Ctx, user messaging.AuthenticatedUser, rawID string) error {
	msgID, err := parseID("message_id", rawID)
	if err != nil {
		return fail(c, err)
	}

	if _, err := h.Gate.MarkAsRead(c.UserContext(), user, msgID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetConversations handles GET /chat/conversations.
func (h *MessagingHandler) GetConversations(c *fiber.Ctx) error {
	user, err := authUser(c)
	if err != nil {
		return fail(c, err)
	}
	return h.getConversations(c, user)
}

// CreateOrGetConversation handles POST /chat/conversations.
func (h *MessagingHandler) CreateOrGetConversation(c *fiber.Ctx) error {
	user, err := authUser(c)
	if err != nil {
		return fail(c, err)
	}
	var req createConversationReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, messaging.BadRequest("invalid request"))
	}
	return h.createConversation(c, user, req)
}

// SendMessage handles POST /chat/conversations/:id/messages.
func (h *MessagingHandler) SendMessage(c *fiber.Ctx) error {
	user, err := authUser(c)
	if err != nil {
		return fail(c, err)
	}
	var req sendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, messaging.BadRequest("invalid request"))
	}
	req.ConversationID = c.Params("id")
	return h.sendMessage(c, user, req)
}

// MarkAsRead handles PATCH /chat/messages/:id/read.
func (h *MessagingHandler) MarkAsRead(c *fiber.Ctx) error {
	user, err := authUser(c)
	if err != nil {
		return fail(c, err)
	}
	return h.markAsRead(c, user, c.Params("id"))
}

// Register mounts the dispatch endpoint and its REST aliases on r.
func (h *MessagingHandler) Register(r fiber.Router) {
	r.Post("/messaging", h.Dispatch)

	chat := r.Group("/chat")
	chat.Get("/conversations", h.GetConversations)
	chat.Post("/conversations", h.CreateOrGetConversation)
	chat.Post("/conversations/:id/messages", h.SendMessage)
	chat.Patch("/messages/:id/read", h.MarkAsRead)
}
