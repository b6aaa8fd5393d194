package handler

import (
	"github.com/labstack/echo/v4"

	"socialmall/internal/adapter/api/middleware"
	"socialmall/internal/usecase"
	"socialmall/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createConversationRequest struct {
	ParticipantID   string `json:"participant_id" validate:"required"`
	ParticipantType string `json:"participant_type" validate:"omitempty,oneof=user shop"`
	ProductID       string `json:"product_id"`
	Topic           string `json:"topic" validate:"omitempty,oneof=general product ask-buyer"`
}

type attachmentRequest struct {
	URL  string `json:"url" validate:"required"`
	Type string `json:"type"`
	Name string `json:"name" validate:"max=255"`
}

type sendMessageRequest struct {
	Text        string              `json:"text" validate:"required_without=Attachments,max=4000"`
	Attachments []attachmentRequest `json:"attachments" validate:"max=10,dive"`
}

func (h *ChatHandler) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	conv, err := h.chatUseCase.CreateConversation(c.Request().Context(), middleware.CurrentUser(c), usecase.CreateConversationInput{
		ParticipantID:   req.ParticipantID,
		ParticipantType: req.ParticipantType,
		ProductID:       req.ProductID,
		Topic:           req.Topic,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, conv)
}

func (h *ChatHandler) OpenConversation(c echo.Context) error {
	view, err := h.chatUseCase.Open(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, view)
}

// GetMessages returns the local transcript of the open conversation,
// including messages still being sent.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	view, err := h.chatUseCase.Messages(middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, view)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	in := usecase.SendMessageInput{Text: req.Text}
	for _, a := range req.Attachments {
		in.Attachments = append(in.Attachments, usecase.AttachmentInput{URL: a.URL, Type: a.Type, Name: a.Name})
	}

	result, err := h.chatUseCase.Send(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"), in)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Accepted(c, result)
}
