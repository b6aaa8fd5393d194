package handler

import (
	"github.com/labstack/echo/v4"

	"socialmall/internal/adapter/api/middleware"
	"socialmall/internal/domain/normalize"
	"socialmall/internal/usecase"
	"socialmall/pkg/response"
)

type InboxHandler struct {
	inboxUseCase *usecase.InboxUseCase
}

func NewInboxHandler(inboxUseCase *usecase.InboxUseCase) *InboxHandler {
	return &InboxHandler{
		inboxUseCase: inboxUseCase,
	}
}

type inboxQuery struct {
	Filter string `query:"filter" validate:"omitempty,oneof=all friends shop user-asking"`
	Cached bool   `query:"cached"`
}

// GetInbox loads the inbox, or with ?cached=true re-renders the last loaded
// one through a different filter without another backend round trip.
func (h *InboxHandler) GetInbox(c echo.Context) error {
	var q inboxQuery
	if err := c.Bind(&q); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&q); err != nil {
		return response.Error(c, err)
	}

	filter := normalize.InboxFilter(q.Filter)
	if filter == "" {
		filter = normalize.FilterAll
	}

	me := middleware.CurrentUser(c)
	if q.Cached {
		view, err := h.inboxUseCase.View(me, filter)
		if err != nil {
			return response.Error(c, err)
		}
		return response.Success(c, view)
	}

	view, err := h.inboxUseCase.Load(c.Request().Context(), me, filter)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, view)
}
