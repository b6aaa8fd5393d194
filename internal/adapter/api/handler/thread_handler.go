package handler

import (
	"github.com/labstack/echo/v4"

	"socialmall/internal/adapter/api/middleware"
	"socialmall/internal/usecase"
	"socialmall/pkg/response"
)

type ThreadHandler struct {
	threadUseCase *usecase.ThreadUseCase
}

func NewThreadHandler(threadUseCase *usecase.ThreadUseCase) *ThreadHandler {
	return &ThreadHandler{
		threadUseCase: threadUseCase,
	}
}

type addCommentRequest struct {
	Text     string `json:"text" validate:"required,max=2000"`
	ParentID string `json:"parent_id"`
}

func (h *ThreadHandler) GetPost(c echo.Context) error {
	post, err := h.threadUseCase.Thread(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, post)
}

func (h *ThreadHandler) AddComment(c echo.Context) error {
	var req addCommentRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.threadUseCase.AddComment(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"), req.Text, req.ParentID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Accepted(c, result)
}

func (h *ThreadHandler) DeleteComment(c echo.Context) error {
	result, err := h.threadUseCase.DeleteComment(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"), c.Param("commentId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Accepted(c, result)
}

func (h *ThreadHandler) ToggleLike(c echo.Context) error {
	result, err := h.threadUseCase.ToggleLike(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Accepted(c, result)
}

func (h *ThreadHandler) ToggleCommentLike(c echo.Context) error {
	result, err := h.threadUseCase.ToggleCommentLike(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"), c.Param("commentId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Accepted(c, result)
}

func (h *ThreadHandler) GetShopFeed(c echo.Context) error {
	posts, err := h.threadUseCase.ShopFeed(c.Request().Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, posts)
}
