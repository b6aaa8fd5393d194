package handler

import (
	"socialmall/internal/usecase"
)

var (
	inboxHandler  *InboxHandler
	chatHandler   *ChatHandler
	threadHandler *ThreadHandler
)

func Setup(
	inboxUseCase *usecase.InboxUseCase,
	chatUseCase *usecase.ChatUseCase,
	threadUseCase *usecase.ThreadUseCase,
) {
	inboxHandler = NewInboxHandler(inboxUseCase)
	chatHandler = NewChatHandler(chatUseCase)
	threadHandler = NewThreadHandler(threadUseCase)
}

func GetInboxHandler() *InboxHandler {
	return inboxHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetThreadHandler() *ThreadHandler {
	return threadHandler
}
