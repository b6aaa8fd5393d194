package repository

import (
	"context"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

// Reads return the platform's records as they are stored; normalization
// happens in the caller.
type ConversationRepository interface {
	ListByParticipant(ctx context.Context, me entity.ID, limit int) (raw.Value, error)
	GetByID(ctx context.Context, id entity.ID) (raw.Value, error)
	Messages(ctx context.Context, conversationID entity.ID, limit int) (raw.Value, error)

	// Create returns the existing conversation when one already links the
	// same participants and product.
	Create(ctx context.Context, in CreateConversationInput) (raw.Value, error)
	SendMessage(ctx context.Context, in SendMessageInput) (raw.Value, error)
	MarkRead(ctx context.Context, conversationID, me entity.ID) error
}

type CreateConversationInput struct {
	Me        entity.ID
	Other     entity.EntityRef
	Topic     entity.Topic
	ProductID entity.ID
}

type SendMessageInput struct {
	ConversationID entity.ID
	Sender         entity.ID
	LocalID        string
	Text           string
	Attachments    []entity.Attachment
}
