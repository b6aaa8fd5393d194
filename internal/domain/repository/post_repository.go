package repository

import (
	"context"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

type PostRepository interface {
	GetByID(ctx context.Context, id entity.ID) (raw.Value, error)
	Comments(ctx context.Context, postID entity.ID) (raw.Value, error)
	ShopFeed(ctx context.Context, shopID entity.ID, limit int) (raw.Value, error)

	AddComment(ctx context.Context, in AddCommentInput) (raw.Value, error)
	DeleteComment(ctx context.Context, postID entity.ID, commentID string, me entity.ID) error

	// ToggleLike flips me's like and returns the post's like state after the
	// change, e.g. {"liked": true, "likes": [...]}.
	ToggleLike(ctx context.Context, postID, me entity.ID) (raw.Value, error)
	ToggleCommentLike(ctx context.Context, postID entity.ID, commentID string, me entity.ID) (raw.Value, error)
}

type AddCommentInput struct {
	PostID   entity.ID
	Author   entity.ID
	LocalID  string
	Text     string
	ParentID string
}
