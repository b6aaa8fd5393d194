package usecase

import (
	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/normalize"
)

// Views handed to callers are copies; the session keeps mutating its own
// state after the lock is released.

type InboxItem struct {
	entity.Conversation
	Category normalize.Category `json:"category"`
}

type InboxView struct {
	Filter        normalize.InboxFilter    `json:"filter"`
	Conversations []InboxItem              `json:"conversations"`
	Counts        normalize.CategoryCounts `json:"counts"`
}

type MessageItem struct {
	entity.Message
	Badge normalize.Badge `json:"badge"`
}

type ChatView struct {
	Conversation entity.Conversation `json:"conversation"`
	Messages     []MessageItem       `json:"messages"`
}

type SendResult struct {
	Edit    entity.OptimisticEdit `json:"edit"`
	Message entity.Message        `json:"message"`
}

type PostEditResult struct {
	Edit entity.OptimisticEdit `json:"edit"`
	Post *entity.Post          `json:"post"`
}

func renderInbox(sess *Session, filter normalize.InboxFilter) *InboxView {
	visible := normalize.Filter(sess.inbox, filter, sess.friends)
	items := make([]InboxItem, 0, len(visible))
	for _, c := range visible {
		items = append(items, InboxItem{
			Conversation: c,
			Category:     normalize.ConversationCategory(c, sess.friends),
		})
	}
	return &InboxView{
		Filter:        filter,
		Conversations: items,
		Counts:        normalize.CountCategories(sess.inbox, sess.friends),
	}
}

func renderMessages(msgs []entity.Message, friends entity.IDSet) []MessageItem {
	items := make([]MessageItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, MessageItem{Message: m, Badge: normalize.SenderBadge(m, friends)})
	}
	return items
}

func clonePost(p *entity.Post) *entity.Post {
	if p == nil {
		return nil
	}
	out := *p
	out.LikeCount = clampCount(p.LikeCount)
	out.CommentCount = clampCount(p.CommentCount)
	out.LikeIDs = p.LikeIDs.Clone()
	if p.Media != nil {
		media := *p.Media
		out.Media = &media
	}
	out.Comments = cloneForest(p.Comments)
	return &out
}

func cloneForest(forest []*entity.CommentNode) []*entity.CommentNode {
	out := make([]*entity.CommentNode, 0, len(forest))
	for _, node := range forest {
		out = append(out, cloneComment(node))
	}
	return out
}

func cloneComment(node *entity.CommentNode) *entity.CommentNode {
	if node == nil {
		return nil
	}
	out := *node
	out.LikeIDs = node.LikeIDs.Clone()
	out.Children = cloneForest(node.Children)
	return &out
}
