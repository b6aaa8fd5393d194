package entity

import "time"

type Post struct {
	ID           ID             `json:"id"`
	Author       EntityRef      `json:"author"`
	Text         string         `json:"text"`
	Media        *Attachment    `json:"media,omitempty"`
	LikeIDs      IDSet          `json:"like_ids"`
	LikeCount    int            `json:"like_count"`
	LikedByMe    bool           `json:"liked_by_me"`
	CommentCount int            `json:"comment_count"`
	Comments     []*CommentNode `json:"comments"`
	CreatedAt    time.Time      `json:"created_at"`
}
