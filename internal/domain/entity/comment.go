package entity

import "time"

// CommentNode is one node of a reply forest. ID is the canonical hex id when
// the record carried one and an opaque key otherwise; ParentID is empty for
// roots.
type CommentNode struct {
	ID        string         `json:"id"`
	Author    EntityRef      `json:"author"`
	Text      string         `json:"text"`
	LikeIDs   IDSet          `json:"like_ids"`
	ParentID  string         `json:"parent_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Pending   bool           `json:"pending,omitempty"`
	Orphaned  bool           `json:"orphaned,omitempty"` // parent reference given but not found
	Children  []*CommentNode `json:"children"`
}
