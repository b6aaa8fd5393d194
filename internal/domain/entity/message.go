package entity

import "time"

type MimeKind string

const (
	MimeImage MimeKind = "image"
	MimeVideo MimeKind = "video"
	MimeOther MimeKind = "other"
)

type Attachment struct {
	URL         string   `json:"url"` // absolute
	Kind        MimeKind `json:"mime_kind"`
	DisplayName string   `json:"display_name"`
}

type Message struct {
	ID             ID           `json:"id"`
	LocalID        string       `json:"local_id,omitempty"` // set while the send is pending
	ConversationID ID           `json:"conversation_id"`
	Sender         EntityRef    `json:"sender"`
	IsMine         bool         `json:"is_mine"`
	Text           string       `json:"text"`
	Attachments    []Attachment `json:"attachments"`
	CreatedAt      time.Time    `json:"created_at"`
	Pending        bool         `json:"pending,omitempty"`
}
