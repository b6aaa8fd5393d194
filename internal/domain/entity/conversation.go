package entity

import "strings"

type Topic string

const (
	TopicGeneral  Topic = "general"
	TopicProduct  Topic = "product"
	TopicAskBuyer Topic = "ask-buyer"
)

// ParseTopic defaults to TopicGeneral for anything unrecognized.
func ParseTopic(s string) Topic {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "product":
		return TopicProduct
	case "ask-buyer", "ask_buyer", "askbuyer":
		return TopicAskBuyer
	default:
		return TopicGeneral
	}
}

type Conversation struct {
	ID              ID              `json:"id"`
	Topic           Topic           `json:"topic"`
	OtherParty      EntityRef       `json:"other_party"`
	LastMessageText string          `json:"last_message_text"`
	UnreadCount     int             `json:"unread_count"`
	ProductPreview  *ProductPreview `json:"product_preview,omitempty"`
	// ProductID is set when the record references a product without
	// embedding it; the preview is backfilled later.
	ProductID ID `json:"-"`
}

// MarkOpened resets the unread counter. Calling it again is a no-op.
func (c *Conversation) MarkOpened() {
	c.UnreadCount = 0
}
