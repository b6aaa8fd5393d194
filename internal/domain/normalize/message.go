package normalize

import (
	"net/url"
	"path"
	"strings"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

// Message normalizes one message record. IsMine is derived here and never
// read from the payload.
func (n *Normalizer) Message(v raw.Value, me entity.ID) entity.Message {
	sender := n.sender(v)
	return entity.Message{
		ID:             resolveFirst(v, "_id", "id", "messageId"),
		LocalID:        v.Text("localId", "clientId"),
		ConversationID: resolveFirst(v, "conversationId", "conversation", "chatId"),
		Sender:         sender,
		IsMine:         IsMine(sender, me),
		Text:           v.Text("text", "content", "body", "message"),
		Attachments:    n.Attachments(v.First("attachments", "files", "media")),
		CreatedAt:      parseTime(v),
	}
}

// Messages normalizes a message list payload, keeping payload order.
func (n *Normalizer) Messages(payload raw.Value, me entity.ID) []entity.Message {
	records := raw.List(payload, "messages", "items", "data")
	out := make([]entity.Message, 0, len(records))
	for _, rec := range records {
		out = append(out, n.Message(rec, me))
	}
	return out
}

// IsMine fails closed: an unresolved id on either side is never mine.
func IsMine(sender entity.EntityRef, me entity.ID) bool {
	return sender.Kind == entity.KindUser && sender.ID.Resolved() && sender.ID.Equal(me)
}

// sender resolves the message author. An explicit type always wins; without
// one the kind follows from which field carries the id.
func (n *Normalizer) sender(v raw.Value) entity.EntityRef {
	explicit := v.Text("senderType", "senderKind")
	if explicit == "" {
		explicit = v.Get("sender").Text("type", "kind")
	}

	var (
		idValue raw.Value
		kind    = entity.KindUnknown
	)
	switch {
	case v.Get("senderEntityId").Truthy():
		idValue = v.Get("senderEntityId")
	case v.Get("sender").Truthy():
		idValue, kind = v.Get("sender"), entity.KindUser
	case v.First("senderId", "senderUserId").Truthy():
		idValue, kind = v.First("senderId", "senderUserId"), entity.KindUser
	case v.First("senderShopId", "shopId").Truthy():
		idValue, kind = v.First("senderShopId", "shopId"), entity.KindShop
	}
	if explicit != "" {
		kind = entity.ParseKind(explicit)
	}

	ref, named := n.entityRef(idValue, kind)
	ref.Kind = kind
	if !named {
		if name := v.Text("senderName"); name != "" {
			ref.DisplayName = name
		}
	}
	if ref.AvatarURL == "" {
		ref.AvatarURL = n.avatar(v, "senderAvatarUrl", "senderAvatar")
	}
	return ref
}

// Attachments normalizes an attachment list. Entries without a usable URL
// are skipped.
func (n *Normalizer) Attachments(list raw.Value) []entity.Attachment {
	items := list.Items()
	if list.Kind() == raw.String || list.Kind() == raw.Object {
		items = []raw.Value{list}
	}
	out := make([]entity.Attachment, 0, len(items))
	for _, item := range items {
		if a, ok := n.Attachment(item, ""); ok {
			out = append(out, a)
		}
	}
	return out
}

// Attachment normalizes a single media reference. storedType is used when
// the reference itself carries no type.
func (n *Normalizer) Attachment(v raw.Value, storedType string) (entity.Attachment, bool) {
	u := n.AbsURL(urlOf(v))
	if u == "" {
		return entity.Attachment{}, false
	}
	name := "file"
	if v.Kind() == raw.Object {
		if t := v.Text("type", "mimeType", "mimetype", "resourceType"); t != "" {
			storedType = t
		}
		if s := v.Text("name", "originalName", "filename"); s != "" {
			name = s
		}
	}
	return entity.Attachment{URL: u, Kind: ClassifyMedia(storedType, u), DisplayName: name}, true
}

var (
	imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".bmp": true, ".avif": true, ".heic": true, ".svg": true}
	videoExts = map[string]bool{".mp4": true, ".webm": true, ".mov": true, ".m4v": true, ".ogv": true}
)

// ClassifyMedia decides image/video/other: a stored type first, then the
// URL's file extension, then CDN path keywords.
func ClassifyMedia(storedType, rawURL string) entity.MimeKind {
	t := strings.ToLower(strings.TrimSpace(storedType))
	switch {
	case t == "image" || strings.HasPrefix(t, "image/"):
		return entity.MimeImage
	case t == "video" || strings.HasPrefix(t, "video/"):
		return entity.MimeVideo
	case strings.Contains(t, "/"):
		// a full mime type that is neither image nor video
		return entity.MimeOther
	}

	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		p = parsed.Path
	}
	ext := strings.ToLower(path.Ext(p))
	switch {
	case imageExts[ext]:
		return entity.MimeImage
	case videoExts[ext]:
		return entity.MimeVideo
	}

	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "/image/upload/"):
		return entity.MimeImage
	case strings.Contains(lower, "/video/upload/"):
		return entity.MimeVideo
	}
	return entity.MimeOther
}

type Badge string

const (
	BadgeMe      Badge = "me"
	BadgeShop    Badge = "shop"
	BadgeFriend  Badge = "friend"
	BadgeUser    Badge = "user"
	BadgeUnknown Badge = "unknown"
)

func SenderBadge(m entity.Message, friends entity.IDSet) Badge {
	if m.IsMine {
		return BadgeMe
	}
	switch m.Sender.Kind {
	case entity.KindShop:
		return BadgeShop
	case entity.KindUser:
		if friends.Has(m.Sender.ID) {
			return BadgeFriend
		}
		return BadgeUser
	default:
		return BadgeUnknown
	}
}
