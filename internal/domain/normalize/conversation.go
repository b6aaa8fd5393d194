package normalize

import (
	"math"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

var participantIDFields = []string{"entityId", "participantId", "userId", "shopId", "id", "_id"}

// Conversation normalizes one conversation record as seen by me.
func (n *Normalizer) Conversation(v raw.Value, me entity.ID) entity.Conversation {
	c := entity.Conversation{
		ID:              resolveFirst(v, "_id", "id", "conversationId"),
		Topic:           entity.ParseTopic(v.Text("topic")),
		OtherParty:      n.otherParty(v, me),
		LastMessageText: lastMessageText(v),
		UnreadCount:     unreadCount(v.First("unreadCount", "unread"), me),
	}
	c.ProductPreview, c.ProductID = n.productPreview(v)
	return c
}

// otherParty applies, in order: a fully populated "other" object, an
// otherType/otherId pair, then the first participant that is not me.
// Denormalized name and avatar fields override what the reference carries.
func (n *Normalizer) otherParty(v raw.Value, me entity.ID) entity.EntityRef {
	ref, named, ok := n.otherFromObject(v.Get("other"))
	if !ok {
		ref, named, ok = n.otherFromPair(v)
	}
	if !ok {
		ref, named, ok = n.otherFromParticipants(v.Get("participants"), me)
	}
	if !ok {
		ref = entity.EntityRef{ID: entity.UnresolvedID, Kind: entity.KindUnknown}
	}

	if name := v.Text("otherName", "otherParticipantName"); name != "" {
		ref.DisplayName = name
	} else if !named {
		if title := v.Text("title"); title != "" {
			ref.DisplayName = title
		} else {
			ref.DisplayName = fallbackName(ref.Kind)
		}
	}
	if avatar := n.avatar(v, "otherAvatarUrl", "otherAvatar"); avatar != "" {
		ref.AvatarURL = avatar
	}
	return ref
}

func (n *Normalizer) otherFromObject(other raw.Value) (entity.EntityRef, bool, bool) {
	if other.Kind() != raw.Object || other.Text("type", "kind") == "" {
		return entity.EntityRef{}, false, false
	}
	ref, named := n.entityRef(other, entity.KindUnknown)
	return ref, named, ref.ID.Resolved()
}

func (n *Normalizer) otherFromPair(v raw.Value) (entity.EntityRef, bool, bool) {
	kind := v.Text("otherType", "participantType")
	idValue := v.First("otherId", "participantId")
	if kind == "" || !ResolveID(idValue).Resolved() {
		return entity.EntityRef{}, false, false
	}
	ref, named := n.entityRef(idValue, entity.ParseKind(kind))
	ref.Kind = entity.ParseKind(kind)
	return ref, named, true
}

func (n *Normalizer) otherFromParticipants(list raw.Value, me entity.ID) (entity.EntityRef, bool, bool) {
	for _, p := range list.Items() {
		ref, named := n.participant(p)
		if !ref.ID.Resolved() {
			continue
		}
		if ref.Kind == entity.KindUser && ref.ID.Equal(me) {
			continue
		}
		return ref, named, true
	}
	return entity.EntityRef{}, false, false
}

// participant reads one participants entry. A bare id carries no type and is
// taken to be a user, matching how participant id lists are stored.
func (n *Normalizer) participant(p raw.Value) (entity.EntityRef, bool) {
	if p.Kind() != raw.Object {
		return n.entityRef(p, entity.KindUser)
	}
	kind := entity.KindUnknown
	if t := p.Text("type", "participantType", "kind"); t != "" {
		kind = entity.ParseKind(t)
	}
	ref, named := n.entityRef(p, kind)
	ref.ID = resolveFirst(p, participantIDFields...)
	ref.Kind = kind

	// Participants may embed the entity itself.
	if embedded := p.First("entity", "user", "shop"); embedded.Kind() == raw.Object && !named {
		inner, innerNamed := n.entityRef(embedded, kind)
		if !ref.ID.Resolved() {
			ref.ID = inner.ID
		}
		if innerNamed {
			ref.DisplayName, named = inner.DisplayName, true
		}
		if ref.AvatarURL == "" {
			ref.AvatarURL = inner.AvatarURL
		}
	}
	return ref, named
}

func lastMessageText(v raw.Value) string {
	if s := v.Text("lastText"); s != "" {
		return s
	}
	if s := v.Get("lastMessage").Text("text", "content"); s != "" {
		return s
	}
	return v.Text("lastMessageText", "lastMessage")
}

// unreadCount accepts a number, a numeric string, or a per-user map keyed by
// the session id. The result is never negative.
func unreadCount(v raw.Value, me entity.ID) int {
	if v.Kind() == raw.Object {
		if !me.Resolved() {
			return 0
		}
		v = v.Get(me.String())
	}
	f, ok := v.AsNumber()
	if !ok || math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// productPreview returns the embedded preview, or only the referenced id when
// the record carries a product id without a snapshot.
func (n *Normalizer) productPreview(v raw.Value) (*entity.ProductPreview, entity.ID) {
	p := v.First("productPreview", "productSnapshot", "product", "productInfo")
	if p.Kind() == raw.Object {
		preview := n.ProductPreview(p)
		if preview.Title != "" || preview.ImageURL != "" {
			return &preview, preview.ProductID
		}
		if preview.ProductID.Resolved() {
			return nil, preview.ProductID
		}
	}
	if id := ResolveID(p); id.Resolved() {
		return nil, id
	}
	return nil, resolveFirst(v, "productId")
}

// ProductPreview normalizes a product record or snapshot.
func (n *Normalizer) ProductPreview(p raw.Value) entity.ProductPreview {
	preview := entity.ProductPreview{
		ProductID: resolveFirst(p, "productId", "_id", "id"),
		Title:     p.Text("title", "name"),
		ImageURL:  n.AbsURL(urlOf(p.First("imageUrl", "image", "thumbnail"))),
	}
	if preview.ImageURL == "" {
		if images := p.Get("images").Items(); len(images) > 0 {
			preview.ImageURL = n.AbsURL(urlOf(images[0]))
		}
	}
	return preview
}

type InboxStats struct {
	Dropped    int // records without a resolvable id
	Duplicates int // records whose id was already accepted
}

// Inbox normalizes a conversation list payload. Records with an unresolved
// id are dropped, and for duplicate ids the first record wins.
func (n *Normalizer) Inbox(payload raw.Value, me entity.ID) ([]entity.Conversation, InboxStats) {
	var stats InboxStats
	records := raw.List(payload, "conversations", "items", "data")
	out := make([]entity.Conversation, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, rec := range records {
		c := n.Conversation(rec, me)
		if !c.ID.Resolved() {
			stats.Dropped++
			continue
		}
		if _, dup := seen[c.ID.String()]; dup {
			stats.Duplicates++
			continue
		}
		seen[c.ID.String()] = struct{}{}
		out = append(out, c)
	}
	return out, stats
}

// MergeInbox appends the conversations of incoming not already present in
// existing. Existing entries are kept as they are.
func MergeInbox(existing, incoming []entity.Conversation) []entity.Conversation {
	out := make([]entity.Conversation, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, list := range [][]entity.Conversation{existing, incoming} {
		for _, c := range list {
			if !c.ID.Resolved() {
				continue
			}
			if _, dup := seen[c.ID.String()]; dup {
				continue
			}
			seen[c.ID.String()] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

type Category string

const (
	CategoryFriend  Category = "friend"
	CategoryShop    Category = "shop"
	CategoryUser    Category = "user"
	CategoryUnknown Category = "unknown"
)

func ConversationCategory(c entity.Conversation, friends entity.IDSet) Category {
	switch c.OtherParty.Kind {
	case entity.KindShop:
		return CategoryShop
	case entity.KindUser:
		if friends.Has(c.OtherParty.ID) {
			return CategoryFriend
		}
		return CategoryUser
	default:
		return CategoryUnknown
	}
}

type InboxFilter string

const (
	FilterAll        InboxFilter = "all"
	FilterFriends    InboxFilter = "friends"
	FilterShop       InboxFilter = "shop"
	FilterUserAsking InboxFilter = "user-asking"
)

// Filter keeps the conversations in the requested category. Unknown filters
// behave like FilterAll.
func Filter(convs []entity.Conversation, f InboxFilter, friends entity.IDSet) []entity.Conversation {
	var want Category
	switch f {
	case FilterFriends:
		want = CategoryFriend
	case FilterShop:
		want = CategoryShop
	case FilterUserAsking:
		want = CategoryUser
	default:
		return convs
	}
	out := make([]entity.Conversation, 0, len(convs))
	for _, c := range convs {
		if ConversationCategory(c, friends) == want {
			out = append(out, c)
		}
	}
	return out
}

type CategoryCounts struct {
	Friends int `json:"friends"`
	Shop    int `json:"shop"`
	User    int `json:"user"`
	Total   int `json:"total"`
}

func CountCategories(convs []entity.Conversation, friends entity.IDSet) CategoryCounts {
	counts := CategoryCounts{Total: len(convs)}
	for _, c := range convs {
		switch ConversationCategory(c, friends) {
		case CategoryFriend:
			counts.Friends++
		case CategoryShop:
			counts.Shop++
		case CategoryUser:
			counts.User++
		}
	}
	return counts
}
