package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

const (
	convA = "6600000000000000000000a1"
	convB = "6600000000000000000000b2"
	prod1 = "6700000000000000000000c3"
)

func TestConversation_ParticipantsFallbackSkipsMe(t *testing.T) {
	n := testNormalizer()
	me := entity.MustID(meHex)

	c := n.Conversation(obj(map[string]any{
		"_id": convA,
		"participants": []any{
			map[string]any{"type": "user", "id": meHex},
			map[string]any{"type": "shop", "id": shopHex},
		},
	}), me)

	assert.Equal(t, convA, c.ID.String())
	assert.Equal(t, entity.KindShop, c.OtherParty.Kind)
	assert.Equal(t, shopHex, c.OtherParty.ID.String())
	assert.Equal(t, "Shop", c.OtherParty.DisplayName)
}

func TestConversation_SelfAsShopIsNotSkipped(t *testing.T) {
	n := testNormalizer()
	me := entity.MustID(meHex)

	// Only a user participant equal to me is skipped.
	c := n.Conversation(obj(map[string]any{
		"_id": convA,
		"participants": []any{
			map[string]any{"type": "shop", "entityId": meHex},
			map[string]any{"type": "user", "id": meHex},
		},
	}), me)

	assert.Equal(t, entity.KindShop, c.OtherParty.Kind)
	assert.Equal(t, meHex, c.OtherParty.ID.String())
}

func TestConversation_OtherObjectWins(t *testing.T) {
	n := testNormalizer()
	c := n.Conversation(obj(map[string]any{
		"_id":       convA,
		"other":     map[string]any{"type": "user", "_id": userHex, "displayName": "Bob"},
		"otherType": "shop",
		"otherId":   shopHex,
	}), entity.MustID(meHex))

	assert.Equal(t, entity.KindUser, c.OtherParty.Kind)
	assert.Equal(t, userHex, c.OtherParty.ID.String())
	assert.Equal(t, "Bob", c.OtherParty.DisplayName)
}

func TestConversation_PartialOtherFallsBackToPair(t *testing.T) {
	n := testNormalizer()
	c := n.Conversation(obj(map[string]any{
		"_id":          convA,
		"other":        map[string]any{"name": "no type or id"},
		"otherType":    "Shop",
		"otherId":      "ObjectId('" + shopHex + "')",
		"otherName":    "Corner Store",
		"otherAvatar":  "/uploads/shop.png",
		"lastMessage":  map[string]any{"text": "hi there"},
		"unreadCount":  "3",
		"participants": []any{userHex},
	}), entity.MustID(meHex))

	assert.Equal(t, entity.KindShop, c.OtherParty.Kind)
	assert.Equal(t, shopHex, c.OtherParty.ID.String())
	assert.Equal(t, "Corner Store", c.OtherParty.DisplayName)
	assert.Equal(t, "https://cdn.example.com/uploads/shop.png", c.OtherParty.AvatarURL)
	assert.Equal(t, "hi there", c.LastMessageText)
	assert.Equal(t, 3, c.UnreadCount)
}

func TestConversation_BareParticipantsAreUsers(t *testing.T) {
	n := testNormalizer()
	c := n.Conversation(obj(map[string]any{
		"_id":          convA,
		"participants": []any{meHex, userHex},
		"title":        "Chat with Bob",
	}), entity.MustID(meHex))

	assert.Equal(t, entity.KindUser, c.OtherParty.Kind)
	assert.Equal(t, userHex, c.OtherParty.ID.String())
	assert.Equal(t, "Chat with Bob", c.OtherParty.DisplayName)
}

func TestConversation_NoOtherParty(t *testing.T) {
	n := testNormalizer()
	c := n.Conversation(obj(map[string]any{"_id": convA}), entity.MustID(meHex))

	assert.False(t, c.OtherParty.ID.Resolved())
	assert.Equal(t, entity.KindUnknown, c.OtherParty.Kind)
	assert.Equal(t, "Unknown", c.OtherParty.DisplayName)
}

func TestConversation_UnreadCount(t *testing.T) {
	n := testNormalizer()
	me := entity.MustID(meHex)

	cases := []struct {
		name string
		v    any
		want int
	}{
		{"number", 4, 4},
		{"negative", -2, 0},
		{"string", "7", 7},
		{"garbage", "lots", 0},
		{"per user map", map[string]any{meHex: 5, userHex: 9}, 5},
		{"map without me", map[string]any{userHex: 9}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := n.Conversation(obj(map[string]any{"_id": convA, "unreadCount": tc.v}), me)
			assert.Equal(t, tc.want, c.UnreadCount)
		})
	}

	c := n.Conversation(obj(map[string]any{"_id": convA, "unreadCount": map[string]any{meHex: 5}}), entity.UnresolvedID)
	assert.Equal(t, 0, c.UnreadCount)
}

func TestConversation_ProductPreview(t *testing.T) {
	n := testNormalizer()
	me := entity.MustID(meHex)

	c := n.Conversation(obj(map[string]any{
		"_id":   convA,
		"topic": "ask-buyer",
		"productSnapshot": map[string]any{
			"productId": prod1,
			"name":      "Lamp",
			"images":    []any{"/uploads/lamp.jpg"},
		},
	}), me)
	require.NotNil(t, c.ProductPreview)
	assert.Equal(t, entity.TopicAskBuyer, c.Topic)
	assert.Equal(t, prod1, c.ProductPreview.ProductID.String())
	assert.Equal(t, "Lamp", c.ProductPreview.Title)
	assert.Equal(t, "https://cdn.example.com/uploads/lamp.jpg", c.ProductPreview.ImageURL)

	c = n.Conversation(obj(map[string]any{"_id": convA, "productId": prod1}), me)
	assert.Nil(t, c.ProductPreview)
	assert.Equal(t, prod1, c.ProductID.String())
}

func TestInbox_DedupeFirstSeen(t *testing.T) {
	n := testNormalizer()
	payload := obj(map[string]any{
		"conversations": []any{
			map[string]any{"_id": convA, "lastText": "first"},
			map[string]any{"_id": map[string]any{"$oid": convA}, "lastText": "second"},
			map[string]any{"_id": convB, "lastText": "other"},
			map[string]any{"lastText": "no id"},
		},
	})

	convs, stats := n.Inbox(payload, entity.MustID(meHex))
	require.Len(t, convs, 2)
	assert.Equal(t, convA, convs[0].ID.String())
	assert.Equal(t, "first", convs[0].LastMessageText)
	assert.Equal(t, convB, convs[1].ID.String())
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 1, stats.Dropped)
}

func TestInbox_BadShapeIsEmpty(t *testing.T) {
	n := testNormalizer()
	for _, payload := range []raw.Value{{}, raw.Str("oops"), obj(map[string]any{"conversations": "nope"})} {
		convs, _ := n.Inbox(payload, entity.MustID(meHex))
		assert.NotNil(t, convs)
		assert.Empty(t, convs)
	}
}

func TestMergeInbox(t *testing.T) {
	a := entity.Conversation{ID: entity.MustID(convA), LastMessageText: "old"}
	a2 := entity.Conversation{ID: entity.MustID(convA), LastMessageText: "new"}
	b := entity.Conversation{ID: entity.MustID(convB)}

	merged := MergeInbox([]entity.Conversation{a}, []entity.Conversation{a2, b, {}})
	require.Len(t, merged, 2)
	assert.Equal(t, "old", merged[0].LastMessageText)
	assert.Equal(t, convB, merged[1].ID.String())
}

func TestFilterAndCounts(t *testing.T) {
	friend := entity.Conversation{ID: entity.MustID(convA), OtherParty: entity.EntityRef{ID: entity.MustID(userHex), Kind: entity.KindUser}}
	shop := entity.Conversation{ID: entity.MustID(convB), OtherParty: entity.EntityRef{ID: entity.MustID(shopHex), Kind: entity.KindShop}}
	stranger := entity.Conversation{ID: entity.MustID(prod1), OtherParty: entity.EntityRef{ID: entity.MustID(meHex), Kind: entity.KindUser}}
	all := []entity.Conversation{friend, shop, stranger}
	friends := entity.NewIDSet(entity.MustID(userHex))

	assert.Len(t, Filter(all, FilterAll, friends), 3)
	assert.Equal(t, []entity.Conversation{friend}, Filter(all, FilterFriends, friends))
	assert.Equal(t, []entity.Conversation{shop}, Filter(all, FilterShop, friends))
	assert.Equal(t, []entity.Conversation{stranger}, Filter(all, FilterUserAsking, friends))

	assert.Equal(t, CategoryCounts{Friends: 1, Shop: 1, User: 1, Total: 3}, CountCategories(all, friends))
}
