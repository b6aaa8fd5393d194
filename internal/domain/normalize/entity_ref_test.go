package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

func testNormalizer() *Normalizer {
	return New(Options{
		AssetBaseURL: "https://cdn.example.com/",
		DevOrigins:   []string{"http://localhost:5000"},
		LogoMarkers:  []string{"moondala-logo", "/logo.png"},
	})
}

func TestAbsURL(t *testing.T) {
	n := testNormalizer()

	cases := map[string]string{
		"":                                       "",
		"https://img.example.com/a.png":          "https://img.example.com/a.png",
		"http://localhost:5000/uploads/a.png":    "https://cdn.example.com/uploads/a.png",
		"/uploads/a.png":                         "https://cdn.example.com/uploads/a.png",
		"uploads/a.png":                          "https://cdn.example.com/uploads/a.png",
		"//img.example.com/a.png":                "https://img.example.com/a.png",
		"demo/image/upload/v1/a.jpg":             "https://res.cloudinary.com/demo/image/upload/v1/a.jpg",
		"/uploads/demo/video/upload/v1/clip.mp4": "https://res.cloudinary.com/demo/video/upload/v1/clip.mp4",
	}
	for in, want := range cases {
		assert.Equal(t, want, n.AbsURL(in), in)
	}
}

func TestAbsURL_NoBase(t *testing.T) {
	n := New(Options{})
	assert.Equal(t, "", n.AbsURL("/uploads/a.png"))
	assert.Equal(t, "https://x.test/a.png", n.AbsURL("https://x.test/a.png"))
}

func TestEntityRef_DisplayNamePrecedence(t *testing.T) {
	n := testNormalizer()

	ref := n.EntityRef(obj(map[string]any{
		"_id": meHex, "displayName": "Shown", "firstName": "A", "lastName": "B", "username": "u",
	}), entity.KindUser)
	assert.Equal(t, "Shown", ref.DisplayName)

	ref = n.EntityRef(obj(map[string]any{"_id": meHex, "firstName": "Ada", "lastName": "Lovelace", "username": "ada"}), entity.KindUser)
	assert.Equal(t, "Ada Lovelace", ref.DisplayName)

	ref = n.EntityRef(obj(map[string]any{"_id": meHex, "username": "ada"}), entity.KindUser)
	assert.Equal(t, "ada", ref.DisplayName)

	ref = n.EntityRef(obj(map[string]any{"_id": shopHex, "shopName": "Corner Store"}), entity.KindShop)
	assert.Equal(t, "Corner Store", ref.DisplayName)
}

func TestEntityRef_Fallbacks(t *testing.T) {
	n := testNormalizer()

	ref := n.EntityRef(raw.Str(meHex), entity.KindUser)
	assert.Equal(t, meHex, ref.ID.String())
	assert.Equal(t, "User", ref.DisplayName)
	assert.Equal(t, "", ref.AvatarURL)

	ref = n.EntityRef(raw.Str(shopHex), entity.KindShop)
	assert.Equal(t, "Shop", ref.DisplayName)

	ref = n.EntityRef(raw.Value{}, "")
	assert.False(t, ref.ID.Resolved())
	assert.Equal(t, entity.KindUnknown, ref.Kind)
	assert.Equal(t, "Unknown", ref.DisplayName)
}

func TestEntityRef_ExplicitKindWins(t *testing.T) {
	n := testNormalizer()

	ref := n.EntityRef(obj(map[string]any{"_id": shopHex, "type": "SHOP"}), entity.KindUser)
	assert.Equal(t, entity.KindShop, ref.Kind)

	ref = n.EntityRef(obj(map[string]any{"_id": shopHex, "type": "robot"}), entity.KindUser)
	assert.Equal(t, entity.KindUnknown, ref.Kind)
}

func TestEntityRef_Avatar(t *testing.T) {
	n := testNormalizer()

	ref := n.EntityRef(obj(map[string]any{"_id": meHex, "avatar": "/uploads/me.png"}), entity.KindUser)
	assert.Equal(t, "https://cdn.example.com/uploads/me.png", ref.AvatarURL)

	ref = n.EntityRef(obj(map[string]any{"_id": meHex, "avatarUrl": "https://cdn.example.com/moondala-logo.png"}), entity.KindUser)
	assert.Equal(t, "", ref.AvatarURL)

	ref = n.EntityRef(obj(map[string]any{
		"_id":       meHex,
		"avatarUrl": "/logo.png",
		"photoUrl":  "https://img.example.com/real.jpg",
	}), entity.KindUser)
	assert.Equal(t, "https://img.example.com/real.jpg", ref.AvatarURL)

	ref = n.EntityRef(obj(map[string]any{"_id": shopHex, "logo": map[string]any{"url": "shops/s.png"}}), entity.KindShop)
	assert.Equal(t, "https://cdn.example.com/shops/s.png", ref.AvatarURL)
}
