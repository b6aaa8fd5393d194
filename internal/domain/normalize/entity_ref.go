package normalize

import (
	"strings"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

var avatarFields = []string{"avatarUrl", "avatar", "photoUrl", "profileImage", "logoUrl", "logo"}

// EntityRef builds a display descriptor from a bare id, an embedded object or
// nothing. An explicit type field on the object wins over hint.
func (n *Normalizer) EntityRef(v raw.Value, hint entity.Kind) entity.EntityRef {
	ref, _ := n.entityRef(v, hint)
	return ref
}

// entityRef also reports whether the display name came from the payload
// rather than the fallback literal.
func (n *Normalizer) entityRef(v raw.Value, hint entity.Kind) (entity.EntityRef, bool) {
	if hint == "" {
		hint = entity.KindUnknown
	}
	ref := entity.EntityRef{ID: ResolveID(v), Kind: hint}

	named := false
	if v.Kind() == raw.Object {
		if t := v.Text("type", "kind", "participantType"); t != "" {
			ref.Kind = entity.ParseKind(t)
		}
		ref.DisplayName = displayName(v)
		ref.AvatarURL = n.avatar(v, avatarFields...)
		named = ref.DisplayName != ""
	}
	if !named {
		ref.DisplayName = fallbackName(ref.Kind)
	}
	return ref, named
}

func displayName(v raw.Value) string {
	if s := v.Text("displayName"); s != "" {
		return s
	}
	full := strings.TrimSpace(v.Text("firstName") + " " + v.Text("lastName"))
	if full != "" {
		return full
	}
	return v.Text("shopName", "name", "username")
}

func fallbackName(k entity.Kind) string {
	switch k {
	case entity.KindUser:
		return "User"
	case entity.KindShop:
		return "Shop"
	default:
		return "Unknown"
	}
}

// avatar returns the first candidate that absolutizes and is not the
// platform's branding image.
func (n *Normalizer) avatar(v raw.Value, keys ...string) string {
	for _, key := range keys {
		u := n.AbsURL(urlOf(v.Get(key)))
		if u != "" && !n.isPlatformLogo(u) {
			return u
		}
	}
	return ""
}

// urlOf reads a media reference given either as a string or as an object
// with a url field.
func urlOf(v raw.Value) string {
	switch v.Kind() {
	case raw.String:
		s, _ := v.AsString()
		return strings.TrimSpace(s)
	case raw.Object:
		return v.Text("url", "secure_url", "secureUrl", "path", "fileUrl", "src")
	}
	return ""
}
