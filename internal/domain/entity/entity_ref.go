package entity

import "strings"

type Kind string

const (
	KindUser    Kind = "user"
	KindShop    Kind = "shop"
	KindUnknown Kind = "unknown"
)

// ParseKind maps free-form type strings onto the closed set. Anything it
// does not recognize is KindUnknown, never KindUser.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return KindUser
	case "shop":
		return KindShop
	default:
		return KindUnknown
	}
}

// EntityRef is the display-ready descriptor of a user or shop reference.
type EntityRef struct {
	ID          ID     `json:"id"`
	Kind        Kind   `json:"kind"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Same reports whether both refs point at the same resolved entity.
func (r EntityRef) Same(other EntityRef) bool {
	return r.Kind == other.Kind && r.ID.Equal(other.ID)
}
