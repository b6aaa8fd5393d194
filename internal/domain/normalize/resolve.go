package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

var (
	hexSubstring = regexp.MustCompile(`[0-9a-fA-F]{24}`)
	boxedID      = regexp.MustCompile(`ObjectId\(\s*['"]?([0-9a-fA-F]{24})['"]?\s*\)`)
)

// Fields tried, in order, when an identifier arrives as an object.
var idFields = []string{"_id", "id", "$oid", "entityId", "participantId", "userId", "shopId"}

const maxIDDepth = 8

// ResolveID extracts the canonical identifier from a bare string, a boxed
// ObjectId('...') string, a string embedding a 24-hex run, or an object
// carrying one of the known id fields. It never fails; callers branch on
// Resolved().
func ResolveID(v raw.Value) entity.ID {
	return resolveID(v, 0)
}

func resolveID(v raw.Value, depth int) entity.ID {
	if depth > maxIDDepth {
		return entity.UnresolvedID
	}
	switch v.Kind() {
	case raw.String:
		s, _ := v.AsString()
		return resolveString(s)
	case raw.Object:
		for _, key := range idFields {
			if f := v.Get(key); f.Truthy() {
				return resolveID(f, depth+1)
			}
		}
	}
	return entity.UnresolvedID
}

func resolveString(s string) entity.ID {
	s = strings.TrimSpace(s)
	if id, ok := entity.NewID(s); ok {
		return id
	}
	if m := boxedID.FindStringSubmatch(s); m != nil {
		id, _ := entity.NewID(m[1])
		return id
	}
	if m := hexSubstring.FindString(s); m != "" {
		id, _ := entity.NewID(m)
		return id
	}
	return entity.UnresolvedID
}

// resolveFirst resolves the first truthy field among keys.
func resolveFirst(v raw.Value, keys ...string) entity.ID {
	return ResolveID(v.First(keys...))
}

// recordKey is the identity used for records whose ids are not always
// canonical, such as comments: the canonical hex when there is one,
// otherwise a plain non-blank string id taken as an opaque key.
func recordKey(v raw.Value) string {
	if id := ResolveID(v); id.Resolved() {
		return id.String()
	}
	switch v.Kind() {
	case raw.String:
		s, _ := v.AsString()
		return strings.TrimSpace(s)
	case raw.Number:
		n, _ := v.AsNumber()
		return strconv.FormatFloat(n, 'f', -1, 64)
	case raw.Object:
		for _, key := range []string{"_id", "id"} {
			f := v.Get(key)
			if f.Kind() == raw.String || f.Kind() == raw.Number {
				if k := recordKey(f); k != "" {
					return k
				}
			}
		}
	}
	return ""
}
