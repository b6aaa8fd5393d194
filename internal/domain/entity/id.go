package entity

import (
	"encoding/json"
	"sort"
	"strings"
)

const IDLength = 24

// ID is a canonical 24-hex identifier. The zero value is unresolved and is
// never rendered as text.
type ID struct {
	hex string
}

var UnresolvedID = ID{}

// NewID accepts only a bare 24-hex string, in any case.
func NewID(s string) (ID, bool) {
	if !IsHexID(s) {
		return UnresolvedID, false
	}
	return ID{hex: strings.ToLower(s)}, true
}

// MustID panics on invalid input; meant for fixtures and constants.
func MustID(s string) ID {
	id, ok := NewID(s)
	if !ok {
		panic("entity: invalid id " + s)
	}
	return id
}

func IsHexID(s string) bool {
	if len(s) != IDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHex(s[i]) {
			return false
		}
	}
	return true
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (id ID) Resolved() bool { return id.hex != "" }

func (id ID) String() string { return id.hex }

func (id ID) Equal(other ID) bool {
	return id.Resolved() && id.hex == other.hex
}

func (id ID) MarshalJSON() ([]byte, error) {
	if !id.Resolved() {
		return []byte("null"), nil
	}
	return json.Marshal(id.hex)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*id = UnresolvedID
		return nil
	}
	*id, _ = NewID(*s)
	return nil
}

// IDSet holds resolved identifiers. It serializes as a sorted array.
type IDSet map[string]struct{}

func NewIDSet(ids ...ID) IDSet {
	set := IDSet{}
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

func (s IDSet) Add(id ID) {
	if id.Resolved() {
		s[id.hex] = struct{}{}
	}
}

func (s IDSet) Remove(id ID) { delete(s, id.hex) }

func (s IDSet) Has(id ID) bool {
	if !id.Resolved() {
		return false
	}
	_, ok := s[id.hex]
	return ok
}

func (s IDSet) Len() int { return len(s) }

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}
