// Package reconcile tracks optimistic edits from the moment they are applied
// locally until the backend confirms or rejects them.
package reconcile

import (
	"errors"

	"github.com/google/uuid"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

var ErrUnknownEdit = errors.New("unknown or already resolved edit")

// LocalIDPrefix marks temporary record ids.
const LocalIDPrefix = "local-"

// Mutation describes one optimistic change. Apply runs at Begin. Revert is
// the inverse and must be relative to the current state (decrement what was
// incremented, toggle back) rather than restoring a snapshot, so that
// overlapping edits on the same record compose. Commit is optional and
// receives the server's canonical record, possibly Absent.
type Mutation struct {
	Kind   entity.EditKind
	Target string
	Apply  func(localID string)
	Commit func(localID string, canonical raw.Value)
	Revert func(localID string)
}

type pendingEdit struct {
	edit     entity.OptimisticEdit
	mutation Mutation
}

// Reconciler is not safe for concurrent use; the owning view serializes
// access.
type Reconciler struct {
	newID func() string
	edits map[string]*pendingEdit
	order []string
}

func New() *Reconciler {
	return &Reconciler{
		newID: func() string { return LocalIDPrefix + uuid.NewString() },
		edits: make(map[string]*pendingEdit),
	}
}

// Begin applies m immediately and registers it as pending.
func (r *Reconciler) Begin(m Mutation) entity.OptimisticEdit {
	localID := r.newID()
	edit := entity.OptimisticEdit{
		Kind:    m.Kind,
		LocalID: localID,
		Target:  m.Target,
		State:   entity.EditPending,
	}
	r.edits[localID] = &pendingEdit{edit: edit, mutation: m}
	r.order = append(r.order, localID)
	if m.Apply != nil {
		m.Apply(localID)
	}
	return edit
}

// Commit resolves an edit as confirmed. The edit leaves the registry before
// its Commit hook runs, so Pending no longer counts it there.
func (r *Reconciler) Commit(localID string, canonical raw.Value) (entity.OptimisticEdit, error) {
	p, err := r.take(localID)
	if err != nil {
		return entity.OptimisticEdit{}, err
	}
	if p.mutation.Commit != nil {
		p.mutation.Commit(localID, canonical)
	}
	p.edit.State = entity.EditCommitted
	return p.edit, nil
}

// Rollback resolves an edit as failed and applies its inverse.
func (r *Reconciler) Rollback(localID string) (entity.OptimisticEdit, error) {
	p, err := r.take(localID)
	if err != nil {
		return entity.OptimisticEdit{}, err
	}
	if p.mutation.Revert != nil {
		p.mutation.Revert(localID)
	}
	p.edit.State = entity.EditRolledBack
	return p.edit, nil
}

func (r *Reconciler) take(localID string) (*pendingEdit, error) {
	p, ok := r.edits[localID]
	if !ok {
		return nil, ErrUnknownEdit
	}
	delete(r.edits, localID)
	for i, id := range r.order {
		if id == localID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, nil
}

// Pending counts unresolved edits of kind on target. An empty kind matches
// every kind.
func (r *Reconciler) Pending(target string, kind entity.EditKind) int {
	n := 0
	for _, p := range r.edits {
		if p.edit.Target == target && (kind == "" || p.edit.Kind == kind) {
			n++
		}
	}
	return n
}

// Edits lists unresolved edits in the order they began.
func (r *Reconciler) Edits() []entity.OptimisticEdit {
	out := make([]entity.OptimisticEdit, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.edits[id].edit)
	}
	return out
}

// IsLocalID reports whether id is a temporary id handed out by Begin.
func IsLocalID(id string) bool {
	return len(id) > len(LocalIDPrefix) && id[:len(LocalIDPrefix)] == LocalIDPrefix
}
