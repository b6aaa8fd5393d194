package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

type counterModel struct {
	count int
	items []string
}

func addItem(m *counterModel) Mutation {
	return Mutation{
		Kind:   entity.EditComment,
		Target: "post-1",
		Apply: func(localID string) {
			m.items = append(m.items, localID)
			m.count++
		},
		Commit: func(localID string, canonical raw.Value) {
			id, ok := canonical.Get("id").AsString()
			if !ok {
				return
			}
			for i, item := range m.items {
				if item == localID {
					m.items[i] = id
				}
			}
		},
		Revert: func(localID string) {
			for i, item := range m.items {
				if item == localID {
					m.items = append(m.items[:i], m.items[i+1:]...)
					break
				}
			}
			m.count--
		},
	}
}

func TestBegin_AppliesImmediately(t *testing.T) {
	r := New()
	m := &counterModel{}

	edit := r.Begin(addItem(m))
	assert.Equal(t, entity.EditPending, edit.State)
	assert.True(t, IsLocalID(edit.LocalID))
	assert.Equal(t, []string{edit.LocalID}, m.items)
	assert.Equal(t, 1, m.count)
	assert.Equal(t, 1, r.Pending("post-1", entity.EditComment))
	assert.Equal(t, []entity.OptimisticEdit{edit}, r.Edits())
}

func TestRollback_RestoresExactly(t *testing.T) {
	r := New()
	m := &counterModel{count: 2, items: []string{"a", "b"}}

	edit := r.Begin(addItem(m))
	done, err := r.Rollback(edit.LocalID)
	require.NoError(t, err)

	assert.Equal(t, entity.EditRolledBack, done.State)
	assert.False(t, done.Committed())
	assert.Equal(t, 2, m.count)
	assert.Equal(t, []string{"a", "b"}, m.items)
	assert.Zero(t, r.Pending("post-1", ""))
}

func TestCommit_ReplacesInPlace(t *testing.T) {
	r := New()
	m := &counterModel{items: []string{"a"}}

	first := r.Begin(addItem(m))
	second := r.Begin(addItem(m))

	done, err := r.Commit(first.LocalID, raw.From(map[string]any{"id": "server-1"}))
	require.NoError(t, err)
	assert.True(t, done.Committed())
	assert.Equal(t, []string{"a", "server-1", second.LocalID}, m.items)

	// no canonical record: the optimistic version stays
	_, err = r.Commit(second.LocalID, raw.Value{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "server-1", second.LocalID}, m.items)
	assert.Empty(t, r.Edits())
}

func TestResolveTwice(t *testing.T) {
	r := New()
	edit := r.Begin(addItem(&counterModel{}))

	_, err := r.Commit(edit.LocalID, raw.Value{})
	require.NoError(t, err)

	_, err = r.Commit(edit.LocalID, raw.Value{})
	assert.ErrorIs(t, err, ErrUnknownEdit)
	_, err = r.Rollback(edit.LocalID)
	assert.ErrorIs(t, err, ErrUnknownEdit)
}

func TestOverlappingEditsCompose(t *testing.T) {
	r := New()
	m := &counterModel{count: 10}

	a := r.Begin(addItem(m))
	b := r.Begin(addItem(m))
	assert.Equal(t, 12, m.count)

	// a fails after b was applied; b's increment survives
	_, err := r.Rollback(a.LocalID)
	require.NoError(t, err)
	assert.Equal(t, 11, m.count)
	assert.Equal(t, []string{b.LocalID}, m.items)

	_, err = r.Commit(b.LocalID, raw.Value{})
	require.NoError(t, err)
	assert.Equal(t, 11, m.count)
}

func TestIsLocalID(t *testing.T) {
	assert.True(t, IsLocalID("local-123"))
	assert.False(t, IsLocalID("local-"))
	assert.False(t, IsLocalID("64b7f0c2a1b2c3d4e5f60718"))
}
