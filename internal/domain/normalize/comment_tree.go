package normalize

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

var parentFields = []string{"parentComment", "parent", "parentId", "replyTo"}

type commentRecord struct {
	node      *entity.CommentNode
	parentKey string
	parent    *commentRecord
	digest    uint64
}

// Comment normalizes one comment record without placing it in a tree.
func (n *Normalizer) Comment(v raw.Value) *entity.CommentNode {
	node := &entity.CommentNode{
		ID:        recordKey(v),
		Author:    n.EntityRef(v.First("author", "user", "userId", "createdBy"), entity.KindUser),
		Text:      v.Text("text", "content", "body"),
		LikeIDs:   likeSet(v.Get("likes")),
		CreatedAt: parseTime(v),
		Children:  []*entity.CommentNode{},
	}
	return node
}

// BuildCommentTree turns a flat comment list into a forest. Every record
// appears exactly once. A record whose parent is missing, unresolved or
// itself becomes a root; parent cycles are cut at their earliest member.
// Siblings are ordered by creation time then id, so the result does not
// depend on input order.
//
// A record without an id is keyed by a digest of its content. Among records
// sharing an id, the earliest (then lowest digest) keeps it and parents its
// replies; the others get "<id>#2", "<id>#3" and so on.
func (n *Normalizer) BuildCommentTree(records []raw.Value) []*entity.CommentNode {
	all := make([]*commentRecord, 0, len(records))
	byKey := make(map[string]*commentRecord, len(records))

	// Pass 1: index every record by key, in an order fixed by content.
	for _, v := range records {
		all = append(all, &commentRecord{
			node:      n.Comment(v),
			parentKey: recordKey(v.First(parentFields...)),
			digest:    contentDigest(v),
		})
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.node.ID != b.node.ID {
			return a.node.ID < b.node.ID
		}
		if !a.node.CreatedAt.Equal(b.node.CreatedAt) {
			return a.node.CreatedAt.Before(b.node.CreatedAt)
		}
		return a.digest < b.digest
	})
	for _, rec := range all {
		base := rec.node.ID
		if base == "" {
			base = "#" + strconv.FormatUint(rec.digest, 16)
		}
		key := base
		for k := 2; byKey[key] != nil; k++ {
			key = base + "#" + strconv.Itoa(k)
		}
		rec.node.ID = key
		byKey[key] = rec
	}

	// Pass 2: link parents.
	for _, rec := range all {
		if rec.parentKey == "" {
			continue
		}
		parent, ok := byKey[rec.parentKey]
		if !ok || parent == rec {
			rec.node.Orphaned = true
			continue
		}
		rec.parent = parent
	}

	sort.SliceStable(all, func(i, j int) bool { return before(all[i].node, all[j].node) })
	breakCycles(all)

	roots := []*entity.CommentNode{}
	for _, rec := range all {
		if rec.parent == nil {
			rec.node.ParentID = ""
			roots = append(roots, rec.node)
			continue
		}
		rec.node.ParentID = rec.parent.node.ID
		rec.parent.node.Children = append(rec.parent.node.Children, rec.node)
	}
	return roots
}

func before(a, b *entity.CommentNode) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// breakCycles walks parent chains in the given (sorted) order and detaches
// the earliest member of every cycle it finds.
func breakCycles(sorted []*commentRecord) {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[*commentRecord]int, len(sorted))
	for _, start := range sorted {
		var path []*commentRecord
		cur := start
		for cur != nil && state[cur] == unvisited {
			state[cur] = onPath
			path = append(path, cur)
			cur = cur.parent
		}
		if cur != nil && state[cur] == onPath {
			var cycle []*commentRecord
			for i := len(path) - 1; i >= 0; i-- {
				cycle = append(cycle, path[i])
				if path[i] == cur {
					break
				}
			}
			earliest := cycle[0]
			for _, rec := range cycle[1:] {
				if before(rec.node, earliest.node) {
					earliest = rec
				}
			}
			earliest.parent = nil
			earliest.node.Orphaned = true
		}
		for _, rec := range path {
			state[rec] = done
		}
	}
}

// contentDigest hashes the whole record. Object keys marshal sorted, so equal
// records always digest the same.
func contentDigest(v raw.Value) uint64 {
	b, err := v.MarshalJSON()
	if err != nil {
		return 0
	}
	return xxhash.Sum64(b)
}

func likeSet(v raw.Value) entity.IDSet {
	set := entity.IDSet{}
	for _, item := range v.Items() {
		set.Add(ResolveID(item))
	}
	return set
}

// CountComments counts every node of a forest.
func CountComments(forest []*entity.CommentNode) int {
	total := 0
	for _, node := range forest {
		total += 1 + CountComments(node.Children)
	}
	return total
}

// FindComment returns the node with the given id.
func FindComment(forest []*entity.CommentNode, id string) *entity.CommentNode {
	for _, node := range forest {
		if node.ID == id {
			return node
		}
		if found := FindComment(node.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// InsertComment places node under parentID, or at the end of the roots when
// the parent is empty or unknown.
func InsertComment(forest []*entity.CommentNode, node *entity.CommentNode, parentID string) []*entity.CommentNode {
	return InsertCommentAt(forest, node, parentID, -1)
}

// InsertCommentAt inserts at index among the siblings; a negative or out of
// range index appends.
func InsertCommentAt(forest []*entity.CommentNode, node *entity.CommentNode, parentID string, index int) []*entity.CommentNode {
	if parentID != "" {
		if parent := FindComment(forest, parentID); parent != nil {
			node.ParentID = parentID
			parent.Children = insertAt(parent.Children, node, index)
			return forest
		}
	}
	node.ParentID = ""
	return insertAt(forest, node, index)
}

func insertAt(list []*entity.CommentNode, node *entity.CommentNode, index int) []*entity.CommentNode {
	if index < 0 || index >= len(list) {
		return append(list, node)
	}
	list = append(list, nil)
	copy(list[index+1:], list[index:])
	list[index] = node
	return list
}

// RemoveComment detaches the node with id together with its replies and
// reports where it was so the removal can be undone.
func RemoveComment(forest []*entity.CommentNode, id string) ([]*entity.CommentNode, *entity.CommentNode, string, int) {
	for i, node := range forest {
		if node.ID == id {
			out := append(forest[:i:i], forest[i+1:]...)
			return out, node, node.ParentID, i
		}
	}
	for _, node := range forest {
		children, removed, parentID, index := RemoveComment(node.Children, id)
		if removed != nil {
			node.Children = children
			return forest, removed, parentID, index
		}
	}
	return forest, nil, "", -1
}

// ReplaceComment swaps the node with id for replacement in the same position.
// Replies already attached to the old node are carried over.
func ReplaceComment(forest []*entity.CommentNode, id string, replacement *entity.CommentNode) bool {
	for i, node := range forest {
		if node.ID == id {
			replacement.ParentID = node.ParentID
			replacement.Children = append(replacement.Children, node.Children...)
			forest[i] = replacement
			return true
		}
		if ReplaceComment(node.Children, id, replacement) {
			return true
		}
	}
	return false
}
