package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
	"socialmall/pkg/errors"
)

func postPayload() raw.Value {
	return obj(map[string]any{
		"_id":   postHex,
		"user":  map[string]any{"_id": userHex, "firstName": "Ana"},
		"text":  "New stock",
		"likes": []any{userHex},
		"comments": []any{
			map[string]any{"_id": c1Hex, "author": meHex, "text": "mine", "createdAt": "2024-01-01T00:00:00Z"},
			map[string]any{"_id": c2Hex, "author": userHex, "text": "reply", "parentComment": c1Hex, "createdAt": "2024-01-01T00:01:00Z"},
			map[string]any{"_id": c3Hex, "author": userHex, "text": "later", "createdAt": "2024-01-01T00:02:00Z", "likes": []any{meHex}},
		},
	})
}

type threadFixture struct {
	posts    *fakePostRepo
	notifier *fakeNotifier
	sessions *SessionStore
	thread   *ThreadUseCase
}

func newThreadFixture() *threadFixture {
	f := &threadFixture{
		posts: &fakePostRepo{
			post:        postPayload(),
			addGate:     newGate(),
			deleteGate:  newGate(),
			likeGate:    newGate(),
			commentLike: newGate(),
		},
		notifier: newFakeNotifier(),
		sessions: NewSessionStore(),
	}
	f.thread = NewThreadUseCase(f.posts, testNormalizer(), f.sessions, f.notifier)
	return f
}

// local returns a copy of the session's post.
func (f *threadFixture) local() *entity.Post {
	sess := f.sessions.Get(me)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return clonePost(sess.posts[postHex])
}

func ids(forest []*entity.CommentNode) []string {
	out := make([]string, 0, len(forest))
	for _, n := range forest {
		out = append(out, n.ID)
	}
	return out
}

func TestThread_LoadsForest(t *testing.T) {
	f := newThreadFixture()

	post, err := f.thread.Thread(context.Background(), me, postHex)
	require.NoError(t, err)
	assert.Equal(t, "Ana", post.Author.DisplayName)
	assert.Equal(t, 1, post.LikeCount)
	assert.False(t, post.LikedByMe)
	assert.Equal(t, 3, post.CommentCount)
	assert.Equal(t, []string{c1Hex, c3Hex}, ids(post.Comments))
	assert.Equal(t, []string{c2Hex}, ids(post.Comments[0].Children))

	_, err = f.thread.Thread(context.Background(), me, "post-1")
	requireAppError(t, err, "UNRESOLVED")
}

func TestThread_SeparateCommentsPayload(t *testing.T) {
	f := newThreadFixture()
	f.posts.post = obj(map[string]any{"_id": postHex, "text": "x", "commentsCount": 2})
	f.posts.comments = obj(map[string]any{"comments": []any{
		map[string]any{"_id": c1Hex, "author": meHex, "text": "a"},
		map[string]any{"_id": c2Hex, "author": userHex, "text": "b", "parentComment": "65ffffffffffffffffffffff"},
	}})

	post, err := f.thread.Thread(context.Background(), me, postHex)
	require.NoError(t, err)
	assert.Equal(t, 2, post.CommentCount)
	require.Len(t, post.Comments, 2)
	orphan := post.Comments[0]
	if orphan.ID != c2Hex {
		orphan = post.Comments[1]
	}
	assert.True(t, orphan.Orphaned)
}

func TestAddComment_CommitReplacesInPlace(t *testing.T) {
	f := newThreadFixture()
	ctx := context.Background()

	res, err := f.thread.AddComment(ctx, me, postHex, " thanks ", c3Hex)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Post.CommentCount)
	parent := res.Post.Comments[1]
	require.Len(t, parent.Children, 1)
	pending := parent.Children[0]
	assert.Equal(t, res.Edit.LocalID, pending.ID)
	assert.True(t, pending.Pending)
	assert.Equal(t, c3Hex, pending.ParentID)

	f.posts.addGate.awaitCall(t)
	f.posts.addGate.replies <- reply{v: obj(map[string]any{
		"_id":           storeHex,
		"author":        meHex,
		"text":          "thanks",
		"parentComment": c3Hex,
	})}
	ev := f.notifier.next(t)
	assert.Equal(t, EventEditCommitted, ev.eventType)
	assert.Equal(t, entity.EditComment, ev.event.Kind)

	post := f.local()
	assert.Equal(t, 4, post.CommentCount)
	children := post.Comments[1].Children
	require.Len(t, children, 1)
	assert.Equal(t, storeHex, children[0].ID)
	assert.False(t, children[0].Pending)
	assert.Equal(t, c3Hex, children[0].ParentID)
}

func TestAddComment_RollbackRemovesNode(t *testing.T) {
	f := newThreadFixture()

	_, err := f.thread.AddComment(context.Background(), me, postHex, "root comment", "")
	require.NoError(t, err)
	f.posts.addGate.awaitCall(t)
	f.posts.addGate.replies <- reply{err: errors.Upstream("Failed to add comment", nil)}
	ev := f.notifier.next(t)
	assert.Equal(t, EventEditRolledBack, ev.eventType)

	post := f.local()
	assert.Equal(t, 3, post.CommentCount)
	assert.Equal(t, []string{c1Hex, c3Hex}, ids(post.Comments))
}

func TestAddComment_Validation(t *testing.T) {
	f := newThreadFixture()
	ctx := context.Background()

	_, err := f.thread.AddComment(ctx, me, postHex, "   ", "")
	requireAppError(t, err, "BAD_REQUEST")
	_, err = f.thread.AddComment(ctx, me, postHex, "x", "local-123")
	requireAppError(t, err, "BAD_REQUEST")
	_, err = f.thread.AddComment(ctx, me, postHex, "x", "65ffffffffffffffffffffff")
	requireAppError(t, err, "NOT_FOUND")
}

func TestDeleteComment_RollbackRestoresPosition(t *testing.T) {
	f := newThreadFixture()

	res, err := f.thread.DeleteComment(context.Background(), me, postHex, c1Hex)
	require.NoError(t, err)
	assert.Equal(t, []string{c3Hex}, ids(res.Post.Comments))
	assert.Equal(t, 1, res.Post.CommentCount)

	f.posts.deleteGate.awaitCall(t)
	f.posts.deleteGate.replies <- reply{err: errors.Forbidden("not allowed", nil)}
	ev := f.notifier.next(t)
	assert.Equal(t, EventEditRolledBack, ev.eventType)
	assert.Equal(t, "not allowed", ev.event.Error)

	post := f.local()
	assert.Equal(t, 3, post.CommentCount)
	assert.Equal(t, []string{c1Hex, c3Hex}, ids(post.Comments))
	assert.Equal(t, []string{c2Hex}, ids(post.Comments[0].Children))
}

func TestDeleteComment_Commit(t *testing.T) {
	f := newThreadFixture()

	_, err := f.thread.DeleteComment(context.Background(), me, postHex, c1Hex)
	require.NoError(t, err)
	f.posts.deleteGate.awaitCall(t)
	f.posts.deleteGate.replies <- reply{}
	assert.Equal(t, EventEditCommitted, f.notifier.next(t).eventType)

	post := f.local()
	assert.Equal(t, 1, post.CommentCount)
	assert.Equal(t, []string{c3Hex}, ids(post.Comments))
}

func TestDeleteComment_Refusals(t *testing.T) {
	f := newThreadFixture()
	ctx := context.Background()

	_, err := f.thread.DeleteComment(ctx, me, postHex, c3Hex)
	requireAppError(t, err, "FORBIDDEN")
	_, err = f.thread.DeleteComment(ctx, me, postHex, storeHex)
	requireAppError(t, err, "NOT_FOUND")
	_, err = f.thread.DeleteComment(ctx, me, postHex, "local-9")
	requireAppError(t, err, "BAD_REQUEST")
}

func TestToggleLike_RollbackRestoresExactly(t *testing.T) {
	f := newThreadFixture()

	res, err := f.thread.ToggleLike(context.Background(), me, postHex)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Post.LikeCount)
	assert.True(t, res.Post.LikedByMe)

	f.posts.likeGate.awaitCall(t)
	f.posts.likeGate.replies <- reply{err: errors.Upstream("offline", nil)}
	assert.Equal(t, EventEditRolledBack, f.notifier.next(t).eventType)

	post := f.local()
	assert.Equal(t, 1, post.LikeCount)
	assert.False(t, post.LikedByMe)
	assert.Equal(t, []string{userHex}, post.LikeIDs.Sorted())
}

func TestToggleLike_OverlappingRollbacks(t *testing.T) {
	f := newThreadFixture()
	ctx := context.Background()

	_, err := f.thread.ToggleLike(ctx, me, postHex)
	require.NoError(t, err)
	res, err := f.thread.ToggleLike(ctx, me, postHex)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Post.LikeCount)
	assert.False(t, res.Post.LikedByMe)

	f.posts.likeGate.awaitCall(t)
	f.posts.likeGate.awaitCall(t)
	f.posts.likeGate.replies <- reply{err: errors.Upstream("offline", nil)}
	f.posts.likeGate.replies <- reply{err: errors.Upstream("offline", nil)}
	f.notifier.next(t)
	f.notifier.next(t)

	post := f.local()
	assert.Equal(t, 1, post.LikeCount)
	assert.False(t, post.LikedByMe)
}

func TestToggleLike_RollbacksFromZeroRestoreCount(t *testing.T) {
	f := newThreadFixture()
	f.posts.post = obj(map[string]any{"_id": postHex, "user": userHex, "text": "quiet", "likes": []any{}})
	ctx := context.Background()

	res, err := f.thread.ToggleLike(ctx, me, postHex)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Post.LikeCount)
	res, err = f.thread.ToggleLike(ctx, me, postHex)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Post.LikeCount)

	f.posts.likeGate.awaitCall(t)
	f.posts.likeGate.awaitCall(t)

	f.posts.likeGate.replies <- reply{err: errors.Upstream("offline", nil)}
	f.notifier.next(t)
	assert.Equal(t, 0, f.local().LikeCount, "rendered count never goes below zero")

	f.posts.likeGate.replies <- reply{err: errors.Upstream("offline", nil)}
	f.notifier.next(t)

	post := f.local()
	assert.Equal(t, 0, post.LikeCount)
	assert.False(t, post.LikedByMe)
	assert.Equal(t, 0, post.LikeIDs.Len())

	sess := f.sessions.Get(me)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	assert.Equal(t, 0, sess.posts[postHex].LikeCount)
}

func TestToggleLike_ServerStateAdoptedByLastCommit(t *testing.T) {
	f := newThreadFixture()
	ctx := context.Background()

	_, err := f.thread.ToggleLike(ctx, me, postHex)
	require.NoError(t, err)
	_, err = f.thread.ToggleLike(ctx, me, postHex)
	require.NoError(t, err)
	f.posts.likeGate.awaitCall(t)
	f.posts.likeGate.awaitCall(t)

	server := obj(map[string]any{"liked": false, "likes": []any{userHex, storeHex}})
	f.posts.likeGate.replies <- reply{v: server}
	f.notifier.next(t)

	// one toggle still in flight: keep the local state
	post := f.local()
	assert.Equal(t, 1, post.LikeCount)

	f.posts.likeGate.replies <- reply{v: server}
	f.notifier.next(t)

	post = f.local()
	assert.Equal(t, 2, post.LikeCount)
	assert.False(t, post.LikedByMe)
	assert.Equal(t, []string{userHex, storeHex}, post.LikeIDs.Sorted())
}

func TestThread_ReloadKeepsPendingState(t *testing.T) {
	f := newThreadFixture()
	ctx := context.Background()

	_, err := f.thread.ToggleLike(ctx, me, postHex)
	require.NoError(t, err)

	post, err := f.thread.Thread(ctx, me, postHex)
	require.NoError(t, err)
	assert.Equal(t, 2, post.LikeCount)
	assert.True(t, post.LikedByMe)

	f.posts.likeGate.awaitCall(t)
	f.posts.likeGate.replies <- reply{v: obj(map[string]any{"liked": true, "likes": []any{userHex, meHex}})}
	f.notifier.next(t)
}

func TestToggleCommentLike_Rollback(t *testing.T) {
	f := newThreadFixture()

	res, err := f.thread.ToggleCommentLike(context.Background(), me, postHex, c3Hex)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Post.Comments[1].LikeIDs.Len())

	f.posts.commentLike.awaitCall(t)
	f.posts.commentLike.replies <- reply{err: errors.Upstream("offline", nil)}
	ev := f.notifier.next(t)
	assert.Equal(t, EventEditRolledBack, ev.eventType)
	assert.Equal(t, postHex+"/"+c3Hex, ev.event.Target)

	post := f.local()
	assert.Equal(t, []string{meHex}, post.Comments[1].LikeIDs.Sorted())
}

func TestToggleCommentLike_Commit(t *testing.T) {
	f := newThreadFixture()

	_, err := f.thread.ToggleCommentLike(context.Background(), me, postHex, c2Hex)
	require.NoError(t, err)
	f.posts.commentLike.awaitCall(t)
	f.posts.commentLike.replies <- reply{v: obj(map[string]any{"liked": true, "likes": []any{meHex, userHex}})}
	assert.Equal(t, EventEditCommitted, f.notifier.next(t).eventType)

	post := f.local()
	assert.Equal(t, []string{meHex, userHex}, post.Comments[0].Children[0].LikeIDs.Sorted())

	_, err = f.thread.ToggleCommentLike(context.Background(), me, postHex, storeHex)
	requireAppError(t, err, "NOT_FOUND")
}

func TestShopFeed(t *testing.T) {
	f := newThreadFixture()
	f.posts.feed = obj(map[string]any{"items": []any{
		map[string]any{"type": "post", "post": map[string]any{
			"_id":  postHex,
			"shop": map[string]any{"_id": shopHex, "shopName": "Corner Shop"},
			"text": "Open today",
		}},
		map[string]any{"type": "product", "product": map[string]any{"_id": prodHex}},
		map[string]any{"type": "post", "post": map[string]any{"text": "no id"}},
	}})

	posts, err := f.thread.ShopFeed(context.Background(), me, shopHex)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, entity.KindShop, posts[0].Author.Kind)
	assert.Equal(t, "Corner Shop", posts[0].Author.DisplayName)

	_, err = f.thread.ShopFeed(context.Background(), me, "corner")
	requireAppError(t, err, "UNRESOLVED")
}
