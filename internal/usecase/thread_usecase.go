package usecase

import (
	"context"
	"strings"
	"time"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/normalize"
	"socialmall/internal/domain/raw"
	"socialmall/internal/domain/reconcile"
	"socialmall/internal/domain/repository"
	"socialmall/pkg/errors"
	"socialmall/pkg/logger"
	"socialmall/pkg/metrics"
)

const feedPageSize = 50

type ThreadUseCase struct {
	background

	postRepo   repository.PostRepository
	normalizer *normalize.Normalizer
	sessions   *SessionStore
	notifier   Notifier
	now        func() time.Time
}

func NewThreadUseCase(
	postRepo repository.PostRepository,
	normalizer *normalize.Normalizer,
	sessions *SessionStore,
	notifier Notifier,
) *ThreadUseCase {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ThreadUseCase{
		postRepo:   postRepo,
		normalizer: normalizer,
		sessions:   sessions,
		notifier:   notifier,
		now:        time.Now,
	}
}

func (uc *ThreadUseCase) resolve(me entity.ID, rawPostID string) (*Session, entity.ID, error) {
	if !me.Resolved() {
		return nil, entity.UnresolvedID, errors.Unresolved("session")
	}
	postID := normalize.ResolveID(raw.Str(rawPostID))
	if !postID.Resolved() {
		return nil, entity.UnresolvedID, errors.Unresolved("post id")
	}
	return uc.sessions.Get(me), postID, nil
}

// fetch loads a post with its comment forest. Comments embedded in the post
// record are used as they are; otherwise they are fetched separately.
func (uc *ThreadUseCase) fetch(ctx context.Context, me, postID entity.ID) (*entity.Post, error) {
	v, err := uc.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	post := uc.normalizer.Post(v, me)
	if !post.ID.Resolved() {
		post.ID = postID
	}

	if v.Get("comments").Kind() != raw.Array {
		payload, err := uc.postRepo.Comments(ctx, postID)
		if err != nil {
			return nil, err
		}
		post.Comments = uc.normalizer.BuildCommentTree(raw.List(payload, "comments", "items", "data"))
		if n := normalize.CountComments(post.Comments); n > post.CommentCount {
			post.CommentCount = n
		}
	}
	if orphans := countOrphans(post.Comments); orphans > 0 {
		metrics.UnresolvedRecords.WithLabelValues("comments").Add(float64(orphans))
	}
	return &post, nil
}

// hasPendingEdits reports edits in flight on the post or one of its
// comments. Must hold sess.mu.
func hasPendingEdits(sess *Session, postID entity.ID) bool {
	target := postID.String()
	for _, e := range sess.rec.Edits() {
		if e.Target == target || strings.HasPrefix(e.Target, target+"/") {
			return true
		}
	}
	return false
}

// Thread selects a post and loads it with its comments. While edits on the
// post are in flight the local copy is kept instead of the fetched one.
func (uc *ThreadUseCase) Thread(ctx context.Context, me entity.ID, rawPostID string) (*entity.Post, error) {
	sess, postID, err := uc.resolve(me, rawPostID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	ticket := sess.thread.Select(postID.String())
	sess.mu.Unlock()

	post, err := uc.fetch(ctx, me, postID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.thread.Current(ticket) {
		metrics.StaleResponses.WithLabelValues("thread").Inc()
		return nil, errors.Stale("thread")
	}
	if local, ok := sess.posts[postID.String()]; ok && hasPendingEdits(sess, postID) {
		return clonePost(local), nil
	}
	sess.posts[postID.String()] = post
	return clonePost(post), nil
}

// ensurePost returns the session's copy of a post, loading it first when
// the session has not seen it.
func (uc *ThreadUseCase) ensurePost(ctx context.Context, sess *Session, postID entity.ID) error {
	sess.mu.Lock()
	_, ok := sess.posts[postID.String()]
	sess.mu.Unlock()
	if ok {
		return nil
	}

	post, err := uc.fetch(ctx, sess.me, postID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if _, ok := sess.posts[postID.String()]; !ok {
		sess.posts[postID.String()] = post
	}
	sess.mu.Unlock()
	return nil
}

// AddComment inserts a pending comment under parentID, or as a root when
// parentID is empty, and stores it in the background.
func (uc *ThreadUseCase) AddComment(ctx context.Context, me entity.ID, rawPostID, text, parentID string) (*PostEditResult, error) {
	sess, postID, err := uc.resolve(me, rawPostID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.BadRequest("Comment text is required", nil)
	}
	parentID = strings.TrimSpace(parentID)
	if reconcile.IsLocalID(parentID) {
		return nil, errors.BadRequest("Cannot reply to a comment that is still being posted", nil)
	}
	if err := uc.ensurePost(ctx, sess, postID); err != nil {
		return nil, err
	}

	key := postID.String()
	var committed *entity.CommentNode

	sess.mu.Lock()
	if parentID != "" && normalize.FindComment(sess.posts[key].Comments, parentID) == nil {
		sess.mu.Unlock()
		return nil, errors.NotFound("Parent comment", nil)
	}
	edit := sess.rec.Begin(reconcile.Mutation{
		Kind:   entity.EditComment,
		Target: key,
		Apply: func(localID string) {
			post := sess.posts[key]
			node := &entity.CommentNode{
				ID:        localID,
				Author:    entity.EntityRef{ID: me, Kind: entity.KindUser, DisplayName: "You"},
				Text:      text,
				LikeIDs:   entity.NewIDSet(),
				CreatedAt: uc.now().UTC(),
				Pending:   true,
				Children:  []*entity.CommentNode{},
			}
			post.Comments = normalize.InsertComment(post.Comments, node, parentID)
			post.CommentCount++
		},
		Commit: func(localID string, canonical raw.Value) {
			post, ok := sess.posts[key]
			if !ok {
				return
			}
			stored := uc.normalizer.Comment(canonical)
			if canonical.Kind() != raw.Object || stored.ID == "" || reconcile.IsLocalID(stored.ID) {
				if node := normalize.FindComment(post.Comments, localID); node != nil {
					node.Pending = false
					committed = cloneComment(node)
				}
				return
			}
			if stored.Text == "" {
				stored.Text = text
			}
			if !stored.Author.ID.Resolved() {
				stored.Author = entity.EntityRef{ID: me, Kind: entity.KindUser, DisplayName: "You"}
			}
			if !normalize.ReplaceComment(post.Comments, localID, stored) && normalize.FindComment(post.Comments, stored.ID) == nil {
				post.Comments = normalize.InsertComment(post.Comments, stored, parentID)
			}
			committed = cloneComment(stored)
		},
		Revert: func(localID string) {
			post, ok := sess.posts[key]
			if !ok {
				return
			}
			forest, removed, _, _ := normalize.RemoveComment(post.Comments, localID)
			if removed == nil {
				return
			}
			post.Comments = forest
			post.CommentCount -= 1 + normalize.CountComments(removed.Children)
		},
	})
	result := &PostEditResult{Edit: edit, Post: clonePost(sess.posts[key])}
	sess.mu.Unlock()

	uc.run(func() {
		canonical, err := uc.postRepo.AddComment(context.WithoutCancel(ctx), repository.AddCommentInput{
			PostID:   postID,
			Author:   me,
			LocalID:  edit.LocalID,
			Text:     text,
			ParentID: parentID,
		})
		settle(sess, uc.notifier, edit.LocalID, canonical, err, func() interface{} {
			if committed == nil {
				return nil
			}
			return committed
		})
	})
	return result, nil
}

// DeleteComment removes one of me's comments with its replies at once. If
// the backend refuses, the comment comes back at the same position.
func (uc *ThreadUseCase) DeleteComment(ctx context.Context, me entity.ID, rawPostID, commentID string) (*PostEditResult, error) {
	sess, postID, err := uc.resolve(me, rawPostID)
	if err != nil {
		return nil, err
	}
	commentID = strings.TrimSpace(commentID)
	if commentID == "" {
		return nil, errors.Unresolved("comment id")
	}
	if reconcile.IsLocalID(commentID) {
		return nil, errors.BadRequest("Comment is still being posted", nil)
	}
	if err := uc.ensurePost(ctx, sess, postID); err != nil {
		return nil, err
	}

	key := postID.String()

	sess.mu.Lock()
	node := normalize.FindComment(sess.posts[key].Comments, commentID)
	if node == nil {
		sess.mu.Unlock()
		return nil, errors.NotFound("Comment", nil)
	}
	if !node.Author.ID.Equal(me) {
		sess.mu.Unlock()
		return nil, errors.Forbidden("You can only delete your own comments", nil)
	}

	var (
		removed  *entity.CommentNode
		parentID string
		index    int
	)
	edit := sess.rec.Begin(reconcile.Mutation{
		Kind:   entity.EditDeleteComment,
		Target: key,
		Apply: func(string) {
			post := sess.posts[key]
			post.Comments, removed, parentID, index = normalize.RemoveComment(post.Comments, commentID)
			if removed != nil {
				post.CommentCount -= 1 + normalize.CountComments(removed.Children)
			}
		},
		Revert: func(string) {
			post, ok := sess.posts[key]
			if !ok || removed == nil {
				return
			}
			post.Comments = normalize.InsertCommentAt(post.Comments, removed, parentID, index)
			post.CommentCount += 1 + normalize.CountComments(removed.Children)
		},
	})
	result := &PostEditResult{Edit: edit, Post: clonePost(sess.posts[key])}
	sess.mu.Unlock()

	uc.run(func() {
		err := uc.postRepo.DeleteComment(context.WithoutCancel(ctx), postID, commentID, me)
		settle(sess, uc.notifier, edit.LocalID, raw.Value{}, err, func() interface{} {
			return map[string]string{"comment_id": commentID}
		})
	})
	return result, nil
}

// ToggleLike flips me's like on a post. Overlapping toggles each apply to
// the latest local state; the server's like list is adopted only when the
// last of them commits.
func (uc *ThreadUseCase) ToggleLike(ctx context.Context, me entity.ID, rawPostID string) (*PostEditResult, error) {
	sess, postID, err := uc.resolve(me, rawPostID)
	if err != nil {
		return nil, err
	}
	if err := uc.ensurePost(ctx, sess, postID); err != nil {
		return nil, err
	}

	key := postID.String()
	var liked bool

	sess.mu.Lock()
	edit := sess.rec.Begin(reconcile.Mutation{
		Kind:   entity.EditLike,
		Target: key,
		Apply: func(string) {
			post := sess.posts[key]
			liked = !post.LikedByMe
			shiftPostLike(post, me, liked)
		},
		Commit: func(_ string, canonical raw.Value) {
			post, ok := sess.posts[key]
			if !ok || sess.rec.Pending(key, entity.EditLike) > 0 {
				return
			}
			adoptPostLikes(post, me, canonical)
		},
		Revert: func(string) {
			if post, ok := sess.posts[key]; ok {
				shiftPostLike(post, me, !liked)
			}
		},
	})
	result := &PostEditResult{Edit: edit, Post: clonePost(sess.posts[key])}
	sess.mu.Unlock()

	uc.run(func() {
		canonical, err := uc.postRepo.ToggleLike(context.WithoutCancel(ctx), postID, me)
		settle(sess, uc.notifier, edit.LocalID, canonical, err, func() interface{} {
			post, ok := sess.posts[key]
			if !ok {
				return nil
			}
			return map[string]interface{}{"like_count": clampCount(post.LikeCount), "liked_by_me": post.LikedByMe}
		})
	})
	return result, nil
}

// ToggleCommentLike flips me's like on one comment of a post.
func (uc *ThreadUseCase) ToggleCommentLike(ctx context.Context, me entity.ID, rawPostID, commentID string) (*PostEditResult, error) {
	sess, postID, err := uc.resolve(me, rawPostID)
	if err != nil {
		return nil, err
	}
	commentID = strings.TrimSpace(commentID)
	if commentID == "" {
		return nil, errors.Unresolved("comment id")
	}
	if reconcile.IsLocalID(commentID) {
		return nil, errors.BadRequest("Comment is still being posted", nil)
	}
	if err := uc.ensurePost(ctx, sess, postID); err != nil {
		return nil, err
	}

	key := postID.String()
	target := key + "/" + commentID
	comment := func() *entity.CommentNode {
		post, ok := sess.posts[key]
		if !ok {
			return nil
		}
		return normalize.FindComment(post.Comments, commentID)
	}

	sess.mu.Lock()
	if comment() == nil {
		sess.mu.Unlock()
		return nil, errors.NotFound("Comment", nil)
	}
	edit := sess.rec.Begin(reconcile.Mutation{
		Kind:   entity.EditLike,
		Target: target,
		Apply: func(string) {
			flipCommentLike(comment(), me)
		},
		Commit: func(_ string, canonical raw.Value) {
			node := comment()
			if node == nil || sess.rec.Pending(target, entity.EditLike) > 0 {
				return
			}
			if likes := canonical.Get("likes"); likes.Kind() == raw.Array {
				node.LikeIDs = likeIDs(likes)
			}
		},
		Revert: func(string) {
			if node := comment(); node != nil {
				flipCommentLike(node, me)
			}
		},
	})
	result := &PostEditResult{Edit: edit, Post: clonePost(sess.posts[key])}
	sess.mu.Unlock()

	uc.run(func() {
		canonical, err := uc.postRepo.ToggleCommentLike(context.WithoutCancel(ctx), postID, commentID, me)
		settle(sess, uc.notifier, edit.LocalID, canonical, err, func() interface{} {
			return cloneComment(comment())
		})
	})
	return result, nil
}

// ShopFeed loads a shop's public posts. The feed is not kept in the session.
func (uc *ThreadUseCase) ShopFeed(ctx context.Context, me entity.ID, rawShopID string) ([]entity.Post, error) {
	shopID := normalize.ResolveID(raw.Str(rawShopID))
	if !shopID.Resolved() {
		return nil, errors.Unresolved("shop id")
	}
	payload, err := uc.postRepo.ShopFeed(ctx, shopID, feedPageSize)
	if err != nil {
		return nil, err
	}
	posts, dropped := uc.normalizer.Feed(payload, me)
	if dropped > 0 {
		metrics.UnresolvedRecords.WithLabelValues("feed").Add(float64(dropped))
		logger.Warn("Feed of shop %s: dropped %d posts without a usable id", shopID, dropped)
	}
	return posts, nil
}

// shiftPostLike moves the like count one step up or down and flips
// LikedByMe. Both parts commute, so overlapping toggles can be reverted in
// any order. The session count is never clamped here: a step lost at zero
// would not come back on revert. Views clamp instead.
func shiftPostLike(post *entity.Post, me entity.ID, up bool) {
	if post.LikeIDs == nil {
		post.LikeIDs = entity.NewIDSet()
	}
	if up {
		post.LikeCount++
	} else {
		post.LikeCount--
	}
	post.LikedByMe = !post.LikedByMe
	if post.LikedByMe {
		post.LikeIDs.Add(me)
	} else {
		post.LikeIDs.Remove(me)
	}
}

func adoptPostLikes(post *entity.Post, me entity.ID, canonical raw.Value) {
	if canonical.Kind() != raw.Object {
		return
	}
	likes := canonical.Get("likes")
	if likes.Kind() == raw.Array {
		post.LikeIDs = likeIDs(likes)
		post.LikeCount = post.LikeIDs.Len()
		post.LikedByMe = post.LikeIDs.Has(me)
	} else if n, ok := canonical.First("likesCount", "likeCount").AsNumber(); ok && n >= 0 {
		post.LikeCount = int(n)
	}
	if liked, ok := canonical.Get("liked").AsBool(); ok {
		post.LikedByMe = liked
	}
}

func flipCommentLike(node *entity.CommentNode, me entity.ID) {
	if node.LikeIDs == nil {
		node.LikeIDs = entity.NewIDSet()
	}
	if node.LikeIDs.Has(me) {
		node.LikeIDs.Remove(me)
	} else {
		node.LikeIDs.Add(me)
	}
}

func likeIDs(list raw.Value) entity.IDSet {
	set := entity.NewIDSet()
	for _, item := range list.Items() {
		set.Add(normalize.ResolveID(item))
	}
	return set
}

func countOrphans(forest []*entity.CommentNode) int {
	n := 0
	for _, node := range forest {
		if node.Orphaned {
			n++
		}
		n += countOrphans(node.Children)
	}
	return n
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
