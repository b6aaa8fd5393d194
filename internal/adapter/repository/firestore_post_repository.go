package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
	"socialmall/internal/domain/repository"
	"socialmall/pkg/errors"
	"socialmall/pkg/logger"
)

type firestorePostRepository struct {
	client *firestore.Client
}

func NewFirestorePostRepository(client *firestore.Client) repository.PostRepository {
	return &firestorePostRepository{
		client: client,
	}
}

func (r *firestorePostRepository) post(id entity.ID) *firestore.DocumentRef {
	return r.client.Collection(postsCollection).Doc(id.String())
}

func (r *firestorePostRepository) GetByID(ctx context.Context, id entity.ID) (raw.Value, error) {
	doc, err := r.post(id).Get(ctx)
	if err != nil {
		return raw.Value{}, mapError("Post", "get post", err)
	}
	return docValue(doc), nil
}

func (r *firestorePostRepository) Comments(ctx context.Context, postID entity.ID) (raw.Value, error) {
	docs, err := r.post(postID).Collection(commentsCollection).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching comments for post %s: %v", postID, err)
		return raw.Value{}, mapError("Comments", "fetch comments", err)
	}
	return wrapList("comments", docValues(docs)), nil
}

// ShopFeed returns the shop's posts in the public feed envelope
// {items: [{type: "post", post: {...}}]}.
func (r *firestorePostRepository) ShopFeed(ctx context.Context, shopID entity.ID, limit int) (raw.Value, error) {
	query := r.client.Collection(postsCollection).
		Where("shopId", "==", shopID.String()).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return raw.Value{}, mapError("Shop feed", "fetch shop feed", err)
	}

	items := make([]raw.Value, 0, len(docs))
	for _, doc := range docs {
		items = append(items, raw.Obj(map[string]raw.Value{
			"type": raw.Str("post"),
			"post": docValue(doc),
		}))
	}
	return wrapList("items", items), nil
}

func (r *firestorePostRepository) AddComment(ctx context.Context, in repository.AddCommentInput) (raw.Value, error) {
	postRef := r.post(in.PostID)
	commentID := newObjectID()
	record := map[string]interface{}{
		"author":    in.Author.String(),
		"text":      in.Text,
		"likes":     []string{},
		"localId":   in.LocalID,
		"createdAt": time.Now(),
	}
	if in.ParentID != "" {
		record["parentComment"] = in.ParentID
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(postRef); err != nil {
			return err
		}
		if err := tx.Create(postRef.Collection(commentsCollection).Doc(commentID), record); err != nil {
			return err
		}
		return tx.Update(postRef, []firestore.Update{
			{Path: "commentsCount", Value: firestore.Increment(1)},
		})
	})
	if err != nil {
		return raw.Value{}, mapError("Post", "add comment", err)
	}

	record["_id"] = commentID
	return raw.From(record), nil
}

// DeleteComment removes a comment written by me. Replies stay and are shown
// as roots from then on.
func (r *firestorePostRepository) DeleteComment(ctx context.Context, postID entity.ID, commentID string, me entity.ID) error {
	postRef := r.post(postID)
	commentRef := postRef.Collection(commentsCollection).Doc(commentID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(commentRef)
		if err != nil {
			return err
		}
		author, _ := snap.DataAt("author")
		if s, _ := author.(string); s != me.String() {
			return errors.Forbidden("Only the author can delete this comment", nil)
		}
		if err := tx.Delete(commentRef); err != nil {
			return err
		}
		return tx.Update(postRef, []firestore.Update{
			{Path: "commentsCount", Value: firestore.Increment(-1)},
		})
	})
	if err != nil {
		return mapError("Comment", "delete comment", err)
	}
	return nil
}

func (r *firestorePostRepository) ToggleLike(ctx context.Context, postID, me entity.ID) (raw.Value, error) {
	result, err := r.toggleLikes(ctx, r.post(postID), me.String())
	if err != nil {
		return raw.Value{}, mapError("Post", "toggle like", err)
	}
	return result, nil
}

func (r *firestorePostRepository) ToggleCommentLike(ctx context.Context, postID entity.ID, commentID string, me entity.ID) (raw.Value, error) {
	ref := r.post(postID).Collection(commentsCollection).Doc(commentID)
	result, err := r.toggleLikes(ctx, ref, me.String())
	if err != nil {
		return raw.Value{}, mapError("Comment", "toggle comment like", err)
	}
	return result, nil
}

// toggleLikes flips me in the document's likes array and reports the state
// after the change.
func (r *firestorePostRepository) toggleLikes(ctx context.Context, ref *firestore.DocumentRef, me string) (raw.Value, error) {
	var (
		liked bool
		likes []interface{}
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		current, _ := snap.DataAt("likes")
		existing, _ := current.([]interface{})

		likes = likes[:0]
		if containsString(existing, me) {
			liked = false
			for _, id := range existing {
				if s, _ := id.(string); s != me {
					likes = append(likes, id)
				}
			}
			return tx.Update(ref, []firestore.Update{{Path: "likes", Value: firestore.ArrayRemove(me)}})
		}
		liked = true
		likes = append(likes, existing...)
		likes = append(likes, me)
		return tx.Update(ref, []firestore.Update{{Path: "likes", Value: firestore.ArrayUnion(me)}})
	})
	if err != nil {
		return raw.Value{}, err
	}

	return raw.From(map[string]interface{}{
		"liked": liked,
		"likes": likes,
	}), nil
}
