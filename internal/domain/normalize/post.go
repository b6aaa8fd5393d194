package normalize

import (
	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

var mediaFields = []string{"media", "mediaUrl", "videoUrl", "imageUrl", "image", "images", "filename"}

// Post normalizes a feed post as seen by me. Likes and comments may arrive
// either as lists or as bare counts.
func (n *Normalizer) Post(v raw.Value, me entity.ID) entity.Post {
	p := entity.Post{
		ID:        resolveFirst(v, "_id", "id", "postId"),
		Text:      v.Text("text", "content", "caption", "body"),
		Media:     n.postMedia(v),
		CreatedAt: parseTime(v),
		Comments:  []*entity.CommentNode{},
	}

	if author := v.First("user", "author", "createdBy", "userId"); author.Truthy() {
		p.Author = n.EntityRef(author, entity.KindUser)
	} else {
		p.Author = n.EntityRef(v.Get("shop"), entity.KindShop)
	}

	likes := v.Get("likes")
	p.LikeIDs = likeSet(likes)
	p.LikeCount = p.LikeIDs.Len()
	if c := countOf(likes, v.First("likesCount", "likeCount")); c > p.LikeCount {
		p.LikeCount = c
	}
	p.LikedByMe = p.LikeIDs.Has(me)
	if liked, ok := v.First("likedByMe", "liked").AsBool(); ok && liked {
		p.LikedByMe = true
	}

	comments := v.Get("comments")
	if comments.Kind() == raw.Array {
		p.Comments = n.BuildCommentTree(comments.Items())
	}
	p.CommentCount = CountComments(p.Comments)
	if c := countOf(comments, v.First("commentsCount", "commentCount")); c > p.CommentCount {
		p.CommentCount = c
	}
	return p
}

func (n *Normalizer) postMedia(v raw.Value) *entity.Attachment {
	for _, key := range mediaFields {
		f := v.Get(key)
		if !f.Truthy() {
			continue
		}
		if items := f.Items(); len(items) > 0 {
			f = items[0]
		}
		stored := v.Text("mediaType", "type")
		if key == "videoUrl" {
			stored = "video"
		}
		if a, ok := n.Attachment(f, stored); ok {
			return &a
		}
	}
	return nil
}

// countOf reads a count given either as the field itself (a number) or as a
// separate counter field.
func countOf(field, counter raw.Value) int {
	if f, ok := field.AsNumber(); ok && field.Kind() == raw.Number && f > 0 {
		return int(f)
	}
	if f, ok := counter.AsNumber(); ok && f > 0 {
		return int(f)
	}
	return 0
}

// Feed normalizes a post list. Shop feeds wrap posts as
// {type: "post", post: {...}} among other item types, which are skipped.
// Posts without a resolvable id are dropped and counted.
func (n *Normalizer) Feed(payload raw.Value, me entity.ID) ([]entity.Post, int) {
	items := raw.List(payload, "posts", "items", "data")
	out := make([]entity.Post, 0, len(items))
	dropped := 0
	for _, item := range items {
		rec := item
		t := item.Text("type")
		switch {
		case item.Get("post").Kind() == raw.Object && (t == "" || t == "post"):
			rec = item.Get("post")
		case t != "" && t != "post" && item.Get(t).Kind() == raw.Object:
			// a non-post feed item such as {type: "product", product: {...}}
			continue
		}
		p := n.Post(rec, me)
		if !p.ID.Resolved() {
			dropped++
			continue
		}
		out = append(out, p)
	}
	return out, dropped
}
