package repository

import (
	goerrors "errors"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"socialmall/internal/domain/raw"
	"socialmall/pkg/errors"
)

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
	postsCollection         = "posts"
	commentsCollection      = "comments"
	usersCollection         = "users"
	shopsCollection         = "shops"
	productsCollection      = "products"
)

// newObjectID returns a fresh 24-hex id so that stored records resolve like
// every other platform id.
func newObjectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// docValue exposes a snapshot as a raw record with its id under _id.
func docValue(doc *firestore.DocumentSnapshot) raw.Value {
	data := flatten(doc.Data()).(map[string]interface{})
	if _, ok := data["_id"]; !ok {
		data["_id"] = doc.Ref.ID
	}
	return raw.From(data)
}

func docValues(docs []*firestore.DocumentSnapshot) []raw.Value {
	out := make([]raw.Value, 0, len(docs))
	for _, doc := range docs {
		out = append(out, docValue(doc))
	}
	return out
}

// flatten replaces document references with their ids; everything else is
// left for raw.From.
func flatten(v interface{}) interface{} {
	switch t := v.(type) {
	case *firestore.DocumentRef:
		if t == nil {
			return nil
		}
		return t.ID
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = flatten(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = flatten(e)
		}
		return out
	default:
		return v
	}
}

func wrapList(key string, items []raw.Value) raw.Value {
	return raw.Obj(map[string]raw.Value{key: raw.Arr(items...)})
}

// mapError converts a Firestore status into an application error.
func mapError(resource, action string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if goerrors.As(err, &appErr) {
		return appErr
	}
	switch status.Code(err) {
	case codes.NotFound:
		return errors.NotFound(resource, err)
	case codes.PermissionDenied:
		return errors.Forbidden("Not allowed to "+action, err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return errors.Upstream("Failed to "+action, err)
	default:
		return errors.Internal("Failed to "+action, err)
	}
}

func containsString(items []interface{}, s string) bool {
	for _, item := range items {
		if str, ok := item.(string); ok && str == s {
			return true
		}
	}
	return false
}
