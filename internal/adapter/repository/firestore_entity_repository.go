package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/normalize"
	"socialmall/internal/domain/raw"
	"socialmall/internal/domain/repository"
	"socialmall/pkg/errors"
)

type firestoreEntityRepository struct {
	client *firestore.Client
}

func NewFirestoreEntityRepository(client *firestore.Client) repository.EntityRepository {
	return &firestoreEntityRepository{
		client: client,
	}
}

// Lookup reads a user or shop. For KindUnknown both collections are tried,
// users first.
func (r *firestoreEntityRepository) Lookup(ctx context.Context, kind entity.Kind, id entity.ID) (raw.Value, error) {
	var collections []string
	switch kind {
	case entity.KindUser:
		collections = []string{usersCollection}
	case entity.KindShop:
		collections = []string{shopsCollection}
	default:
		collections = []string{usersCollection, shopsCollection}
	}

	for _, name := range collections {
		doc, err := r.client.Collection(name).Doc(id.String()).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				continue
			}
			return raw.Value{}, mapError("Entity", "look up entity", err)
		}
		v := docValue(doc)
		if v.Get("type").IsAbsent() {
			t := string(entity.KindUser)
			if name == shopsCollection {
				t = string(entity.KindShop)
			}
			v = v.With("type", raw.Str(t))
		}
		return v, nil
	}
	return raw.Value{}, errors.NotFound("Entity", nil)
}

func (r *firestoreEntityRepository) Product(ctx context.Context, id entity.ID) (raw.Value, error) {
	doc, err := r.client.Collection(productsCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		return raw.Value{}, mapError("Product", "get product", err)
	}
	return docValue(doc), nil
}

func (r *firestoreEntityRepository) Friends(ctx context.Context, me entity.ID) (entity.IDSet, error) {
	doc, err := r.client.Collection(usersCollection).Doc(me.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return entity.IDSet{}, nil
		}
		return nil, mapError("User", "get friends", err)
	}

	friends := entity.IDSet{}
	for _, item := range docValue(doc).Get("friends").Items() {
		friends.Add(normalize.ResolveID(item))
	}
	return friends, nil
}
