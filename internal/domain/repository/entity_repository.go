package repository

import (
	"context"

	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
)

// EntityRepository backs previews for records that reference a user, shop or
// product only by id.
type EntityRepository interface {
	Lookup(ctx context.Context, kind entity.Kind, id entity.ID) (raw.Value, error)
	Product(ctx context.Context, id entity.ID) (raw.Value, error)
	Friends(ctx context.Context, me entity.ID) (entity.IDSet, error)
}
