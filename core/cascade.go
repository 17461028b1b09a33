package core

import (
	"context"

	"gorm.io/gorm"
)

type (
	// BlobOwner is implemented by plugins whose rows reference stored files
	// and disappear through ON DELETE CASCADE. CollectBlobs runs before the
	// parent row is deleted and returns the keys of the files that will be
	// orphaned; PurgeBlobs removes them once the delete succeeded.
	BlobOwner interface {
		CollectBlobs(db *gorm.DB, column, id string) ([]string, error)
		PurgeBlobs(ctx context.Context, keys []string)
	}

	BlobOwners []BlobOwner
)

// Collect gathers the stored files of rows matching column = id from every
// owner. The returned func purges them and must only be called after the
// parent row is gone.
func (owners BlobOwners) Collect(db *gorm.DB, column, id string) (func(context.Context), error) {
	purges := make([]func(context.Context), 0, len(owners))
	for _, owner := range owners {
		keys, err := owner.CollectBlobs(db, column, id)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			continue
		}
		owner := owner
		purges = append(purges, func(ctx context.Context) { owner.PurgeBlobs(ctx, keys) })
	}
	return func(ctx context.Context) {
		for _, purge := range purges {
			purge(ctx)
		}
	}, nil
}
