package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeBlobOwner struct {
	keys   []string
	err    error
	column string
	purged []string
}

func (f *fakeBlobOwner) CollectBlobs(db *gorm.DB, column, id string) ([]string, error) {
	f.column = column
	return f.keys, f.err
}

func (f *fakeBlobOwner) PurgeBlobs(ctx context.Context, keys []string) {
	f.purged = append(f.purged, keys...)
}

func TestBlobOwnersCollect(t *testing.T) {
	first := &fakeBlobOwner{keys: []string{"uploads/item/a.png"}}
	second := &fakeBlobOwner{}

	purge, err := BlobOwners{first, second}.Collect(nil, "user_id", "u1")
	require.NoError(t, err)
	assert.Equal(t, "user_id", first.column)
	assert.Empty(t, first.purged, "nothing is purged before the delete")

	purge(context.Background())
	assert.Equal(t, []string{"uploads/item/a.png"}, first.purged)
	assert.Empty(t, second.purged)

	failing := &fakeBlobOwner{err: errors.New("boom")}
	_, err = BlobOwners{first, failing}.Collect(nil, "user_id", "u1")
	assert.Error(t, err)

	purge, err = BlobOwners(nil).Collect(nil, "user_id", "u1")
	require.NoError(t, err)
	purge(context.Background())
}
