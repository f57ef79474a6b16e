package mongo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfornaciari/ebook-subscribe-api/internal/repository"
	"github.com/gfornaciari/ebook-subscribe-api/internal/repository/mongo"
)

func TestSubscriberRepository_MissingURI(t *testing.T) {
	repo := mongo.NewSubscriberRepository(mongo.Config{
		Database:       "GF-DB",
		Collection:     "subscribers",
		ConnectTimeout: time.Second,
	}, zerolog.Nop())

	err := repo.Upsert(context.Background(), "ada@example.com", "Ada")
	require.Error(t, err)

	var storeErr *repository.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "connect", storeErr.Op)
	assert.ErrorIs(t, err, mongo.ErrMissingURI)

	// the failed dial is not cached
	err = repo.Ping(context.Background())
	assert.ErrorIs(t, err, mongo.ErrMissingURI)

	assert.NoError(t, repo.Close(context.Background()))
}

func TestSubscriberRepository_UnreachableServer(t *testing.T) {
	repo := mongo.NewSubscriberRepository(mongo.Config{
		URI:            "mongodb://127.0.0.1:1/?directConnection=true",
		Database:       "GF-DB",
		Collection:     "subscribers",
		ConnectTimeout: 200 * time.Millisecond,
	}, zerolog.Nop())

	err := repo.Upsert(context.Background(), "ada@example.com", "Ada")
	var storeErr *repository.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "connect", storeErr.Op)
}
