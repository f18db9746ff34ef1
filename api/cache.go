package api

import (
	"context"
	"errors"
	"vincit.fi/media-preview/api/apitype"
)

var ErrNotCached = errors.New("not cached")

// BytesCache persists encoded image bytes by cache key.
type BytesCache interface {
	Get(ctx context.Context, key apitype.CacheKey) ([]byte, error)
	Put(ctx context.Context, key apitype.CacheKey, data []byte) error
	Remove(ctx context.Context, key apitype.CacheKey) error
}
