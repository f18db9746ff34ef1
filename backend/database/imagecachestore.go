package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/upper/db/v4"
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/metrics"
	"vincit.fi/media-preview/common/logger"
)

// ImageCacheStore persists fetched image bytes in sqlite.
type ImageCacheStore struct {
	database   *Database
	collection db.Collection
	mux        sync.Mutex
}

var _ api.BytesCache = (*ImageCacheStore)(nil)

func NewImageCacheStore(database *Database) *ImageCacheStore {
	return &ImageCacheStore{
		database: database,
	}
}

func (s *ImageCacheStore) getCollection() db.Collection {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.collection == nil {
		s.collection = s.database.Session().Collection("image_cache")
	}
	return s.collection
}

func keyCondition(key apitype.CacheKey) db.Cond {
	high, low := keyColumns(key)
	return db.Cond{"key_high": high, "key_low": low}
}

func keyColumns(key apitype.CacheKey) (string, string) {
	return fmt.Sprintf("%016x", key.High), fmt.Sprintf("%016x", key.Low)
}

func (s *ImageCacheStore) Get(_ context.Context, key apitype.CacheKey) ([]byte, error) {
	var cached CachedImage
	result := s.getCollection().Find(keyCondition(key))
	if err := result.One(&cached); err != nil {
		if errors.Is(err, db.ErrNoMoreRows) {
			return nil, api.ErrNotCached
		}
		return nil, err
	}
	if err := result.Update(map[string]interface{}{"accessed_timestamp": time.Now()}); err != nil {
		logger.Warn.Printf("Could not update access time of %s: %s", key, err)
	}
	logger.Trace.Printf("Found %s from database cache (%d bytes)", key, len(cached.Data))
	return cached.Data, nil
}

func (s *ImageCacheStore) Put(_ context.Context, key apitype.CacheKey, data []byte) error {
	high, low := keyColumns(key)
	now := time.Now()
	return s.database.Session().Tx(func(session db.Session) error {
		collection := session.Collection("image_cache")
		existing := collection.Find(keyCondition(key))
		if exists, err := existing.Exists(); err != nil {
			return err
		} else if exists {
			logger.Trace.Printf("Updating %s in database cache", key)
			return existing.Update(map[string]interface{}{
				"data":               data,
				"byte_size":          len(data),
				"accessed_timestamp": now,
			})
		}
		logger.Trace.Printf("Adding %s to database cache", key)
		_, err := collection.Insert(&CachedImage{
			KeyHigh:      high,
			KeyLow:       low,
			Data:         data,
			ByteSize:     int64(len(data)),
			CreatedTime:  now,
			AccessedTime: now,
		})
		return err
	})
}

func (s *ImageCacheStore) Remove(_ context.Context, key apitype.CacheKey) error {
	return s.getCollection().Find(keyCondition(key)).Delete()
}

func (s *ImageCacheStore) Count() (uint64, error) {
	return s.getCollection().Find().Count()
}

// TotalSize is the sum of all cached payloads in bytes.
func (s *ImageCacheStore) TotalSize() (int64, error) {
	var result struct {
		Total *int64 `db:"total"`
	}
	if err := s.database.Session().SQL().
		Select(db.Raw("SUM(byte_size) AS total")).
		From("image_cache").
		One(&result); err != nil {
		return 0, err
	}
	if result.Total == nil {
		return 0, nil
	}
	return *result.Total, nil
}

// TrimToSize removes the least recently used entries until the cache is at
// most maxBytes large. It returns the number of removed entries.
func (s *ImageCacheStore) TrimToSize(maxBytes int64) (int, error) {
	total, err := s.TotalSize()
	if err != nil {
		return 0, err
	}
	if total <= maxBytes {
		metrics.PersistentCacheBytes.Set(float64(total))
		return 0, nil
	}
	var entries []CachedImage
	if err := s.getCollection().Find().
		Select("key_high", "key_low", "byte_size").
		OrderBy("accessed_timestamp").
		All(&entries); err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if total <= maxBytes {
			break
		}
		if err := s.getCollection().Find(db.Cond{"key_high": entry.KeyHigh, "key_low": entry.KeyLow}).Delete(); err != nil {
			return removed, err
		}
		total -= entry.ByteSize
		removed++
	}
	metrics.PersistentCacheEvictions.Add(float64(removed))
	metrics.PersistentCacheBytes.Set(float64(total))
	logger.Debug.Printf("Trimmed %d entries from database cache", removed)
	return removed, nil
}
