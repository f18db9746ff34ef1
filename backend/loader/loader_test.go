package loader

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/imagesource"
	"vincit.fi/media-preview/backend/internal/stubloader"
	"vincit.fi/media-preview/common/event"
)

type StubFetcher struct {
	mux     sync.Mutex
	data    map[apitype.CacheKey][]byte
	calls   int
	block   chan struct{}
	failure error
}

func NewStubFetcher() *StubFetcher {
	return &StubFetcher{data: map[apitype.CacheKey][]byte{}}
}

func (s *StubFetcher) Fetch(ctx context.Context, request *api.LoadRequest, progress func(offset int, total int)) ([]byte, error) {
	s.mux.Lock()
	s.calls++
	data, ok := s.data[request.CacheKey]
	block := s.block
	failure := s.failure
	s.mux.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, failure
	}
	if !ok {
		return nil, api.ErrUnsupportedLocation
	}
	progress(len(data), len(data))
	return data, nil
}

func (s *StubFetcher) Calls() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.calls
}

type MemoryCache struct {
	mux  sync.Mutex
	data map[apitype.CacheKey][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: map[apitype.CacheKey][]byte{}}
}

func (s *MemoryCache) Get(_ context.Context, key apitype.CacheKey) ([]byte, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if data, ok := s.data[key]; ok {
		return data, nil
	}
	return nil, api.ErrNotCached
}

func (s *MemoryCache) Put(_ context.Context, key apitype.CacheKey, data []byte) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.data[key] = data
	return nil
}

func (s *MemoryCache) Remove(_ context.Context, key apitype.CacheKey) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryCache) Has(key apitype.CacheKey) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	_, ok := s.data[key]
	return ok
}

func newTestLoader(t *testing.T, fetcher api.Fetcher, cache api.BytesCache) (*Loader, *event.Runner) {
	runner := event.NewRunner()
	broker := event.InitBus(16, runner)
	loader := NewLoader(fetcher, cache, broker, 2, 4, time.Second)
	t.Cleanup(loader.Close)
	return loader, runner
}

// pumpUntil runs the processing thread until done reports true.
func pumpUntil(t *testing.T, runner *event.Runner, done func() bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for !done() {
		if _, err := runner.Wait(ctx); err != nil {
			t.Fatalf("processing thread timed out: %s", err)
		}
	}
}

var location = apitype.NewStorageImageLocation(4, 5000, 6, 10, 10)

func TestLoader_FetchesAndCaches(t *testing.T) {
	a := assert.New(t)
	fetcher := NewStubFetcher()
	bytes := stubloader.PNG(10, 10, color.White)
	fetcher.data[location.CacheKey()] = bytes
	cache := NewMemoryCache()
	loader, runner := newTestLoader(t, fetcher, cache)

	var result *api.LoadResult
	task := loader.Start(&api.LoadRequest{
		Location: location,
		CacheKey: location.CacheKey(),
		OnDone:   func(r *api.LoadResult) { result = r },
	})
	pumpUntil(t, runner, func() bool { return result != nil })

	a.Nil(result.Err)
	a.Equal(bytes, result.Bytes)
	a.False(result.Local)
	a.False(task.Local())
	a.Equal(1.0, task.Progress())
	a.True(cache.Has(location.CacheKey()))
	a.Equal(0, loader.Pending())
}

func TestLoader_CacheHitIsLocal(t *testing.T) {
	a := assert.New(t)
	fetcher := NewStubFetcher()
	cache := NewMemoryCache()
	bytes := stubloader.PNG(10, 10, color.White)
	require.NoError(t, cache.Put(context.Background(), location.CacheKey(), bytes))
	loader, runner := newTestLoader(t, fetcher, cache)

	var result *api.LoadResult
	task := loader.Start(&api.LoadRequest{
		Location: location,
		CacheKey: location.CacheKey(),
		OnDone:   func(r *api.LoadResult) { result = r },
	})
	pumpUntil(t, runner, func() bool { return result != nil })

	a.True(result.Local)
	a.True(task.Local())
	a.Equal(bytes, result.Bytes)
	a.Equal(0, fetcher.Calls())
}

func TestLoader_ErrorIsDelivered(t *testing.T) {
	a := assert.New(t)
	fetcher := NewStubFetcher()
	fetcher.failure = errors.New("connection reset")
	loader, runner := newTestLoader(t, fetcher, nil)

	var result *api.LoadResult
	loader.Start(&api.LoadRequest{
		Location: location,
		CacheKey: location.CacheKey(),
		OnDone:   func(r *api.LoadResult) { result = r },
	})
	pumpUntil(t, runner, func() bool { return result != nil })

	a.ErrorContains(result.Err, "connection reset")
	a.Nil(result.Bytes)
}

func TestLoader_CancelledTaskIsNotDelivered(t *testing.T) {
	a := assert.New(t)
	fetcher := NewStubFetcher()
	fetcher.block = make(chan struct{})
	fetcher.data[location.CacheKey()] = []byte{1}
	loader, runner := newTestLoader(t, fetcher, nil)

	called := false
	task := loader.Start(&api.LoadRequest{
		Location: location,
		CacheKey: location.CacheKey(),
		OnDone:   func(*api.LoadResult) { called = true },
	})
	task.Cancel()
	pumpUntil(t, runner, func() bool { return loader.Pending() == 0 })

	a.False(called)
}

func TestTask_RefreshFileReference(t *testing.T) {
	a := assert.New(t)
	withReference := location.WithFileReference([]byte{1})
	request := &api.LoadRequest{
		Location: withReference,
		CacheKey: withReference.CacheKey(),
		Size:     200,
		OnDone:   func(*api.LoadResult) {},
	}
	task := newTask(context.Background(), request)

	a.Equal([]byte{1}, task.currentRequest().Location.FileReference)
	task.RefreshFileReference([]byte{9, 9})
	current := task.currentRequest()
	a.Equal([]byte{9, 9}, current.Location.FileReference)
	a.Equal(request.CacheKey, current.CacheKey)
	a.Nil(current.OnDone)
	a.Equal([]byte{1}, request.Location.FileReference)

	task.reportProgress(50, 0)
	a.Equal(0.25, task.Progress())
	a.Equal(50, task.Offset())
}

func TestLoader_WithStorageSource(t *testing.T) {
	a := assert.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "picture.png")
	require.NoError(t, os.WriteFile(path, stubloader.PNG(12, 8, color.White), 0o644))

	fetcher := NewPathFetcher()
	fileLocation := fetcher.RegisterFile(path, 0, 0)
	loader, runner := newTestLoader(t, fetcher, NewMemoryCache())

	source := imagesource.NewStorageSource(loader, fileLocation, 0)
	source.Load(apitype.NoOrigin)
	a.True(source.Loading())
	pumpUntil(t, runner, func() bool { return !source.Loading() })

	a.Equal(12, source.Width())
	a.Equal(8, source.Height())
	a.NotNil(source.TakeLoaded())
}

func TestLoader_StaleResultAfterReload(t *testing.T) {
	a := assert.New(t)
	fetcher := NewStubFetcher()
	fetcher.data[location.CacheKey()] = stubloader.PNG(5, 5, color.White)
	loader, runner := newTestLoader(t, fetcher, nil)

	source := imagesource.NewStorageSource(loader, location, 0)
	source.Load(apitype.NoOrigin)
	source.Cancel()
	source.LoadEvenCancelled(apitype.NoOrigin)
	pumpUntil(t, runner, func() bool { return loader.Pending() == 0 })

	a.False(source.Loading())
	a.NotNil(source.TakeLoaded())
}
