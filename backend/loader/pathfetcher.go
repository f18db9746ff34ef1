package loader

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"sync"

	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/common/logger"
)

const (
	pathDcId  = 1
	chunkSize = 128 * 1024
)

// PathFetcher serves locations registered for files on the local disk.
type PathFetcher struct {
	mux   sync.RWMutex
	paths map[apitype.CacheKey]string
}

var _ api.Fetcher = (*PathFetcher)(nil)

func NewPathFetcher() *PathFetcher {
	return &PathFetcher{
		paths: map[apitype.CacheKey]string{},
	}
}

// RegisterFile makes a storage location for a file. The same path always gets
// the same location.
func (s *PathFetcher) RegisterFile(path string, width int, height int) apitype.StorageImageLocation {
	hash := fnv.New64a()
	_, _ = io.WriteString(hash, path)
	volume := int64(hash.Sum64() &^ (1 << 63))
	if volume == 0 {
		volume = 1
	}
	location := apitype.NewStorageImageLocation(pathDcId, volume, 0, width, height)
	s.Register(location.CacheKey(), path)
	return location
}

func (s *PathFetcher) Register(key apitype.CacheKey, path string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.paths[key] = path
}

func (s *PathFetcher) path(key apitype.CacheKey) (string, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	path, ok := s.paths[key]
	return path, ok
}

func (s *PathFetcher) Fetch(ctx context.Context, request *api.LoadRequest, progress func(offset int, total int)) ([]byte, error) {
	path, ok := s.path(request.CacheKey)
	if !ok {
		return nil, api.ErrUnsupportedLocation
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	total := request.Size
	if stat, err := file.Stat(); err == nil {
		total = int(stat.Size())
	}
	logger.Trace.Printf("Reading %s (%d bytes)", path, total)
	return readChunks(ctx, file, total, progress)
}

// readChunks reads everything from reader, checking for cancellation between
// chunks.
func readChunks(ctx context.Context, reader io.Reader, total int, progress func(offset int, total int)) ([]byte, error) {
	data := make([]byte, 0, max(total, 0))
	buffer := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := reader.Read(buffer)
		data = append(data, buffer[:n]...)
		if n > 0 {
			progress(len(data), total)
		}
		if err == io.EOF {
			return data, nil
		} else if err != nil {
			return nil, fmt.Errorf("read after %d bytes: %w", len(data), err)
		}
	}
}
