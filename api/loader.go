package api

import (
	"context"
	"errors"
	"vincit.fi/media-preview/api/apitype"
)

var ErrUnsupportedLocation = errors.New("location not supported by fetcher")

type LoadResult struct {
	Bytes []byte
	Local bool
	Err   error
}

type LoadRequest struct {
	Location apitype.StorageImageLocation
	Geo      *apitype.GeoPointLocation
	CacheKey apitype.CacheKey
	Origin   apitype.FileOrigin
	Size     int
	// OnDone is always called on the processing thread and never for a
	// cancelled task.
	OnDone func(result *LoadResult)
}

func (s *LoadRequest) ObjectKey() string {
	if s.Geo != nil {
		return s.Geo.ObjectKey()
	}
	return s.Location.ObjectKey()
}

func (s *LoadRequest) String() string {
	if s.Geo != nil {
		return s.Geo.String()
	}
	return s.Location.String()
}

type LoadTask interface {
	Cancel()
	Progress() float64
	Offset() int
	Local() bool
	RefreshFileReference(data []byte)
}

// FileLoader moves the bytes of remote files. Start never blocks.
type FileLoader interface {
	Start(request *LoadRequest) LoadTask
}

// Fetcher is the blocking part of a FileLoader and runs on worker goroutines.
type Fetcher interface {
	Fetch(ctx context.Context, request *LoadRequest, progress func(offset int, total int)) ([]byte, error)
}
