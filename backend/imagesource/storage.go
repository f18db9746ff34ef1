package imagesource

import (
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
)

var _ api.Source = (*StorageSource)(nil)

// StorageSource loads a file stored in the remote file storage.
type StorageSource struct {
	remoteSource
	location apitype.StorageImageLocation
}

func NewStorageSource(loader api.FileLoader, location apitype.StorageImageLocation, size int) *StorageSource {
	source := &StorageSource{
		remoteSource: newRemoteSource(loader, size, location.Width, location.Height),
		location:     location,
	}
	source.buildRequest = source.request
	source.name = func() string { return source.location.String() }
	return source
}

func (s *StorageSource) request(origin apitype.FileOrigin) *api.LoadRequest {
	if !s.location.Valid() {
		return nil
	}
	return &api.LoadRequest{
		Location: s.location,
		CacheKey: s.location.CacheKey(),
		Origin:   origin,
		Size:     s.size,
	}
}

func (s *StorageSource) Location() apitype.StorageImageLocation {
	return s.location
}

// RefreshFileReference replaces the expiring access token. The cache key
// does not change.
func (s *StorageSource) RefreshFileReference(data []byte) {
	s.location = s.location.WithFileReference(data)
	if s.task != nil {
		s.task.RefreshFileReference(data)
	}
}

func (s *StorageSource) CacheKey() apitype.CacheKey {
	return s.location.CacheKey()
}

func (s *StorageSource) SetDelayedStorageLocation(apitype.StorageImageLocation) {
}

func (s *StorageSource) PerformDelayedLoad(apitype.FileOrigin) {
}
