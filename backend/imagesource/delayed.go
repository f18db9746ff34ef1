package imagesource

import (
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
)

var _ api.Source = (*DelayedStorageSource)(nil)

// DelayedStorageSource is a storage source whose location becomes known
// after construction. Loads requested before that are remembered and issued
// by PerformDelayedLoad.
type DelayedStorageSource struct {
	StorageSource
	loadRequested bool
}

func NewDelayedStorageSource(loader api.FileLoader, width int, height int) *DelayedStorageSource {
	source := &DelayedStorageSource{
		StorageSource: StorageSource{
			remoteSource: newRemoteSource(loader, 0, width, height),
		},
	}
	source.buildRequest = source.request
	source.name = func() string { return source.location.String() }
	return source
}

func (s *DelayedStorageSource) Load(origin apitype.FileOrigin) {
	if s.location.Valid() {
		s.StorageSource.Load(origin)
	} else if !s.cancelled {
		s.loadRequested = true
	}
}

func (s *DelayedStorageSource) LoadEvenCancelled(origin apitype.FileOrigin) {
	if s.location.Valid() {
		s.StorageSource.LoadEvenCancelled(origin)
	} else {
		s.cancelled = false
		s.loadRequested = true
	}
}

func (s *DelayedStorageSource) Loading() bool {
	if s.location.Valid() {
		return s.StorageSource.Loading()
	}
	return s.loadRequested
}

func (s *DelayedStorageSource) DisplayLoading() bool {
	if s.location.Valid() {
		return s.StorageSource.DisplayLoading()
	}
	return s.loadRequested
}

func (s *DelayedStorageSource) Cancel() {
	if s.loadRequested {
		s.loadRequested = false
		s.cancelled = true
	}
	s.StorageSource.Cancel()
}

func (s *DelayedStorageSource) SetDelayedStorageLocation(location apitype.StorageImageLocation) {
	s.location = location
	if s.width <= 0 || s.height <= 0 {
		s.width = location.Width
		s.height = location.Height
	}
}

// PerformDelayedLoad issues a load requested before the location was known.
// It does nothing until SetDelayedStorageLocation gave a valid location.
func (s *DelayedStorageSource) PerformDelayedLoad(origin apitype.FileOrigin) {
	if !s.location.Valid() || !s.loadRequested {
		return
	}
	s.loadRequested = false
	if s.cancelled {
		return
	}
	s.StorageSource.Load(origin)
}
