package imagesource

import (
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
)

var _ api.Source = (*GeoPointSource)(nil)

// GeoPointSource loads a rendered map tile for a geo point.
type GeoPointSource struct {
	remoteSource
	location apitype.GeoPointLocation
}

func NewGeoPointSource(loader api.FileLoader, location apitype.GeoPointLocation) *GeoPointSource {
	scale := location.Scale
	if scale <= 0 {
		scale = 1
	}
	source := &GeoPointSource{
		remoteSource: newRemoteSource(loader, 0, location.Width*scale, location.Height*scale),
		location:     location,
	}
	source.buildRequest = source.request
	source.name = func() string { return source.location.String() }
	return source
}

func (s *GeoPointSource) request(origin apitype.FileOrigin) *api.LoadRequest {
	location := s.location
	return &api.LoadRequest{
		Geo:      &location,
		CacheKey: s.location.CacheKey(),
		Origin:   origin,
	}
}

func (s *GeoPointSource) GeoLocation() apitype.GeoPointLocation {
	return s.location
}

func (s *GeoPointSource) Location() apitype.StorageImageLocation {
	return apitype.StorageImageLocation{}
}

func (s *GeoPointSource) RefreshFileReference([]byte) {
}

func (s *GeoPointSource) CacheKey() apitype.CacheKey {
	return s.location.CacheKey()
}

func (s *GeoPointSource) SetDelayedStorageLocation(apitype.StorageImageLocation) {
}

func (s *GeoPointSource) PerformDelayedLoad(apitype.FileOrigin) {
}
