package imagesource

import (
	"image"
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/common/imagereader"
	"vincit.fi/media-preview/common/logger"
)

var _ api.Source = (*ImageSource)(nil)

// ImageSource holds an already decoded picture, for example a locally
// generated preview. It never touches the network.
type ImageSource struct {
	data   image.Image
	taken  bool
	bytes  []byte
	format string
	size   int
	width  int
	height int
}

func NewImageSource(data image.Image, format string) *ImageSource {
	source := &ImageSource{
		data:   data,
		format: imagereader.NormalizeFormat(format),
	}
	if data != nil {
		source.width = data.Bounds().Dx()
		source.height = data.Bounds().Dy()
	}
	return source
}

// NewImageSourceFromBytes keeps the encoded bytes and decodes them on the
// first Load.
func NewImageSourceFromBytes(bytes []byte) *ImageSource {
	source := &ImageSource{
		bytes: bytes,
		size:  len(bytes),
	}
	source.decodeBytes()
	return source
}

func (s *ImageSource) decodeBytes() bool {
	decoded, format, err := imagereader.Decode(s.bytes)
	if err != nil {
		logger.Warn.Printf("Could not decode in-memory image: %s", err)
		return false
	}
	s.data = decoded
	s.taken = false
	s.format = format
	s.width = decoded.Bounds().Dx()
	s.height = decoded.Bounds().Dy()
	return true
}

func (s *ImageSource) Load(apitype.FileOrigin) {
	if s.data == nil && len(s.bytes) > 0 {
		s.decodeBytes()
	}
}

func (s *ImageSource) LoadEvenCancelled(origin apitype.FileOrigin) {
	s.Load(origin)
}

func (s *ImageSource) TakeLoaded() image.Image {
	if s.data == nil || s.taken {
		return nil
	}
	s.taken = true
	return s.data
}

func (s *ImageSource) Unload() {
	if s.data != nil && len(s.bytes) == 0 {
		if encoded, err := imagereader.Encode(s.data, s.format); err != nil {
			logger.Error.Printf("Could not keep in-memory image while unloading: %s", err)
			return
		} else {
			s.bytes = encoded
			s.size = len(encoded)
		}
	}
	s.data = nil
	s.taken = false
}

func (s *ImageSource) Loading() bool {
	return false
}

func (s *ImageSource) DisplayLoading() bool {
	return false
}

func (s *ImageSource) Cancel() {
}

func (s *ImageSource) Progress() float64 {
	return 1
}

func (s *ImageSource) LoadOffset() int {
	return 0
}

func (s *ImageSource) Location() apitype.StorageImageLocation {
	return apitype.StorageImageLocation{}
}

func (s *ImageSource) RefreshFileReference([]byte) {
}

func (s *ImageSource) CacheKey() apitype.CacheKey {
	return apitype.CacheKey{}
}

func (s *ImageSource) SetDelayedStorageLocation(apitype.StorageImageLocation) {
}

func (s *ImageSource) PerformDelayedLoad(apitype.FileOrigin) {
}

func (s *ImageSource) SetImageBytes(bytes []byte) {
	previous := s.bytes
	s.bytes = bytes
	if s.decodeBytes() {
		s.size = len(bytes)
	} else {
		s.bytes = previous
	}
}

func (s *ImageSource) Width() int {
	return s.width
}

func (s *ImageSource) Height() int {
	return s.height
}

func (s *ImageSource) BytesSize() int {
	return s.size
}

func (s *ImageSource) SetInformation(size int, width int, height int) {
	if size > 0 {
		s.size = size
	}
	if width > 0 && height > 0 {
		s.width = width
		s.height = height
	}
}

func (s *ImageSource) Format() string {
	return s.format
}

func (s *ImageSource) BytesForCache() []byte {
	if len(s.bytes) > 0 {
		return s.bytes
	}
	if s.data == nil {
		return nil
	}
	encoded, err := imagereader.Encode(s.data, s.format)
	if err != nil {
		logger.Error.Printf("Could not encode in-memory image: %s", err)
		return nil
	}
	return encoded
}
