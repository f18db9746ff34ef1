package images

import (
	"image"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/metrics"
)

// VariantCache keeps the rasterized renderings of one image. Entries are only
// ever dropped all at once.
type VariantCache struct {
	variants map[apitype.VariantKey]*image.NRGBA
}

func NewVariantCache() *VariantCache {
	return &VariantCache{
		variants: map[apitype.VariantKey]*image.NRGBA{},
	}
}

func (s *VariantCache) Get(key apitype.VariantKey) (*image.NRGBA, bool) {
	pixmap, ok := s.variants[key]
	if ok {
		metrics.VariantCacheHits.Inc()
	} else {
		metrics.VariantCacheMisses.Inc()
	}
	return pixmap, ok
}

func (s *VariantCache) Put(key apitype.VariantKey, pixmap *image.NRGBA) {
	s.variants[key] = pixmap
}

func (s *VariantCache) Clear() {
	if len(s.variants) > 0 {
		s.variants = map[apitype.VariantKey]*image.NRGBA{}
	}
}

func (s *VariantCache) Len() int {
	return len(s.variants)
}

func (s *VariantCache) ByteSize() (byteSize int) {
	for _, pixmap := range s.variants {
		byteSize += GetByteLength(pixmap)
	}
	return
}

// GetByteLength approximates the memory used by a decoded picture.
func GetByteLength(img image.Image) int {
	if img != nil {
		const bytesPerPixel = 4
		bounds := img.Bounds()
		return bounds.Dx() * bounds.Dy() * bytesPerPixel
	} else {
		return 0
	}
}
