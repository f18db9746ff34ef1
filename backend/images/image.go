package images

import (
	"image"
	"sync"
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/metrics"
	"vincit.fi/media-preview/common/logger"
)

// Image is one logical picture shown somewhere in the UI. It owns its source
// and every rasterized variant made from it.
//
// Image is not safe for concurrent use. All calls are expected to happen on
// the processing goroutine.
type Image struct {
	source   api.Source
	data     image.Image
	variants *VariantCache
	style    apitype.Style
	null     bool
	// Only set on the shared null images, which may be drawn from anywhere.
	mux *sync.Mutex
}

func NewImage(source api.Source, style apitype.Style) *Image {
	return &Image{
		source:   source,
		variants: NewVariantCache(),
		style:    style,
	}
}

// ReplaceSource swaps the owned source and drops every variant and the
// decoded data. Known geometry is carried over when the new source has none.
func (s *Image) ReplaceSource(source api.Source) {
	if s.null {
		return
	}
	width, height := s.source.Width(), s.source.Height()
	if width > 0 && height > 0 && (source.Width() <= 0 || source.Height() <= 0) {
		source.SetInformation(s.source.BytesSize(), width, height)
	}
	s.source = source
	s.variants.Clear()
	s.data = nil
	metrics.SourceReplacements.Inc()
	logger.Debug.Printf("Replaced image source, now %dx%d", source.Width(), source.Height())
}

func (s *Image) Source() api.Source {
	return s.source
}

// checkSource takes over a fresh decode from the source. Variants made before
// that are placeholders and are discarded.
func (s *Image) checkSource() {
	if s.data != nil {
		return
	}
	if loaded := s.source.TakeLoaded(); loaded != nil {
		s.variants.Clear()
		s.data = loaded
	}
}

func (s *Image) Loaded() bool {
	s.checkSource()
	return s.data != nil
}

func (s *Image) IsNull() bool {
	return s.null
}

// Original returns the full resolution picture, or a 1x1 transparent one
// while nothing has been decoded.
func (s *Image) Original() image.Image {
	s.checkSource()
	if s.data == nil {
		return Placeholder(apitype.VariantKey{}, 1, 1)
	}
	return s.data
}

func (s *Image) Pix(origin apitype.FileOrigin, width int, height int) *image.NRGBA {
	return s.pixCached(origin, apitype.VariantKey{
		Width:   width,
		Height:  height,
		Options: apitype.OptionSmooth,
	})
}

func (s *Image) PixRounded(origin apitype.FileOrigin, width int, height int, radius apitype.RoundRadius, corners apitype.RectParts) *image.NRGBA {
	return s.pixCached(origin, apitype.VariantKey{
		Width:   width,
		Height:  height,
		Radius:  radius,
		Corners: corners,
		Options: apitype.OptionSmooth | radius.Option(),
	})
}

func (s *Image) PixBlurred(origin apitype.FileOrigin, width int, height int) *image.NRGBA {
	return s.pixCached(origin, apitype.VariantKey{
		Width:   width,
		Height:  height,
		Options: apitype.OptionSmooth | apitype.OptionBlurred,
	})
}

func (s *Image) PixColored(origin apitype.FileOrigin, tint apitype.Tint, width int, height int) *image.NRGBA {
	return s.pixCached(origin, apitype.VariantKey{
		Width:   width,
		Height:  height,
		Tint:    tint,
		Options: apitype.OptionSmooth | apitype.OptionColored,
	})
}

func (s *Image) PixBlurredColored(origin apitype.FileOrigin, tint apitype.Tint, width int, height int) *image.NRGBA {
	return s.pixCached(origin, apitype.VariantKey{
		Width:   width,
		Height:  height,
		Tint:    tint,
		Options: apitype.OptionSmooth | apitype.OptionBlurred | apitype.OptionColored,
	})
}

// PixSingle renders the picture centered in an outer box, the way a single
// media item in a message is drawn.
func (s *Image) PixSingle(origin apitype.FileOrigin, width int, height int, outerWidth int, outerHeight int, radius apitype.RoundRadius, corners apitype.RectParts, tint apitype.Tint) *image.NRGBA {
	options := apitype.OptionSmooth | radius.Option()
	if tint != apitype.NoTint {
		options |= apitype.OptionColored
	}
	return s.pixCached(origin, apitype.VariantKey{
		Width:       width,
		Height:      height,
		OuterWidth:  outerWidth,
		OuterHeight: outerHeight,
		Radius:      radius,
		Corners:     corners,
		Tint:        tint,
		Options:     options,
	})
}

func (s *Image) PixBlurredSingle(origin apitype.FileOrigin, width int, height int, outerWidth int, outerHeight int, radius apitype.RoundRadius, corners apitype.RectParts) *image.NRGBA {
	return s.pixCached(origin, apitype.VariantKey{
		Width:       width,
		Height:      height,
		OuterWidth:  outerWidth,
		OuterHeight: outerHeight,
		Radius:      radius,
		Corners:     corners,
		Options:     apitype.OptionSmooth | apitype.OptionBlurred | radius.Option(),
	})
}

func (s *Image) PixCircled(origin apitype.FileOrigin, width int, height int) *image.NRGBA {
	return s.pixCached(origin, apitype.VariantKey{
		Width:   width,
		Height:  height,
		Options: apitype.OptionSmooth | apitype.OptionCircled,
	})
}

func (s *Image) PixBlurredCircled(origin apitype.FileOrigin, width int, height int) *image.NRGBA {
	return s.pixCached(origin, apitype.VariantKey{
		Width:   width,
		Height:  height,
		Options: apitype.OptionSmooth | apitype.OptionBlurred | apitype.OptionCircled,
	})
}

// PixNoCache rasterizes a variant that is owned by the caller. Outer
// dimensions of 0 or less mean no outer box.
func (s *Image) PixNoCache(origin apitype.FileOrigin, width int, height int, options apitype.Options, outerWidth int, outerHeight int, tint apitype.Tint) *image.NRGBA {
	s.ensureLoading(origin)
	return s.rasterize(apitype.VariantKey{
		Width:       width,
		Height:      height,
		OuterWidth:  outerWidth,
		OuterHeight: outerHeight,
		Tint:        tint,
		Options:     options,
	}, "nocache")
}

func (s *Image) PixColoredNoCache(origin apitype.FileOrigin, tint apitype.Tint, width int, height int, smooth bool) *image.NRGBA {
	options := apitype.OptionColored
	if smooth {
		options |= apitype.OptionSmooth
	}
	return s.PixNoCache(origin, width, height, options, 0, 0, tint)
}

func (s *Image) PixBlurredColoredNoCache(origin apitype.FileOrigin, tint apitype.Tint, width int, height int) *image.NRGBA {
	return s.PixNoCache(origin, width, height, apitype.OptionSmooth|apitype.OptionBlurred|apitype.OptionColored, 0, 0, tint)
}

func (s *Image) pixCached(origin apitype.FileOrigin, key apitype.VariantKey) *image.NRGBA {
	if s.mux != nil {
		s.mux.Lock()
		defer s.mux.Unlock()
	}
	s.ensureLoading(origin)
	if pixmap, ok := s.variants.Get(key); ok {
		logger.Trace.Printf("Use cached %s", key)
		return pixmap
	}
	pixmap := s.rasterize(key, "cache")
	s.variants.Put(key, pixmap)
	return pixmap
}

// ensureLoading asks the source for data and takes over anything it decoded
// synchronously, so that the variant lookup afterwards sees it.
func (s *Image) ensureLoading(origin apitype.FileOrigin) {
	if !s.Loaded() {
		s.source.Load(origin)
		s.checkSource()
	}
}

func (s *Image) rasterize(key apitype.VariantKey, cache string) *image.NRGBA {
	if s.data == nil {
		metrics.Rasterizations.WithLabelValues(cache, "placeholder").Inc()
		return Placeholder(key, s.source.Width(), s.source.Height())
	}
	metrics.Rasterizations.WithLabelValues(cache, "decoded").Inc()
	return Prepare(s.data, key, s.style)
}

func (s *Image) Load(origin apitype.FileOrigin) {
	if !s.null && !s.Loaded() {
		s.source.Load(origin)
	}
}

func (s *Image) LoadEvenCancelled(origin apitype.FileOrigin) {
	if !s.null && !s.Loaded() {
		s.source.LoadEvenCancelled(origin)
	}
}

// Unload drops the full resolution data. Rasterized variants are kept.
func (s *Image) Unload() {
	if s.null {
		return
	}
	s.source.Unload()
	s.data = nil
}

func (s *Image) SetDelayedStorageLocation(origin apitype.FileOrigin, location apitype.StorageImageLocation) {
	if s.null {
		return
	}
	s.source.SetDelayedStorageLocation(location)
	if !s.Loaded() {
		s.source.PerformDelayedLoad(origin)
	}
}

func (s *Image) SetImageBytes(bytes []byte) {
	if s.null {
		return
	}
	s.source.SetImageBytes(bytes)
	if loaded := s.source.TakeLoaded(); loaded != nil {
		s.variants.Clear()
		s.data = loaded
	}
}

func (s *Image) Loading() bool {
	return s.source.Loading()
}

func (s *Image) DisplayLoading() bool {
	return s.source.DisplayLoading()
}

func (s *Image) Cancel() {
	if s.null {
		return
	}
	s.source.Cancel()
}

func (s *Image) Progress() float64 {
	if s.Loaded() {
		return 1
	}
	return s.source.Progress()
}

func (s *Image) LoadOffset() int {
	return s.source.LoadOffset()
}

// Failed tells if the source gave up loading the picture.
func (s *Image) Failed() bool {
	if failing, ok := s.source.(api.FailingSource); ok {
		return failing.Failed()
	}
	return false
}

func (s *Image) Width() int {
	return s.source.Width()
}

func (s *Image) Height() int {
	return s.source.Height()
}

func (s *Image) Size() apitype.Size {
	return apitype.SizeOf(s.Width(), s.Height())
}

func (s *Image) BytesSize() int {
	return s.source.BytesSize()
}

func (s *Image) SetInformation(size int, width int, height int) {
	if s.null {
		return
	}
	s.source.SetInformation(size, width, height)
}

func (s *Image) Location() apitype.StorageImageLocation {
	return s.source.Location()
}

func (s *Image) RefreshFileReference(data []byte) {
	if s.null {
		return
	}
	s.source.RefreshFileReference(data)
}

func (s *Image) CacheKey() apitype.CacheKey {
	return s.source.CacheKey()
}

func (s *Image) BytesForCache() []byte {
	return s.source.BytesForCache()
}

// ByteSize approximates the memory held by the decoded data and variants.
func (s *Image) ByteSize() int {
	return GetByteLength(s.data) + s.variants.ByteSize()
}

func (s *Image) VariantCount() int {
	return s.variants.Len()
}
