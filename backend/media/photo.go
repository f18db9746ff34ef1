package media

import (
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/images"
	"vincit.fi/media-preview/backend/imagesource"
	"vincit.fi/media-preview/backend/replypreview"
	"vincit.fi/media-preview/common/logger"
)

type PhotoId int64

type PhotoInfo struct {
	Id          PhotoId
	Locations   map[apitype.PhotoSize]apitype.StorageImageLocation
	Sizes       map[apitype.PhotoSize]int
	InlineBytes []byte
}

type Photo struct {
	info        PhotoInfo
	loader      api.FileLoader
	style       apitype.Style
	maxFailures int
	images      map[apitype.PhotoSize]*images.Image
	inline      *images.Image
	inlineTried bool
}

var _ replypreview.Photo = (*Photo)(nil)

func NewPhoto(info PhotoInfo, loader api.FileLoader, style apitype.Style, maxFailures int) *Photo {
	return &Photo{
		info:        info,
		loader:      loader,
		style:       style,
		maxFailures: maxFailures,
		images:      map[apitype.PhotoSize]*images.Image{},
	}
}

func (s *Photo) Id() PhotoId {
	return s.info.Id
}

func (s *Photo) HasSize(size apitype.PhotoSize) bool {
	location, ok := s.info.Locations[size]
	return ok && location.Valid()
}

// Image returns the picture of the given size, creating it on first use. It
// is nil when the photo has no such size.
func (s *Photo) Image(size apitype.PhotoSize) *images.Image {
	if existing, ok := s.images[size]; ok {
		return existing
	}
	if !s.HasSize(size) {
		return nil
	}
	source := imagesource.NewStorageSource(s.loader, s.info.Locations[size], s.info.Sizes[size])
	source.SetMaxFailures(s.maxFailures)
	img := images.NewImage(source, s.style)
	s.images[size] = img
	return img
}

func (s *Photo) inlineImage() *images.Image {
	if !s.inlineTried && len(s.info.InlineBytes) > 0 {
		s.inlineTried = true
		inline := images.NewImage(imagesource.NewImageSourceFromBytes(s.info.InlineBytes), s.style)
		if inline.Loaded() {
			s.inline = inline
		} else {
			logger.Warn.Printf("Photo %d has an unreadable inline thumbnail", s.info.Id)
		}
	}
	return s.inline
}

func (s *Photo) CreateMediaView() replypreview.PhotoMedia {
	return &PhotoMedia{photo: s, wanted: map[apitype.PhotoSize]apitype.FileOrigin{}}
}

// PhotoMedia polls the sizes of one photo. A wanted size is asked for again on
// every poll until it loads or its source gives up. When the small size is
// missing or has given up, the large size is loaded in its place.
type PhotoMedia struct {
	photo  *Photo
	wanted map[apitype.PhotoSize]apitype.FileOrigin
}

func (s *PhotoMedia) Wanted(size apitype.PhotoSize, origin apitype.FileOrigin) {
	s.wanted[size] = origin
	if img := s.photo.Image(size); img != nil {
		img.Load(origin)
	}
}

// Image returns the picture of the given size once it has been decoded.
func (s *PhotoMedia) Image(size apitype.PhotoSize) *images.Image {
	origin, wanted := s.wanted[size]
	if !wanted && size == apitype.PhotoSizeLarge {
		origin, wanted = s.smallGivenUp()
	}
	img := s.photo.images[size]
	if wanted {
		img = s.photo.Image(size)
	}
	if img == nil {
		return nil
	}
	if img.Loaded() {
		return img
	}
	if wanted {
		img.Load(origin)
	}
	return nil
}

func (s *PhotoMedia) smallGivenUp() (apitype.FileOrigin, bool) {
	origin, wanted := s.wanted[apitype.PhotoSizeSmall]
	if !wanted {
		return origin, false
	}
	small := s.photo.Image(apitype.PhotoSizeSmall)
	return origin, small == nil || small.Failed()
}

func (s *PhotoMedia) ThumbnailInline() *images.Image {
	return s.photo.inlineImage()
}
