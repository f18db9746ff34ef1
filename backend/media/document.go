package media

import (
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/images"
	"vincit.fi/media-preview/backend/imagesource"
	"vincit.fi/media-preview/backend/replypreview"
	"vincit.fi/media-preview/common/logger"
)

type DocumentId int64

type DocumentInfo struct {
	Id DocumentId
	// ThumbnailLocation may be left empty when the document is known to have
	// a thumbnail whose location arrives later.
	ThumbnailLocation apitype.StorageImageLocation
	ThumbnailSize     int
	HasThumbnail      bool
	ThumbnailWidth    int
	ThumbnailHeight   int
	InlineBytes       []byte
	VideoMessage      bool
}

// Document is a file attached to a message, with an optional thumbnail and
// an optional tiny inline preview.
type Document struct {
	info        DocumentInfo
	loader      api.FileLoader
	style       apitype.Style
	maxFailures int
	thumbnail   *images.Image
	inline      *images.Image
	inlineTried bool
}

var _ replypreview.Document = (*Document)(nil)

func NewDocument(info DocumentInfo, loader api.FileLoader, style apitype.Style, maxFailures int) *Document {
	if info.ThumbnailLocation.Valid() {
		info.HasThumbnail = true
	}
	return &Document{
		info:        info,
		loader:      loader,
		style:       style,
		maxFailures: maxFailures,
	}
}

func (s *Document) Id() DocumentId {
	return s.info.Id
}

func (s *Document) HasThumbnail() bool {
	return s.info.HasThumbnail
}

func (s *Document) IsVideoMessage() bool {
	return s.info.VideoMessage
}

func (s *Document) thumbnailImage() *images.Image {
	if s.thumbnail == nil && s.info.HasThumbnail {
		var source interface {
			api.Source
			SetMaxFailures(int)
		}
		if s.info.ThumbnailLocation.Valid() {
			source = imagesource.NewStorageSource(s.loader, s.info.ThumbnailLocation, s.info.ThumbnailSize)
		} else {
			source = imagesource.NewDelayedStorageSource(s.loader, s.info.ThumbnailWidth, s.info.ThumbnailHeight)
		}
		source.SetMaxFailures(s.maxFailures)
		s.thumbnail = images.NewImage(source, s.style)
	}
	return s.thumbnail
}

// SetThumbnailLocation binds the thumbnail location that was unknown when
// the document was created and issues a load that was waiting for it.
func (s *Document) SetThumbnailLocation(origin apitype.FileOrigin, location apitype.StorageImageLocation) {
	s.info.HasThumbnail = true
	s.info.ThumbnailLocation = location
	if thumbnail := s.thumbnailImage(); thumbnail != nil {
		thumbnail.SetDelayedStorageLocation(origin, location)
	}
}

func (s *Document) inlineImage() *images.Image {
	if !s.inlineTried && len(s.info.InlineBytes) > 0 {
		s.inlineTried = true
		source := imagesource.NewImageSourceFromBytes(s.info.InlineBytes)
		inline := images.NewImage(source, s.style)
		if inline.Loaded() {
			s.inline = inline
		} else {
			logger.Warn.Printf("Document %d has an unreadable inline thumbnail", s.info.Id)
		}
	}
	return s.inline
}

func (s *Document) CreateMediaView() replypreview.DocumentMedia {
	return &DocumentMedia{document: s}
}

// DocumentMedia is a short lived view used to request and poll the
// document's pictures. Once the thumbnail is wanted every poll asks for it
// again, so a failed load is retried until the source gives up.
type DocumentMedia struct {
	document *Document
	wanted   bool
	origin   apitype.FileOrigin
}

func (s *DocumentMedia) ThumbnailWanted(origin apitype.FileOrigin) {
	s.wanted = true
	s.origin = origin
	if thumbnail := s.document.thumbnailImage(); thumbnail != nil {
		thumbnail.Load(origin)
	}
}

func (s *DocumentMedia) Thumbnail() *images.Image {
	thumbnail := s.document.thumbnail
	if thumbnail == nil {
		return nil
	}
	if thumbnail.Loaded() {
		return thumbnail
	}
	if s.wanted {
		thumbnail.Load(s.origin)
	}
	return nil
}

func (s *DocumentMedia) ThumbnailInline() *images.Image {
	return s.document.inlineImage()
}

func (s *DocumentMedia) ThumbnailFailed() bool {
	if thumbnail := s.document.thumbnail; thumbnail != nil {
		return thumbnail.Failed()
	}
	return false
}
