package replypreview

import (
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/imagesource"
	"vincit.fi/media-preview/backend/images"
	"vincit.fi/media-preview/backend/metrics"
	"vincit.fi/media-preview/common/logger"
)

type State int

const (
	StateEmpty State = iota
	StatePlaceholder
	StateResolved
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StatePlaceholder:
		return "Placeholder"
	case StateResolved:
		return "Resolved"
	case StateExhausted:
		return "Exhausted"
	}
	return "Unknown"
}

// ReplyPreview is the small picture shown next to a quoted message. It is
// built from either a document or a photo and only ever improves.
type ReplyPreview struct {
	document      Document
	documentMedia DocumentMedia
	photo         Photo
	photoMedia    PhotoMedia

	image   *images.Image
	good    bool
	checked bool
	style   apitype.Style
}

func NewDocumentReplyPreview(document Document, style apitype.Style) *ReplyPreview {
	return &ReplyPreview{
		document: document,
		style:    style,
	}
}

func NewPhotoReplyPreview(photo Photo, style apitype.Style) *ReplyPreview {
	return &ReplyPreview{
		photo: photo,
		style: style,
	}
}

// Image resolves the best preview available right now. It returns nil while
// there is nothing to show.
func (s *ReplyPreview) Image(origin apitype.FileOrigin) *images.Image {
	if s.checked {
		return s.image
	}
	if s.document != nil {
		s.resolveDocument(origin)
	} else if s.photo != nil {
		s.resolvePhoto(origin)
	}
	return s.image
}

func (s *ReplyPreview) resolveDocument(origin apitype.FileOrigin) {
	hasThumbnail := s.document.HasThumbnail()
	if s.image != nil && (s.good || !hasThumbnail) {
		return
	}
	if s.documentMedia == nil {
		s.documentMedia = s.document.CreateMediaView()
		if hasThumbnail {
			s.documentMedia.ThumbnailWanted(origin)
		}
	}
	option := apitype.OptionNone
	if s.document.IsVideoMessage() {
		option = apitype.OptionCircled
	}

	prepared := false
	if thumbnail := s.documentMedia.Thumbnail(); thumbnail != nil {
		prepared = s.prepare(thumbnail, option)
	}
	if !prepared && s.image == nil {
		if inline := s.documentMedia.ThumbnailInline(); inline != nil {
			s.prepare(inline, option|apitype.OptionBlurred)
		}
	}
	if prepared || !hasThumbnail || s.documentMedia.ThumbnailFailed() {
		s.checked = true
		s.documentMedia = nil
		logger.Trace.Printf("Document reply preview checked, good: %t", s.good)
	}
}

func (s *ReplyPreview) resolvePhoto(origin apitype.FileOrigin) {
	if s.image != nil && s.good {
		return
	}
	if s.photoMedia == nil {
		s.photoMedia = s.photo.CreateMediaView()
		s.photoMedia.Wanted(apitype.PhotoSizeSmall, origin)
	}
	prepared := false
	for _, size := range []apitype.PhotoSize{apitype.PhotoSizeSmall, apitype.PhotoSizeLarge} {
		if image := s.photoMedia.Image(size); image != nil && s.prepare(image, apitype.OptionNone) {
			prepared = true
			break
		}
	}
	if !prepared && s.image == nil {
		if inline := s.photoMedia.ThumbnailInline(); inline != nil {
			s.prepare(inline, apitype.OptionBlurred)
		}
	}
	if s.good {
		s.photoMedia = nil
	}
}

// prepare renders image into the preview. A blurred result never replaces a
// good one.
func (s *ReplyPreview) prepare(image *images.Image, options apitype.Options) bool {
	if image.IsNull() || !image.Loaded() {
		return false
	}
	blurred := options.Has(apitype.OptionBlurred)
	if s.good && blurred {
		return false
	}

	retina := s.style.RetinaFactor
	if retina <= 0 {
		retina = 1
	}
	thumbSize := apitype.ScaleToCover(image.Width(), image.Height(), s.style.ReplyBarHeight).Scaled(retina)
	outerSize := s.style.ReplyBarHeight * retina
	bitmap := image.PixNoCache(
		apitype.NoOrigin,
		thumbSize.Width(),
		thumbSize.Height(),
		apitype.OptionSmooth|apitype.OptionTransparentBackground|options,
		outerSize,
		outerSize,
		apitype.NoTint)

	source := imagesource.NewImageSource(bitmap, "PNG")
	if s.image == nil {
		s.image = images.NewImage(source, s.style)
	} else {
		s.image.ReplaceSource(source)
	}
	s.good = !blurred
	if s.good {
		metrics.ReplyPreviewsPrepared.WithLabelValues("good").Inc()
	} else {
		metrics.ReplyPreviewsPrepared.WithLabelValues("blurred").Inc()
	}
	return true
}

func (s *ReplyPreview) State() State {
	switch {
	case s.good:
		return StateResolved
	case s.checked:
		return StateExhausted
	case s.image != nil:
		return StatePlaceholder
	}
	return StateEmpty
}

func (s *ReplyPreview) Good() bool {
	return s.good
}

func (s *ReplyPreview) Checked() bool {
	return s.checked
}
