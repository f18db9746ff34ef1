package replypreview

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/imagesource"
	"vincit.fi/media-preview/backend/images"
	"vincit.fi/media-preview/backend/internal/stubloader"
)

var (
	style = apitype.Style{ReplyBarHeight: 36, RetinaFactor: 2, RoundRadiusLarge: 6, RoundRadiusSmall: 3}
	sharp = color.NRGBA{R: 0xff, A: 0xff}
	soft  = color.NRGBA{G: 0xff, A: 0xff}
)

func loadedImage(width int, height int, c color.NRGBA) *images.Image {
	data := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			data.SetNRGBA(x, y, c)
		}
	}
	return images.NewImage(imagesource.NewImageSource(data, "PNG"), style)
}

func pendingImage() *images.Image {
	location := apitype.NewStorageImageLocation(1, 2, 3, 100, 50)
	return images.NewImage(imagesource.NewStorageSource(stubloader.New(), location, 0), style)
}

type StubDocumentMedia struct {
	thumbnail    *images.Image
	inline       *images.Image
	failed       bool
	wantedCount  int
	wantedOrigin apitype.FileOrigin
}

func (s *StubDocumentMedia) ThumbnailWanted(origin apitype.FileOrigin) {
	s.wantedCount++
	s.wantedOrigin = origin
}

func (s *StubDocumentMedia) Thumbnail() *images.Image {
	return s.thumbnail
}

func (s *StubDocumentMedia) ThumbnailInline() *images.Image {
	return s.inline
}

func (s *StubDocumentMedia) ThumbnailFailed() bool {
	return s.failed
}

type StubDocument struct {
	hasThumbnail bool
	videoMessage bool
	media        *StubDocumentMedia
	createCount  int
}

func (s *StubDocument) HasThumbnail() bool {
	return s.hasThumbnail
}

func (s *StubDocument) IsVideoMessage() bool {
	return s.videoMessage
}

func (s *StubDocument) CreateMediaView() DocumentMedia {
	s.createCount++
	return s.media
}

type StubPhotoMedia struct {
	sizes       map[apitype.PhotoSize]*images.Image
	inline      *images.Image
	wanted      []apitype.PhotoSize
	wantedCount int
}

func (s *StubPhotoMedia) Wanted(size apitype.PhotoSize, origin apitype.FileOrigin) {
	s.wantedCount++
	s.wanted = append(s.wanted, size)
}

func (s *StubPhotoMedia) Image(size apitype.PhotoSize) *images.Image {
	return s.sizes[size]
}

func (s *StubPhotoMedia) ThumbnailInline() *images.Image {
	return s.inline
}

type StubPhoto struct {
	media       *StubPhotoMedia
	createCount int
}

func (s *StubPhoto) CreateMediaView() PhotoMedia {
	s.createCount++
	return s.media
}

func newStubPhoto() *StubPhoto {
	return &StubPhoto{media: &StubPhotoMedia{sizes: map[apitype.PhotoSize]*images.Image{}}}
}

func centerOf(img *images.Image) color.NRGBA {
	pixmap := img.Pix(apitype.NoOrigin, 0, 0)
	bounds := pixmap.Bounds()
	return pixmap.NRGBAAt(bounds.Dx()/2, bounds.Dy()/2)
}

func TestDocument_ThumbnailArrivesLate(t *testing.T) {
	a := assert.New(t)
	media := &StubDocumentMedia{}
	document := &StubDocument{hasThumbnail: true, media: media}
	preview := NewDocumentReplyPreview(document, style)
	origin := apitype.MessageOrigin(10, 20)

	a.Nil(preview.Image(origin))
	a.Equal(StateEmpty, preview.State())
	a.Nil(preview.Image(origin))
	a.Equal(1, document.createCount)
	a.Equal(1, media.wantedCount)
	a.Equal(origin, media.wantedOrigin)

	media.inline = loadedImage(20, 10, soft)
	placeholder := preview.Image(origin)
	if a.NotNil(placeholder) {
		a.Equal(StatePlaceholder, preview.State())
		a.False(preview.Good())
		a.False(preview.Checked())
	}

	media.thumbnail = loadedImage(200, 100, sharp)
	resolved := preview.Image(origin)
	a.Same(placeholder, resolved)
	a.Equal(StateResolved, preview.State())
	a.True(preview.Good())
	a.True(preview.Checked())
	a.Equal(sharp, centerOf(resolved))

	pixmap := resolved.Pix(apitype.NoOrigin, 0, 0)
	media.thumbnail = loadedImage(200, 100, soft)
	a.Same(resolved, preview.Image(origin))
	a.Same(pixmap, resolved.Pix(apitype.NoOrigin, 0, 0))
	a.Equal(1, document.createCount)
	a.Equal(1, media.wantedCount)
}

func TestDocument_PreviewGeometry(t *testing.T) {
	a := assert.New(t)
	media := &StubDocumentMedia{thumbnail: loadedImage(400, 100, sharp)}
	preview := NewDocumentReplyPreview(&StubDocument{hasThumbnail: true, media: media}, style)

	result := preview.Image(apitype.NoOrigin)

	outer := style.ReplyBarHeight * style.RetinaFactor
	a.Equal(outer, result.Width())
	a.Equal(outer, result.Height())
	original := result.Original()
	a.Equal(outer, original.Bounds().Dx())
}

func TestDocument_NoThumbnailNoInline(t *testing.T) {
	a := assert.New(t)
	media := &StubDocumentMedia{}
	document := &StubDocument{hasThumbnail: false, media: media}
	preview := NewDocumentReplyPreview(document, style)

	a.Nil(preview.Image(apitype.NoOrigin))
	a.Equal(StateExhausted, preview.State())
	a.True(preview.Checked())
	a.False(preview.Good())
	a.Equal(0, media.wantedCount)

	media.inline = loadedImage(10, 10, soft)
	for i := 0; i < 3; i++ {
		a.Nil(preview.Image(apitype.NoOrigin))
	}
	a.Equal(1, document.createCount)
}

func TestDocument_NoThumbnailWithInline(t *testing.T) {
	a := assert.New(t)
	media := &StubDocumentMedia{inline: loadedImage(10, 10, soft)}
	preview := NewDocumentReplyPreview(&StubDocument{media: media}, style)

	a.NotNil(preview.Image(apitype.NoOrigin))
	a.Equal(StateExhausted, preview.State())
	a.False(preview.Good())
}

func TestDocument_ThumbnailFailed(t *testing.T) {
	a := assert.New(t)
	media := &StubDocumentMedia{inline: loadedImage(10, 10, soft)}
	document := &StubDocument{hasThumbnail: true, media: media}
	preview := NewDocumentReplyPreview(document, style)

	placeholder := preview.Image(apitype.NoOrigin)
	a.Equal(StatePlaceholder, preview.State())

	media.failed = true
	a.Same(placeholder, preview.Image(apitype.NoOrigin))
	a.Equal(StateExhausted, preview.State())

	media.thumbnail = loadedImage(10, 10, sharp)
	preview.Image(apitype.NoOrigin)
	a.False(preview.Good())
	a.Equal(1, document.createCount)
}

func TestDocument_PendingThumbnailIsNotUsed(t *testing.T) {
	a := assert.New(t)
	media := &StubDocumentMedia{thumbnail: pendingImage()}
	preview := NewDocumentReplyPreview(&StubDocument{hasThumbnail: true, media: media}, style)

	a.Nil(preview.Image(apitype.NoOrigin))
	a.Equal(StateEmpty, preview.State())
}

func TestDocument_VideoMessageIsCircled(t *testing.T) {
	a := assert.New(t)
	media := &StubDocumentMedia{thumbnail: loadedImage(100, 100, sharp)}
	preview := NewDocumentReplyPreview(&StubDocument{hasThumbnail: true, videoMessage: true, media: media}, style)

	pixmap := preview.Image(apitype.NoOrigin).Pix(apitype.NoOrigin, 0, 0)

	a.Equal(uint8(0), pixmap.NRGBAAt(0, 0).A)
	a.Equal(sharp, pixmap.NRGBAAt(pixmap.Bounds().Dx()/2, pixmap.Bounds().Dy()/2))
}

func TestPhoto_OnlyLargeAvailable(t *testing.T) {
	a := assert.New(t)
	photo := newStubPhoto()
	photo.media.sizes[apitype.PhotoSizeLarge] = loadedImage(300, 200, sharp)
	preview := NewPhotoReplyPreview(photo, style)

	result := preview.Image(apitype.NoOrigin)

	a.NotNil(result)
	a.True(preview.Good())
	a.Equal(StateResolved, preview.State())
	a.Equal([]apitype.PhotoSize{apitype.PhotoSizeSmall}, photo.media.wanted)

	photo.media.sizes[apitype.PhotoSizeSmall] = loadedImage(30, 20, soft)
	a.Same(result, preview.Image(apitype.NoOrigin))
	a.Equal(sharp, centerOf(result))
	a.Equal(1, photo.createCount)
}

func TestPhoto_SmallPreferredOverLarge(t *testing.T) {
	photo := newStubPhoto()
	photo.media.sizes[apitype.PhotoSizeLarge] = loadedImage(300, 200, sharp)
	photo.media.sizes[apitype.PhotoSizeSmall] = loadedImage(30, 20, soft)
	preview := NewPhotoReplyPreview(photo, style)

	assert.Equal(t, soft, centerOf(preview.Image(apitype.NoOrigin)))
}

func TestPhoto_InlineThenSmall(t *testing.T) {
	a := assert.New(t)
	photo := newStubPhoto()
	preview := NewPhotoReplyPreview(photo, style)

	a.Nil(preview.Image(apitype.NoOrigin))
	a.Nil(preview.Image(apitype.NoOrigin))
	a.Equal(1, photo.createCount)
	a.Equal(1, photo.media.wantedCount)

	photo.media.inline = loadedImage(8, 8, soft)
	placeholder := preview.Image(apitype.NoOrigin)
	a.NotNil(placeholder)
	a.Equal(StatePlaceholder, preview.State())

	photo.media.inline = loadedImage(8, 8, sharp)
	a.Same(placeholder, preview.Image(apitype.NoOrigin))
	a.Equal(soft, centerOf(placeholder))

	photo.media.sizes[apitype.PhotoSizeSmall] = loadedImage(30, 20, sharp)
	a.Same(placeholder, preview.Image(apitype.NoOrigin))
	a.True(preview.Good())
	a.Equal(sharp, centerOf(placeholder))
	a.Equal(1, photo.createCount)
}

func TestQualityNeverDowngrades(t *testing.T) {
	a := assert.New(t)

	// Every availability order of small, large and inline data.
	steps := []func(*StubPhotoMedia){
		func(m *StubPhotoMedia) { m.inline = loadedImage(8, 8, soft) },
		func(m *StubPhotoMedia) { m.sizes[apitype.PhotoSizeLarge] = loadedImage(80, 80, sharp) },
		func(m *StubPhotoMedia) { m.sizes[apitype.PhotoSizeSmall] = loadedImage(20, 20, sharp) },
	}
	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, order := range orders {
		photo := newStubPhoto()
		preview := NewPhotoReplyPreview(photo, style)
		wasGood := false
		for _, step := range order {
			steps[step](photo.media)
			preview.Image(apitype.NoOrigin)
			if wasGood {
				a.True(preview.Good(), "order %v", order)
				a.Equal(sharp, centerOf(preview.Image(apitype.NoOrigin)), "order %v", order)
			}
			wasGood = preview.Good()
		}
		a.True(preview.Good(), "order %v", order)
	}
}
