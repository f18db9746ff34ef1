package images

import (
	"image"
	"image/color"
	"sync"

	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/imagesource"
)

var (
	emptyOnce  sync.Once
	empty      *Image
	blankOnce  sync.Once
	blankMedia *Image
)

// Empty is the shared 1x1 transparent image.
func Empty() *Image {
	emptyOnce.Do(func() {
		empty = newNull(color.NRGBA{})
	})
	return empty
}

// BlankMedia is the shared 1x1 black image.
func BlankMedia() *Image {
	blankOnce.Do(func() {
		blankMedia = newNull(color.NRGBA{A: 0xff})
	})
	return blankMedia
}

func newNull(fill color.NRGBA) *Image {
	data := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	data.SetNRGBA(0, 0, fill)
	img := NewImage(imagesource.NewImageSource(data, "PNG"), apitype.DefaultStyle())
	img.null = true
	img.mux = &sync.Mutex{}
	img.checkSource()
	return img
}
