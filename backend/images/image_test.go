package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/imagesource"
	"vincit.fi/media-preview/backend/internal/stubloader"
)

var red = color.NRGBA{R: 0xff, A: 0xff}

func newFilled(width int, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func newLoadedImage(width int, height int) *Image {
	return NewImage(imagesource.NewImageSource(newFilled(width, height, red), "PNG"), apitype.DefaultStyle())
}

func newRemoteImage() (*Image, *stubloader.Loader) {
	loader := stubloader.New()
	location := apitype.NewStorageImageLocation(1, 100, 10, 80, 40)
	return NewImage(imagesource.NewStorageSource(loader, location, 0), apitype.DefaultStyle()), loader
}

func TestImage_CachedVariantIsSameObject(t *testing.T) {
	a := assert.New(t)

	img := newLoadedImage(100, 50)

	first := img.Pix(apitype.NoOrigin, 40, 20)
	second := img.Pix(apitype.NoOrigin, 40, 20)
	a.Same(first, second)
	a.Equal(1, img.VariantCount())

	rounded := img.PixRounded(apitype.NoOrigin, 40, 20, apitype.RadiusLarge, apitype.AllCorners)
	a.NotSame(first, rounded)
	a.Same(rounded, img.PixRounded(apitype.NoOrigin, 40, 20, apitype.RadiusLarge, apitype.AllCorners))
	a.NotSame(rounded, img.PixRounded(apitype.NoOrigin, 40, 20, apitype.RadiusLarge, apitype.CornerTopLeft))
	a.Equal(3, img.VariantCount())
}

func TestImage_DistinctKeysDoNotCollide(t *testing.T) {
	a := assert.New(t)

	img := newLoadedImage(100, 50)
	tint := apitype.Tint{R: 10, G: 20, B: 30, A: 128}
	other := apitype.Tint{R: 10, G: 20, B: 31, A: 128}

	pixmaps := []*image.NRGBA{
		img.Pix(apitype.NoOrigin, 40, 20),
		img.Pix(apitype.NoOrigin, 20, 40),
		img.PixBlurred(apitype.NoOrigin, 40, 20),
		img.PixColored(apitype.NoOrigin, tint, 40, 20),
		img.PixColored(apitype.NoOrigin, other, 40, 20),
		img.PixBlurredColored(apitype.NoOrigin, tint, 40, 20),
		img.PixCircled(apitype.NoOrigin, 40, 20),
		img.PixBlurredCircled(apitype.NoOrigin, 40, 20),
		img.PixSingle(apitype.NoOrigin, 40, 20, 50, 50, apitype.RadiusSmall, apitype.AllCorners, apitype.NoTint),
		img.PixBlurredSingle(apitype.NoOrigin, 40, 20, 50, 50, apitype.RadiusSmall, apitype.AllCorners),
	}
	a.Equal(len(pixmaps), img.VariantCount())
	for i := range pixmaps {
		for j := i + 1; j < len(pixmaps); j++ {
			a.NotSame(pixmaps[i], pixmaps[j], "variants %d and %d", i, j)
		}
	}
}

func TestImage_ReplaceSourceInvalidates(t *testing.T) {
	a := assert.New(t)

	img := newLoadedImage(100, 50)
	before := img.Pix(apitype.NoOrigin, 40, 20)

	img.ReplaceSource(imagesource.NewImageSource(newFilled(60, 60, color.NRGBA{B: 0xff, A: 0xff}), "PNG"))
	a.Equal(0, img.VariantCount())

	after := img.Pix(apitype.NoOrigin, 40, 20)
	a.NotSame(before, after)
	a.Equal(color.NRGBA{B: 0xff, A: 0xff}, after.NRGBAAt(20, 10))
	a.Equal(60, img.Width())
}

func TestImage_ReplaceSourceKeepsKnownGeometry(t *testing.T) {
	a := assert.New(t)

	img := newLoadedImage(100, 50)
	img.ReplaceSource(imagesource.NewDelayedStorageSource(stubloader.New(), 0, 0))

	a.Equal(100, img.Width())
	a.Equal(50, img.Height())
	a.False(img.Loaded())
}

func TestImage_NotLoadedGivesPlaceholderAndLoads(t *testing.T) {
	a := assert.New(t)

	img, loader := newRemoteImage()
	a.False(img.Loaded())

	pixmap := img.Pix(apitype.MessageOrigin(1, 1), 40, 0)
	a.Equal(40, pixmap.Bounds().Dx())
	a.Equal(20, pixmap.Bounds().Dy())
	a.Equal(uint8(0), pixmap.NRGBAAt(0, 0).A)
	require.Equal(t, 1, loader.StartCount())
	a.Equal(apitype.MessageOrigin(1, 1), loader.Requests[0].Origin)

	a.Same(pixmap, img.Pix(apitype.MessageOrigin(1, 1), 40, 0))
	a.Equal(1, loader.StartCount())
}

func TestImage_FreshDecodeReplacesPlaceholders(t *testing.T) {
	a := assert.New(t)

	img, loader := newRemoteImage()
	placeholder := img.Pix(apitype.NoOrigin, 40, 20)

	loader.Last().Complete(stubloader.PNG(80, 40, red))

	a.True(img.Loaded())
	a.Equal(1.0, img.Progress())
	decoded := img.Pix(apitype.NoOrigin, 40, 20)
	a.NotSame(placeholder, decoded)
	a.Equal(red, decoded.NRGBAAt(20, 10))
}

func TestImage_UnloadKeepsVariants(t *testing.T) {
	a := assert.New(t)

	img, loader := newRemoteImage()
	img.Load(apitype.NoOrigin)
	loader.Last().Complete(stubloader.PNG(80, 40, red))

	pixmap := img.Pix(apitype.NoOrigin, 40, 20)
	a.True(img.ByteSize() > GetByteLength(pixmap))

	img.Unload()
	a.False(img.Loaded())
	a.Equal(GetByteLength(pixmap), img.ByteSize())
	a.Same(pixmap, img.Pix(apitype.NoOrigin, 40, 20))
	a.Equal(2, loader.StartCount())
}

func TestImage_PixNoCache(t *testing.T) {
	a := assert.New(t)

	img := newLoadedImage(100, 50)
	first := img.PixNoCache(apitype.NoOrigin, 40, 20, apitype.OptionSmooth, 0, 0, apitype.NoTint)
	second := img.PixNoCache(apitype.NoOrigin, 40, 20, apitype.OptionSmooth, 0, 0, apitype.NoTint)

	a.NotSame(first, second)
	a.Equal(0, img.VariantCount())
	a.Equal(40, first.Bounds().Dx())

	boxed := img.PixNoCache(apitype.NoOrigin, 40, 20, apitype.OptionSmooth|apitype.OptionTransparentBackground, 36, 36, apitype.NoTint)
	a.Equal(36, boxed.Bounds().Dx())
	a.Equal(36, boxed.Bounds().Dy())

	colored := img.PixColoredNoCache(apitype.NoOrigin, apitype.Tint{B: 0xff, A: 0xff}, 10, 10, true)
	a.Equal(color.NRGBA{B: 0xff, A: 0xff}, colored.NRGBAAt(5, 5))

	blurred := img.PixBlurredColoredNoCache(apitype.NoOrigin, apitype.Tint{G: 0xff, A: 0xff}, 10, 0)
	a.Equal(5, blurred.Bounds().Dy())
}

func TestImage_DegenerateSizes(t *testing.T) {
	a := assert.New(t)

	img := newLoadedImage(100, 50)

	natural := img.Pix(apitype.NoOrigin, 0, 0)
	a.Equal(100, natural.Bounds().Dx())
	a.Equal(50, natural.Bounds().Dy())

	negative := img.Pix(apitype.NoOrigin, -10, -10)
	a.Equal(100, negative.Bounds().Dx())

	tiny := img.Pix(apitype.NoOrigin, 1, 0)
	a.Equal(1, tiny.Bounds().Dx())
	a.Equal(1, tiny.Bounds().Dy())

	unknown, _ := newRemoteImage()
	unknown.ReplaceSource(imagesource.NewDelayedStorageSource(stubloader.New(), 0, 0))
	pixmap := unknown.Pix(apitype.NoOrigin, 0, 0)
	a.Equal(80, unknown.Width())
	a.Equal(1, pixmap.Bounds().Dx())
	a.Equal(1, pixmap.Bounds().Dy())
}

func TestImage_NaturalSizePlaceholderIsMinimal(t *testing.T) {
	a := assert.New(t)

	img := NewImage(imagesource.NewStorageSource(stubloader.New(), apitype.NewStorageImageLocation(1, 2, 3, 6000, 4000), 0), apitype.DefaultStyle())

	pixmap := img.Pix(apitype.NoOrigin, 0, 0)
	a.Equal(1, pixmap.Bounds().Dx())
	a.Equal(1, pixmap.Bounds().Dy())
	a.Equal(6000, img.Width())

	sized := img.Pix(apitype.NoOrigin, 60, 0)
	a.Equal(60, sized.Bounds().Dx())
	a.Equal(40, sized.Bounds().Dy())
}

func TestImage_UnknownGeometryPlaceholder(t *testing.T) {
	img := NewImage(imagesource.NewDelayedStorageSource(stubloader.New(), 0, 0), apitype.DefaultStyle())

	pixmap := img.Pix(apitype.NoOrigin, 0, 0)

	assert.Equal(t, 1, pixmap.Bounds().Dx())
	assert.Equal(t, 1, pixmap.Bounds().Dy())
	assert.Equal(t, 1, img.Original().Bounds().Dx())
}

func TestImage_SetImageBytes(t *testing.T) {
	a := assert.New(t)

	img, loader := newRemoteImage()
	placeholder := img.Pix(apitype.NoOrigin, 10, 10)
	img.SetImageBytes(stubloader.PNG(20, 20, red))

	a.True(img.Loaded())
	a.True(loader.Last().Cancelled)
	a.NotSame(placeholder, img.Pix(apitype.NoOrigin, 10, 10))
}

func TestImage_SetDelayedStorageLocation(t *testing.T) {
	a := assert.New(t)

	loader := stubloader.New()
	img := NewImage(imagesource.NewDelayedStorageSource(loader, 0, 0), apitype.DefaultStyle())
	img.Load(apitype.NoOrigin)
	a.Equal(0, loader.StartCount())
	a.True(img.Loading())

	img.SetDelayedStorageLocation(apitype.MessageOrigin(3, 4), apitype.NewStorageImageLocation(1, 2, 3, 10, 10))
	require.Equal(t, 1, loader.StartCount())
	a.Equal(apitype.MessageOrigin(3, 4), loader.Requests[0].Origin)
}

func TestImage_Failed(t *testing.T) {
	a := assert.New(t)

	img, loader := newRemoteImage()
	img.Source().(*imagesource.StorageSource).SetMaxFailures(1)
	img.Load(apitype.NoOrigin)
	loader.Last().Fail(assert.AnError)

	a.True(img.Failed())
	a.False(img.Loaded())
	img.Load(apitype.NoOrigin)
	a.Equal(1, loader.StartCount())
	a.False(newLoadedImage(1, 1).Failed())
}

func TestSingletons(t *testing.T) {
	a := assert.New(t)

	a.Same(Empty(), Empty())
	a.Same(BlankMedia(), BlankMedia())
	a.NotSame(Empty(), BlankMedia())
	a.True(Empty().IsNull())
	a.True(BlankMedia().IsNull())
	a.False(newLoadedImage(1, 1).IsNull())

	a.True(Empty().Loaded())
	a.Equal(uint8(0), Empty().Pix(apitype.NoOrigin, 0, 0).NRGBAAt(0, 0).A)
	a.Equal(color.NRGBA{A: 0xff}, BlankMedia().Pix(apitype.NoOrigin, 0, 0).NRGBAAt(0, 0))

	pixmap := Empty().Pix(apitype.NoOrigin, 0, 0)
	Empty().ReplaceSource(imagesource.NewImageSource(newFilled(5, 5, red), "PNG"))
	Empty().Unload()
	a.Equal(1, Empty().Width())
	a.Same(pixmap, Empty().Pix(apitype.NoOrigin, 0, 0))
}

func TestSingletons_IgnoreMutators(t *testing.T) {
	a := assert.New(t)

	for _, null := range []*Image{Empty(), BlankMedia()} {
		pixmap := null.Pix(apitype.NoOrigin, 0, 0)
		key := null.CacheKey()
		location := null.Location()

		null.SetInformation(0, 500, 400)
		null.SetDelayedStorageLocation(apitype.MessageOrigin(1, 2), apitype.NewStorageImageLocation(1, 2, 3, 500, 400))
		null.RefreshFileReference([]byte{1, 2, 3})
		null.SetImageBytes(stubloader.PNG(500, 400, red))
		null.Load(apitype.MessageOrigin(1, 2))
		null.LoadEvenCancelled(apitype.MessageOrigin(1, 2))
		null.Cancel()

		a.Equal(1, null.Width())
		a.Equal(1, null.Height())
		a.Equal(key, null.CacheKey())
		a.Equal(location, null.Location())
		a.True(null.Loaded())
		a.Same(pixmap, null.Pix(apitype.NoOrigin, 0, 0))
	}
}
