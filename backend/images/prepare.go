package images

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"vincit.fi/media-preview/api/apitype"
)

const (
	blurEdge   = 40
	blurSigma  = 2.0
	tintAlpha  = 255.0
	maskSample = 0.5
)

var (
	transparent = color.NRGBA{}
	black       = color.NRGBA{A: 0xff}
)

// Prepare rasterizes source into the variant described by key. Width and
// Height of 0 mean natural size, a 0 Height with a positive Width keeps the
// aspect ratio. Outer dimensions larger than 0 center the picture on a canvas
// of that size.
func Prepare(source image.Image, key apitype.VariantKey, style apitype.Style) *image.NRGBA {
	if source == nil || source.Bounds().Empty() {
		return Placeholder(key, 0, 0)
	}
	width, height := targetSize(key, source.Bounds().Dx(), source.Bounds().Dy())

	var result *image.NRGBA
	if key.Options.Has(apitype.OptionBlurred) {
		result = blur(source)
	} else {
		result = imaging.Clone(source)
	}

	if result.Bounds().Dx() != width || result.Bounds().Dy() != height {
		filter := imaging.NearestNeighbor
		if key.Options.Has(apitype.OptionSmooth) || key.Options.Has(apitype.OptionBlurred) {
			filter = imaging.Lanczos
		}
		result = imaging.Resize(result, width, height, filter)
	}

	outerWidth := apitype.ClampDimension(key.OuterWidth)
	outerHeight := apitype.ClampDimension(key.OuterHeight)
	if outerWidth > 0 && outerHeight > 0 && (outerWidth != width || outerHeight != height) {
		background := black
		if key.Options.Has(apitype.OptionTransparentBackground) {
			background = transparent
		}
		canvas := imaging.New(outerWidth, outerHeight, background)
		result = imaging.PasteCenter(canvas, result)
	}

	if key.Options.Has(apitype.OptionColored) || key.Tint != apitype.NoTint {
		result = colorize(result, key.Tint)
	}

	if key.Options.Has(apitype.OptionCircled) || key.Radius == apitype.RadiusEllipse {
		applyCircleMask(result)
	} else if radius := style.RadiusPixels(key.Radius); radius > 0 {
		corners := key.Corners
		if corners == apitype.NoCorners {
			corners = apitype.AllCorners
		}
		applyRoundMask(result, radius, corners)
	}
	return result
}

// Placeholder is what an image that has not been decoded yet looks like:
// a transparent picture of the requested size. A request for the natural
// size gets a single pixel, the natural size only fills in a missing side.
func Placeholder(key apitype.VariantKey, naturalWidth int, naturalHeight int) *image.NRGBA {
	if apitype.ClampDimension(key.Width) == 0 && apitype.ClampDimension(key.Height) == 0 {
		naturalWidth, naturalHeight = 1, 1
	}
	width, height := targetSize(key, naturalWidth, naturalHeight)
	outerWidth := apitype.ClampDimension(key.OuterWidth)
	outerHeight := apitype.ClampDimension(key.OuterHeight)
	if outerWidth > 0 && outerHeight > 0 {
		width, height = outerWidth, outerHeight
	}
	return imaging.New(width, height, transparent)
}

func targetSize(key apitype.VariantKey, naturalWidth int, naturalHeight int) (int, int) {
	width := apitype.ClampDimension(key.Width)
	height := apitype.ClampDimension(key.Height)
	switch {
	case width == 0 && height == 0:
		width, height = naturalWidth, naturalHeight
	case height == 0:
		if naturalWidth > 0 {
			height = int(math.Round(float64(naturalHeight) * float64(width) / float64(naturalWidth)))
		}
	case width == 0:
		if naturalHeight > 0 {
			width = int(math.Round(float64(naturalWidth) * float64(height) / float64(naturalHeight)))
		}
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

// blur shrinks the picture first so that the blur radius covers most of it
// and the later resize smooths it back up.
func blur(source image.Image) *image.NRGBA {
	small := resize.Thumbnail(blurEdge, blurEdge, source, resize.Bilinear)
	return imaging.Blur(small, blurSigma)
}

func colorize(img *image.NRGBA, tint apitype.Tint) *image.NRGBA {
	if tint.A == 0 {
		return img
	}
	amount := float64(tint.A) / tintAlpha
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: mix(c.R, tint.R, amount),
			G: mix(c.G, tint.G, amount),
			B: mix(c.B, tint.B, amount),
			A: c.A,
		}
	})
}

func mix(from uint8, to uint8, amount float64) uint8 {
	return uint8(math.Round(float64(from)*(1-amount) + float64(to)*amount))
}

func applyCircleMask(img *image.NRGBA) {
	bounds := img.Bounds()
	radiusX := float64(bounds.Dx()) / 2
	radiusY := float64(bounds.Dy()) / 2
	// Anti-aliased edge of about one pixel along the shorter radius.
	edge := 1 / math.Min(radiusX, radiusY)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dx := (float64(x-bounds.Min.X) + maskSample - radiusX) / radiusX
			dy := (float64(y-bounds.Min.Y) + maskSample - radiusY) / radiusY
			distance := math.Sqrt(dx*dx + dy*dy)
			coverage := clamp01((1-distance)/edge + maskSample)
			scaleAlpha(img, x, y, coverage)
		}
	}
}

func applyRoundMask(img *image.NRGBA, radius int, corners apitype.RectParts) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if limit := min(width, height) / 2; radius > limit {
		radius = limit
	}
	if radius <= 0 {
		return
	}
	type corner struct {
		part    apitype.RectParts
		originX int
		originY int
		centerX float64
		centerY float64
	}
	r := float64(radius)
	for _, c := range []corner{
		{apitype.CornerTopLeft, 0, 0, r, r},
		{apitype.CornerTopRight, width - radius, 0, float64(width) - r, r},
		{apitype.CornerBottomLeft, 0, height - radius, r, float64(height) - r},
		{apitype.CornerBottomRight, width - radius, height - radius, float64(width) - r, float64(height) - r},
	} {
		if !corners.Has(c.part) {
			continue
		}
		for y := c.originY; y < c.originY+radius; y++ {
			for x := c.originX; x < c.originX+radius; x++ {
				dx := float64(x) + maskSample - c.centerX
				dy := float64(y) + maskSample - c.centerY
				coverage := clamp01(r - math.Sqrt(dx*dx+dy*dy) + maskSample)
				scaleAlpha(img, bounds.Min.X+x, bounds.Min.Y+y, coverage)
			}
		}
	}
}

func scaleAlpha(img *image.NRGBA, x int, y int, coverage float64) {
	if coverage >= 1 {
		return
	}
	offset := img.PixOffset(x, y) + 3
	img.Pix[offset] = uint8(math.Round(float64(img.Pix[offset]) * coverage))
}

func clamp01(value float64) float64 {
	return math.Max(0, math.Min(1, value))
}
