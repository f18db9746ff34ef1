package apitype

import (
	"image"
)

type Size struct {
	width  int
	height int
}

func (s Size) Height() int {
	return s.height
}

func (s Size) Width() int {
	return s.width
}

func (s Size) IsEmpty() bool {
	return s.width <= 0 || s.height <= 0
}

func SizeOf(width int, height int) Size {
	return Size{width, height}
}

func SizeFromRectangle(rectangle image.Rectangle) Size {
	return Size{
		width:  rectangle.Dx(),
		height: rectangle.Dy(),
	}
}

func ScaleToFit(sourceWidth int, sourceHeight int, targetWidth int, targetHeight int) (int, int) {
	ratio := float32(sourceWidth) / float32(sourceHeight)
	newWidth := int(float32(targetHeight) * ratio)
	newHeight := targetHeight

	if newWidth > targetWidth {
		newWidth = targetWidth
		newHeight = int(float32(targetWidth) / ratio)
	}
	return newWidth, newHeight
}

// ScaleToCover scales the source so that its shorter edge equals edge.
// Degenerate source dimensions are treated as 1.
func ScaleToCover(sourceWidth int, sourceHeight int, edge int) Size {
	if sourceWidth <= 0 {
		sourceWidth = 1
	}
	if sourceHeight <= 0 {
		sourceHeight = 1
	}
	if sourceWidth > sourceHeight {
		return SizeOf(sourceWidth*edge/sourceHeight, edge)
	}
	return SizeOf(edge, sourceHeight*edge/sourceWidth)
}

func (s Size) Scaled(factor int) Size {
	return Size{width: s.width * factor, height: s.height * factor}
}

// ClampDimension turns negative requests into 0, which means "natural size".
func ClampDimension(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
