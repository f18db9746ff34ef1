package apitype

import "fmt"

// VariantKey identifies one rasterized rendering of an image. It is used
// directly as a map key so two different keys can never collide.
type VariantKey struct {
	Width       int
	Height      int
	OuterWidth  int
	OuterHeight int
	Radius      RoundRadius
	Corners     RectParts
	Tint        Tint
	Options     Options
}

func (s VariantKey) Blurred() bool {
	return s.Options.Has(OptionBlurred)
}

func (s VariantKey) String() string {
	return fmt.Sprintf("Variant{%dx%d outer %dx%d radius %d corners %04b tint %v %s}",
		s.Width, s.Height, s.OuterWidth, s.OuterHeight, s.Radius, s.Corners, s.Tint, s.Options)
}
