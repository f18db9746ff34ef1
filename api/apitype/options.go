package apitype

import (
	"image/color"
	"strings"
)

type Options uint32

const (
	OptionNone   Options = 0
	OptionSmooth Options = 1 << iota
	OptionBlurred
	OptionCircled
	OptionRoundedLarge
	OptionRoundedSmall
	OptionColored
	OptionTransparentBackground
)

func (s Options) Has(option Options) bool {
	return s&option != 0
}

func (s Options) String() string {
	if s == OptionNone {
		return "None"
	}
	var names []string
	for _, named := range []struct {
		option Options
		name   string
	}{
		{OptionSmooth, "Smooth"},
		{OptionBlurred, "Blurred"},
		{OptionCircled, "Circled"},
		{OptionRoundedLarge, "RoundedLarge"},
		{OptionRoundedSmall, "RoundedSmall"},
		{OptionColored, "Colored"},
		{OptionTransparentBackground, "TransparentBackground"},
	} {
		if s.Has(named.option) {
			names = append(names, named.name)
		}
	}
	return strings.Join(names, "|")
}

type RoundRadius int

const (
	RadiusNone RoundRadius = iota
	RadiusLarge
	RadiusSmall
	RadiusEllipse
)

func (s RoundRadius) Option() Options {
	switch s {
	case RadiusLarge:
		return OptionRoundedLarge
	case RadiusSmall:
		return OptionRoundedSmall
	case RadiusEllipse:
		return OptionCircled
	}
	return OptionNone
}

// RectParts selects which corners a rounding applies to.
type RectParts uint8

const (
	CornerTopLeft RectParts = 1 << iota
	CornerTopRight
	CornerBottomLeft
	CornerBottomRight

	AllCorners = CornerTopLeft | CornerTopRight | CornerBottomLeft | CornerBottomRight
	NoCorners  = RectParts(0)
)

func (s RectParts) Has(part RectParts) bool {
	return s&part != 0
}

// Tint is the colour blended over a picture by the Colored option. The zero
// value means no tint.
type Tint = color.NRGBA

var NoTint = Tint{}
