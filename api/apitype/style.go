package apitype

// Style holds the numeric constants the image layer needs from the
// application theme.
type Style struct {
	ReplyBarHeight   int
	RetinaFactor     int
	RoundRadiusLarge int
	RoundRadiusSmall int
}

func DefaultStyle() Style {
	return Style{
		ReplyBarHeight:   36,
		RetinaFactor:     1,
		RoundRadiusLarge: 6,
		RoundRadiusSmall: 3,
	}
}

func (s Style) RadiusPixels(radius RoundRadius) int {
	factor := s.RetinaFactor
	if factor <= 0 {
		factor = 1
	}
	switch radius {
	case RadiusLarge:
		return s.RoundRadiusLarge * factor
	case RadiusSmall:
		return s.RoundRadiusSmall * factor
	}
	return 0
}
