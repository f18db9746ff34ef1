package apitype

type PhotoSize int

const (
	PhotoSizeSmall PhotoSize = iota
	PhotoSizeThumbnail
	PhotoSizeLarge
)

func (s PhotoSize) String() string {
	switch s {
	case PhotoSizeSmall:
		return "Small"
	case PhotoSizeThumbnail:
		return "Thumbnail"
	case PhotoSizeLarge:
		return "Large"
	}
	return "Unknown"
}
