package imagereader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"github.com/disintegration/imaging"
	"github.com/pixiv/go-libjpeg/jpeg"
	"github.com/rwcarlsen/goexif/exif"
	"image"
	"image/color"
	"io"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"
	"vincit.fi/media-preview/common/logger"

	_ "golang.org/x/image/webp"
)

const (
	// MaxImagePixels guards against decompression bombs in remote payloads.
	MaxImagePixels = 40_000_000

	FormatJpeg = "JPG"
	FormatPng  = "PNG"
	FormatGif  = "GIF"
	FormatWebp = "WEBP"

	// EXIF lives in the first APP1 segment which is at most 64K.
	exifPeekSize = 64 * 1024
)

var (
	ErrEmptyData    = errors.New("empty image data")
	ErrInvalidImage = errors.New("invalid image dimensions")

	options = &jpeg.DecoderOptions{}
)

// Decode decodes an encoded payload and returns the image and its
// normalized format tag.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyData
	}
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("unrecognized image data: %w", err)
	}
	if config.Width <= 0 || config.Height <= 0 || config.Width*config.Height > MaxImagePixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrInvalidImage, config.Width, config.Height)
	}

	start := time.Now()
	var decoded image.Image
	if format == "jpeg" {
		decoded, err = decodeJpeg(data)
	} else {
		decoded, err = imaging.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, "", err
	}
	if logger.IsLogLevel(logger.TRACE) {
		logger.Trace.Printf("Decoded %s %dx%d in %s", format, config.Width, config.Height, time.Since(start))
	}
	return decoded, NormalizeFormat(format), nil
}

// ReadDimensions reads the displayed size from the image header without
// decoding the pixels. JPEG orientation is taken into account.
func ReadDimensions(reader io.Reader) (int, int, error) {
	header := bufio.NewReader(reader)
	peeked, _ := header.Peek(exifPeekSize)
	config, format, err := image.DecodeConfig(header)
	if err != nil {
		return 0, 0, fmt.Errorf("unrecognized image data: %w", err)
	}
	width, height := config.Width, config.Height
	if format == "jpeg" {
		if rotation, _ := readOrientation(peeked); rotation == left90 || rotation == right90 {
			width, height = height, width
		}
	}
	return width, height, nil
}

func decodeJpeg(data []byte) (image.Image, error) {
	decoded, err := jpeg.Decode(bytes.NewReader(data), options)
	if err != nil {
		return nil, err
	}
	rotation, flipped := readOrientation(data)
	return ExifRotateImage(decoded, rotation, flipped), nil
}

func readOrientation(data []byte) (float64, bool) {
	decodedExif, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return noRotate, noHorizontalFlip
	}
	tag, err := decodedExif.Get(exif.Orientation)
	if err != nil {
		return noRotate, noHorizontalFlip
	}
	orientation, err := tag.Int(0)
	if err != nil {
		logger.Debug.Print("Could not resolve orientation ", err)
		return noRotate, noHorizontalFlip
	}
	return ExifOrientationToAngleAndFlip(orientation)
}

const (
	noRotate  = 0
	rotate180 = 180
	left90    = 90
	right90   = 270

	noHorizontalFlip = false
	horizontalFlip   = true
)

func ExifOrientationToAngleAndFlip(orientation int) (float64, bool) {
	switch orientation {
	case 1:
		return noRotate, noHorizontalFlip
	case 2:
		return noRotate, horizontalFlip
	case 3:
		return rotate180, noHorizontalFlip
	case 4:
		return rotate180, horizontalFlip
	case 5:
		return right90, horizontalFlip
	case 6:
		return right90, noHorizontalFlip
	case 7:
		return left90, horizontalFlip
	case 8:
		return left90, noHorizontalFlip
	default:
		return noRotate, noHorizontalFlip
	}
}

func ExifRotateImage(loadedImage image.Image, rotation float64, flipped bool) image.Image {
	if rotation != noRotate {
		loadedImage = imaging.Rotate(loadedImage, rotation, color.Black)
	}
	if flipped {
		return imaging.FlipH(loadedImage)
	}
	return loadedImage
}

func NormalizeFormat(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return FormatJpeg
	case "png":
		return FormatPng
	case "gif":
		return FormatGif
	case "webp":
		return FormatWebp
	}
	return strings.ToUpper(format)
}

// Encode encodes the image for the persistent cache. Formats without an
// encoder fall back to PNG.
func Encode(img image.Image, format string) ([]byte, error) {
	if img == nil {
		return nil, ErrEmptyData
	}
	encodeFormat, err := imaging.FormatFromExtension(strings.ToLower(NormalizeFormat(format)))
	if err != nil {
		encodeFormat = imaging.PNG
	}

	var buffer bytes.Buffer
	if err := imaging.Encode(&buffer, img, encodeFormat, imaging.JPEGQuality(87)); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
