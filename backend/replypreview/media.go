package replypreview

import (
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/images"
)

type Document interface {
	HasThumbnail() bool
	IsVideoMessage() bool
	CreateMediaView() DocumentMedia
}

// DocumentMedia polls the representations of one document. Accessors return
// nil until the data is decoded and never block.
type DocumentMedia interface {
	ThumbnailWanted(origin apitype.FileOrigin)
	Thumbnail() *images.Image
	ThumbnailInline() *images.Image
	// ThumbnailFailed reports that the thumbnail will never arrive.
	ThumbnailFailed() bool
}

type Photo interface {
	CreateMediaView() PhotoMedia
}

type PhotoMedia interface {
	Wanted(size apitype.PhotoSize, origin apitype.FileOrigin)
	Image(size apitype.PhotoSize) *images.Image
	ThumbnailInline() *images.Image
}
