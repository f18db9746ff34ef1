package api

import (
	"image"
	"vincit.fi/media-preview/api/apitype"
)

// Source supplies pixel data and identity for one logical image. Geometry is
// always queryable and reports 0 until the first decode or SetInformation.
type Source interface {
	Load(origin apitype.FileOrigin)
	LoadEvenCancelled(origin apitype.FileOrigin)
	TakeLoaded() image.Image
	Unload()

	Loading() bool
	DisplayLoading() bool
	Cancel()
	Progress() float64
	LoadOffset() int

	Location() apitype.StorageImageLocation
	RefreshFileReference(data []byte)
	CacheKey() apitype.CacheKey
	SetDelayedStorageLocation(location apitype.StorageImageLocation)
	PerformDelayedLoad(origin apitype.FileOrigin)
	SetImageBytes(bytes []byte)

	Width() int
	Height() int
	BytesSize() int
	SetInformation(size int, width int, height int)

	BytesForCache() []byte
}

// FailingSource is implemented by sources that can give up on data that
// keeps failing to fetch or decode.
type FailingSource interface {
	Failed() bool
}
