package apitype

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"math"
	"math/bits"
)

type StorageImageLocation struct {
	DcId          int32
	VolumeId      int64
	LocalId       int32
	Secret        uint64
	FileReference []byte
	Width         int
	Height        int
}

func NewStorageImageLocation(dcId int32, volumeId int64, localId int32, width int, height int) StorageImageLocation {
	return StorageImageLocation{
		DcId:     dcId,
		VolumeId: volumeId,
		LocalId:  localId,
		Width:    width,
		Height:   height,
	}
}

func (s StorageImageLocation) Valid() bool {
	return s.DcId != 0 && s.VolumeId != 0
}

// CacheKey does not depend on the file reference, so refreshing an expired
// reference keeps addressing the same cache slot.
func (s StorageImageLocation) CacheKey() CacheKey {
	if !s.Valid() {
		return CacheKey{}
	}
	return CacheKey{
		High: uint64(uint32(s.DcId))<<32 | uint64(uint32(s.LocalId)),
		Low:  uint64(s.VolumeId),
	}
}

func (s StorageImageLocation) ObjectKey() string {
	return fmt.Sprintf("%d/%d_%d", s.DcId, s.VolumeId, s.LocalId)
}

func (s StorageImageLocation) WithFileReference(data []byte) StorageImageLocation {
	result := s
	result.FileReference = append([]byte(nil), data...)
	return result
}

func (s StorageImageLocation) Equal(other StorageImageLocation) bool {
	return s.DcId == other.DcId &&
		s.VolumeId == other.VolumeId &&
		s.LocalId == other.LocalId &&
		s.Secret == other.Secret &&
		bytes.Equal(s.FileReference, other.FileReference)
}

func (s StorageImageLocation) String() string {
	if !s.Valid() {
		return "Location<invalid>"
	}
	return "Location{" + s.ObjectKey() + "}"
}

type GeoPointLocation struct {
	Lat    float64
	Lon    float64
	Access uint64
	Width  int
	Height int
	Zoom   int
	Scale  int
}

func (s GeoPointLocation) CacheKey() CacheKey {
	hash := fnv.New64a()
	_, _ = fmt.Fprintf(hash, "geo:%d:%d:%d:%d:%d", s.Access, s.Width, s.Height, s.Zoom, s.Scale)
	return CacheKey{
		High: hash.Sum64(),
		Low:  math.Float64bits(s.Lat) ^ bits.RotateLeft64(math.Float64bits(s.Lon), 32),
	}
}

func (s GeoPointLocation) ObjectKey() string {
	return fmt.Sprintf("geo/%.6f_%.6f_%dx%d_z%d_s%d", s.Lat, s.Lon, s.Width, s.Height, s.Zoom, s.Scale)
}

func (s GeoPointLocation) String() string {
	return "GeoPoint{" + s.ObjectKey() + "}"
}
