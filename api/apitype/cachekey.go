package apitype

import "fmt"

// CacheKey addresses one entry of the persistent bytes cache. The image
// layer only produces and forwards it.
type CacheKey struct {
	High uint64
	Low  uint64
}

func (s CacheKey) IsEmpty() bool {
	return s.High == 0 && s.Low == 0
}

func (s CacheKey) String() string {
	return fmt.Sprintf("%016x%016x", s.High, s.Low)
}
