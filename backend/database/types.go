package database

import "time"

type CachedImage struct {
	KeyHigh      string    `db:"key_high"`
	KeyLow       string    `db:"key_low"`
	Data         []byte    `db:"data"`
	ByteSize     int64     `db:"byte_size"`
	CreatedTime  time.Time `db:"created_timestamp"`
	AccessedTime time.Time `db:"accessed_timestamp"`
}
