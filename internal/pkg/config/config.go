package config

import (
	"io"
	"time"
)

// Config retrieves typed configuration values by dotted key.
//
// Implementations handle missing keys and conversion failures by returning the
// zero value; callers that need hard failures should validate at startup.
type Config interface {
	io.Closer

	// GetBool retrieves the value for key as a bool.
	GetBool(key string) bool

	// GetString retrieves the value for key as a string.
	GetString(key string) string

	// GetInt retrieves the value for key as an int.
	GetInt(key string) int

	// GetInt32 retrieves the value for key as an int32.
	GetInt32(key string) int32

	// GetInt64 retrieves the value for key as an int64.
	GetInt64(key string) int64

	// GetUint16 retrieves the value for key as a uint16.
	GetUint16(key string) uint16

	// GetFloat64 retrieves the value for key as a float64.
	GetFloat64(key string) float64

	// GetBinary retrieves the value for key decoded from base64.
	GetBinary(key string) []byte

	// GetArray retrieves the value for key as a string slice.
	// The value is stored with format <element1>,<element2>,...
	GetArray(key string) []string

	// GetSecond retrieves the integer value for key as a duration in seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the integer value for key as a duration in minutes.
	GetMinute(key string) time.Duration

	// GetHour retrieves the integer value for key as a duration in hours.
	GetHour(key string) time.Duration

	// GetDay retrieves the integer value for key as a duration in days (24h).
	GetDay(key string) time.Duration
}
