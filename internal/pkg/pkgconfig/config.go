package pkgconfig

import "time"

// Config abstracts read access to application configuration.
//
// Business code depends on this interface instead of a concrete provider so
// it stays testable and indifferent to where values come from.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetFloat(key string) float64
	GetString(key string) string
	GetDuration(key string) time.Duration
	GetBinary(key string) []byte
	GetArray(key string) []string
	GetMap(key string) map[string]string
	Close() error
}
