// Package pkg holds the default values of the service in one place. The
// environment layer falls back to them for unset settings and the HTTP layer
// reads its timing defaults from here.
//
// Usage Examples:
//
//	// Using default constants directly
//	port := pkg.DefaultPortNum // 3000
//
//	// Applying a default to an unset value
//	root := pkg.ValueOrDefault(configured, pkg.DefaultStoreRoot)
package pkg

import "time"

// Store Defaults
const (
	DefaultStoreRoot   = "uploads"
	DefaultMaxTextures = 100
	DefaultMaxFileSize = "100MB"
)

// HTTP Server Defaults
const (
	DefaultHostIP          = "0.0.0.0"
	DefaultPortNum         = 3000
	DefaultCORSOrigins     = "*"
	DefaultMaxAge          = 12 * time.Hour
	DefaultShutdownTimeout = 10 * time.Second
	DefaultHeaderTimeout   = 10 * time.Second
)

// ValueOrDefault returns value unless it is the zero value of its type, in
// which case defaultValue is returned.
func ValueOrDefault[T comparable](value, defaultValue T) T {
	var zero T
	if value == zero {
		return defaultValue
	}
	return value
}
