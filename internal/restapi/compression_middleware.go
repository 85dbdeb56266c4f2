package restapi

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// CompressionConfig holds configuration options for response compression
type CompressionConfig struct {
	// MinSize is the minimum response size in bytes to compress
	MinSize int
	// Level is the compression level 1-9
	Level int
}

// DefaultCompressionConfig compresses anything over 1KB at level 6. The board
// page clears that easily while health checks stay uncompressed.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   6,
	}
}

// NewCompressionMiddleware creates a compression middleware with the given configuration
func NewCompressionMiddleware(config CompressionConfig) func(http.Handler) http.Handler {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(config.MinSize),
		gzhttp.CompressionLevel(config.Level),
	)
	return func(next http.Handler) http.Handler {
		if err != nil {
			return gzhttp.GzipHandler(next)
		}
		return wrapper(next)
	}
}
