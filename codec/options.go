package codec

import (
	"github.com/labeldb/labeldb/format"
	"github.com/labeldb/labeldb/internal/options"
)

type config struct {
	compression format.CompressionType
}

func defaultOptions() *config {
	return &config{compression: format.CompressionZstd}
}

// Option configures EncodeBlock's deferred-section (S5-S7) compression.
type Option = options.Option[*config]

// WithCompression selects the algorithm applied to S5-S7 (the id<->key
// maps and series vector). S1-S4 are never compressed: they're read
// eagerly on every PackedBlock open, and compressing them would cost more
// CPU on the index-only path than it saves on disk.
func WithCompression(ct format.CompressionType) Option {
	return options.NoError(func(c *config) {
		c.compression = ct
	})
}

func applyOptions(c *config, opts ...Option) error {
	return options.Apply(c, opts...)
}
