package engine

import (
	"github.com/labeldb/labeldb/codec"
	"github.com/labeldb/labeldb/internal/options"
)

// DefaultFlushFrequency is the engine's compile-time flush policy
// (spec.md §4.9, §6): the writer task flushes the active block to disk
// every DefaultFlushFrequency inserts. WithFlushFrequency overrides it per
// Engine, primarily so tests don't need thousands of inserts to exercise a
// flush.
const DefaultFlushFrequency = 1000

type config struct {
	dataRoot       string
	flushFrequency int
	codecOpts      []codec.Option
	writeBuffer    int
}

func defaultConfig() *config {
	return &config{
		flushFrequency: DefaultFlushFrequency,
		writeBuffer:    64,
	}
}

// Option configures an Engine at construction.
type Option = options.Option[*config]

// WithDataRoot sets the directory holding index.rdb and blocks/*.rdb
// (spec.md §6). Required.
func WithDataRoot(path string) Option {
	return options.NoError(func(c *config) { c.dataRoot = path })
}

// WithFlushFrequency overrides DefaultFlushFrequency.
func WithFlushFrequency(n int) Option {
	return options.NoError(func(c *config) { c.flushFrequency = n })
}

// WithCodecOptions passes through codec.Option values (e.g.
// codec.WithCompression) used when a flush serializes the active block.
func WithCodecOptions(opts ...codec.Option) Option {
	return options.NoError(func(c *config) { c.codecOpts = opts })
}

// WithWriteBufferSize sets the write channel's buffer capacity — the only
// backpressure point spec.md §5 allows ("bounded only by channel capacity
// chosen at construction").
func WithWriteBufferSize(n int) Option {
	return options.NoError(func(c *config) { c.writeBuffer = n })
}
