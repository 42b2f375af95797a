package vectorindex

import (
	"time"

	"go.uber.org/zap"
)

type options struct {
	dimension    int
	batchSize    int
	readyTimeout time.Duration
	pollInterval time.Duration
	log          *zap.Logger
}

type Option func(*options)

func WithDimension(dim int) Option {
	return func(o *options) { o.dimension = dim }
}

// WithBatchSize sets the physical upsert batch size, capped at MaxUpsertBatch.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// WithReadyTimeout bounds how long EnsureIndex waits for a new index.
func WithReadyTimeout(d time.Duration) Option {
	return func(o *options) { o.readyTimeout = d }
}

func WithPollInterval(d time.Duration) Option {
	return func(o *options) { o.pollInterval = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{
		dimension:    DefaultDimension,
		batchSize:    MaxUpsertBatch,
		readyTimeout: DefaultReadyTimeout,
		pollInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.batchSize <= 0 || o.batchSize > MaxUpsertBatch {
		o.batchSize = MaxUpsertBatch
	}
	if o.readyTimeout <= 0 {
		o.readyTimeout = DefaultReadyTimeout
	}
	if o.pollInterval <= 0 {
		o.pollInterval = 500 * time.Millisecond
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return o
}
