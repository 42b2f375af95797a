package vectorindex

import (
	"context"
	"errors"

	"mail-assistant/pkg/metrics"

	"go.uber.org/zap"
)

// Instrumented records metrics and logs failures for every call on next.
func Instrumented(next Index, backend string, log *zap.Logger) Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &instrumented{next: next, backend: backend, log: log.With(zap.String("backend", backend))}
}

type instrumented struct {
	next    Index
	backend string
	log     *zap.Logger
}

func (i *instrumented) EnsureIndex(ctx context.Context, name string) error {
	err := i.next.EnsureIndex(ctx, name)
	metrics.RecordIndexOp(i.backend, "ensure", err)
	if err != nil {
		i.log.Error("ensure index failed", zap.String("index", name), zap.Error(err))
	}
	return err
}

func (i *instrumented) UpsertBatch(ctx context.Context, name string, entries []Entry) error {
	err := i.next.UpsertBatch(ctx, name, entries)
	metrics.RecordIndexOp(i.backend, "upsert", err)
	if err != nil {
		fields := []zap.Field{zap.String("index", name), zap.Int("entries", len(entries)), zap.Error(err)}
		var upErr *UpsertError
		if errors.As(err, &upErr) {
			fields = append(fields, zap.Strings("failed_ids", upErr.FailedIDs))
		}
		i.log.Error("upsert failed", fields...)
	}
	return err
}

func (i *instrumented) Query(ctx context.Context, name string, vectors [][]float32, topK int) (*RankedResults, error) {
	res, err := i.next.Query(ctx, name, vectors, topK)
	metrics.RecordIndexOp(i.backend, "query", err)
	if err != nil {
		i.log.Error("query failed", zap.String("index", name), zap.Error(err))
	}
	return res, err
}
