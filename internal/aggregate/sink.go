package aggregate

import (
	"context"

	"liquidityCore/internal/model"
	"liquidityCore/internal/storage"
)

// JsonlMetricsStore appends window metrics to a JSONL file when no database
// is configured.
type JsonlMetricsStore struct {
	out *storage.JsonlStorage
}

func NewJsonlMetricsStore(path string) *JsonlMetricsStore {
	return &JsonlMetricsStore{out: storage.NewJsonlStorage(path)}
}

func (s *JsonlMetricsStore) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	records := make([]interface{}, len(metrics))
	for i := range metrics {
		records[i] = metrics[i]
	}
	return s.out.Append(records)
}
