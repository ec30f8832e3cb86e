package storage

import (
	"context"

	"liquidityCore/internal/model"
)

// Storage defines a sink for settlement events.
type Storage interface {
	PutEventBatch(ctx context.Context, events []model.Event) error
}

// Multi writes each batch to every sink in order and stops at the first
// failure.
type Multi []Storage

func (m Multi) PutEventBatch(ctx context.Context, events []model.Event) error {
	for _, s := range m {
		if err := s.PutEventBatch(ctx, events); err != nil {
			return err
		}
	}
	return nil
}
