package sagalog

import "context"

// Repository persists saga log entries. Save always appends.
type Repository interface {
	Save(ctx context.Context, entry *SagaLog) error
}
