package audit

import "context"

// Store persists audit entries. Implementations never update or delete.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByRecord(ctx context.Context, recordID string) ([]Entry, error)
}
