package store

import (
	"context"

	"ezyassist/internal/audit"
	"ezyassist/internal/registration/models"
)

// Tx is the view of the store available inside RunInTx. Writes and audit
// entries made through it commit together or not at all.
//
// Error contract:
//   - FindBySubject and FindByID return sentinel.ErrNotFound when no record exists
//   - Create returns sentinel.ErrConflict when the subject already has a record
type Tx interface {
	FindBySubject(ctx context.Context, subjectID int64) (*models.Record, error)
	FindByID(ctx context.Context, id string) (*models.Record, error)
	Create(ctx context.Context, record *models.Record) error
	Update(ctx context.Context, record *models.Record) error
	AppendAudit(ctx context.Context, entry audit.Entry) error
}
