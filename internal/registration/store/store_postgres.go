package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ezyassist/internal/audit"
	"ezyassist/internal/platform/database"
	"ezyassist/internal/registration/models"
	"ezyassist/internal/sentinel"
	dErrors "ezyassist/pkg/domain-errors"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const recordColumns = `id, subject_id, subject_handle, full_name, email, phone, broker_name,
	deposit_amount, client_id, proof_refs, status, step_completed, setup_action,
	setup_completed_at, campaign_id, admin_message, ip_address, user_agent, device,
	created_at, updated_at, status_updated_at`

// PostgresStore persists registrations in PostgreSQL. The subject_id unique
// constraint backs the one-record-per-subject rule; RunInTx takes a row lock
// so concurrent transitions on one subject serialize.
type PostgresStore struct {
	db    *sql.DB
	audit *audit.PostgresStore
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, audit: audit.NewPostgresStore(db)}
}

func (s *PostgresStore) RunInTx(ctx context.Context, _ int64, fn func(Tx) error) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin registration transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&pgTx{db: tx, audit: s.audit.WithTx(tx)}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit registration transaction")
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, sentinel.ErrNotFound
	}
	return findOne(ctx, s.db, "WHERE id = $1", id)
}

func (s *PostgresStore) FindBySubject(ctx context.Context, subjectID int64) (*models.Record, error) {
	return findOne(ctx, s.db, "WHERE subject_id = $1", subjectID)
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Record, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CampaignID != "" {
		args = append(args, filter.CampaignID)
		where = append(where, fmt.Sprintf("campaign_id = $%d", len(args)))
	}
	query := "SELECT " + recordColumns + " FROM registrations"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	out := []*models.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) History(ctx context.Context, recordID string) ([]audit.Entry, error) {
	return s.audit.ListByRecord(ctx, recordID)
}

type pgTx struct {
	db    dbExecutor
	audit *audit.PostgresStore
}

func (t *pgTx) FindBySubject(ctx context.Context, subjectID int64) (*models.Record, error) {
	return findOne(ctx, t.db, "WHERE subject_id = $1 FOR UPDATE", subjectID)
}

// FindByID treats ids that are not UUIDs as unknown; the column would
// otherwise reject them with a cast error.
func (t *pgTx) FindByID(ctx context.Context, id string) (*models.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, sentinel.ErrNotFound
	}
	return findOne(ctx, t.db, "WHERE id = $1 FOR UPDATE", id)
}

func (t *pgTx) Create(ctx context.Context, r *models.Record) error {
	proofs, err := json.Marshal(proofRefs(r))
	if err != nil {
		return err
	}
	_, err = t.db.ExecContext(ctx, `
		INSERT INTO registrations (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		r.ID, r.SubjectID, r.SubjectHandle, r.FullName, r.Email, r.Phone, r.BrokerName,
		r.DepositAmount, r.ClientID, string(proofs), string(r.Status), int(r.StepCompleted), nullString(string(r.SetupAction)),
		r.SetupCompletedAt, nullString(r.CampaignID), r.AdminMessage, r.IPAddress, r.UserAgent, r.Device,
		r.CreatedAt, r.UpdatedAt, r.StatusUpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// Update never lowers step_completed even if handed a stale record.
func (t *pgTx) Update(ctx context.Context, r *models.Record) error {
	proofs, err := json.Marshal(proofRefs(r))
	if err != nil {
		return err
	}
	res, err := t.db.ExecContext(ctx, `
		UPDATE registrations SET
			subject_handle = $2, full_name = $3, email = $4, phone = $5, broker_name = $6,
			deposit_amount = $7, client_id = $8, proof_refs = $9, status = $10,
			step_completed = GREATEST(step_completed, $11), setup_action = $12,
			setup_completed_at = $13, campaign_id = $14, admin_message = $15,
			ip_address = $16, user_agent = $17, device = $18, updated_at = $19,
			status_updated_at = $20
		WHERE id = $1`,
		r.ID, r.SubjectHandle, r.FullName, r.Email, r.Phone, r.BrokerName,
		r.DepositAmount, r.ClientID, string(proofs), string(r.Status),
		int(r.StepCompleted), nullString(string(r.SetupAction)),
		r.SetupCompletedAt, nullString(r.CampaignID), r.AdminMessage,
		r.IPAddress, r.UserAgent, r.Device, r.UpdatedAt, r.StatusUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (t *pgTx) AppendAudit(ctx context.Context, entry audit.Entry) error {
	return t.audit.Append(ctx, entry)
}

func findOne(ctx context.Context, db dbExecutor, clause string, arg any) (*models.Record, error) {
	row := db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM registrations "+clause, arg)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.Record, error) {
	var (
		r           models.Record
		proofs      string
		status      string
		step        int
		setupAction sql.NullString
		campaignID  sql.NullString
		setupAt     sql.NullTime
		statusAt    sql.NullTime
	)
	err := row.Scan(
		&r.ID, &r.SubjectID, &r.SubjectHandle, &r.FullName, &r.Email, &r.Phone, &r.BrokerName,
		&r.DepositAmount, &r.ClientID, &proofs, &status, &step, &setupAction,
		&setupAt, &campaignID, &r.AdminMessage, &r.IPAddress, &r.UserAgent, &r.Device,
		&r.CreatedAt, &r.UpdatedAt, &statusAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	if err := json.Unmarshal([]byte(proofs), &r.ProofRefs); err != nil {
		return nil, fmt.Errorf("decode proof refs: %w", err)
	}
	r.Status = models.Status(status)
	r.StepCompleted = models.Step(step)
	r.SetupAction = models.SetupAction(setupAction.String)
	r.CampaignID = campaignID.String
	r.SetupCompletedAt = timePtr(setupAt)
	r.StatusUpdatedAt = timePtr(statusAt)
	return &r, nil
}

func proofRefs(r *models.Record) []string {
	if r.ProofRefs == nil {
		return []string{}
	}
	return r.ProofRefs
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
