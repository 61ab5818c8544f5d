// Package review implements the admin decisions on submitted registrations.
package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ezyassist/internal/audit"
	"ezyassist/internal/registration/metrics"
	"ezyassist/internal/registration/models"
	"ezyassist/internal/registration/store"
	"ezyassist/internal/regtoken"
	"ezyassist/internal/sentinel"
	dErrors "ezyassist/pkg/domain-errors"
)

// DefaultResubmissionTTL is quoted in the on-hold notice.
const DefaultResubmissionTTL = 7 * 24 * time.Hour

// Store is the slice of the registration store review needs.
type Store interface {
	RunInTx(ctx context.Context, subjectID int64, fn func(store.Tx) error) error
	FindByID(ctx context.Context, id string) (*models.Record, error)
	History(ctx context.Context, recordID string) ([]audit.Entry, error)
}

// LinkIssuer mints the resubmission link for records put on hold.
type LinkIssuer interface {
	Issue(ctx context.Context, req regtoken.IssueRequest) (string, error)
}

// Notifier delivers the outcome of a review to the subject.
type Notifier interface {
	Verified(ctx context.Context, r *models.Record) error
	Rejected(ctx context.Context, r *models.Record, reason string) error
	OnHold(ctx context.Context, r *models.Record, message, link string, validFor time.Duration) error
}

// Outcome reports a committed decision. Notified is false when the message
// to the subject could not be delivered; the decision stands regardless.
type Outcome struct {
	Record          *models.Record `json:"record"`
	Notified        bool           `json:"notified"`
	ResubmissionURL string         `json:"resubmission_url,omitempty"`
}

type Service struct {
	store           Store
	links           LinkIssuer
	notifier        Notifier
	auditor         *audit.Publisher
	metrics         *metrics.Metrics
	logger          *slog.Logger
	now             func() time.Time
	resubmissionTTL time.Duration
}

type Option func(*Service)

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithResubmissionTTL sets the validity quoted to users put on hold. It
// should match the token policy for resubmission links.
func WithResubmissionTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.resubmissionTTL = d
		}
	}
}

func New(st Store, links LinkIssuer, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:           st,
		links:           links,
		notifier:        notifier,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
		resubmissionTTL: DefaultResubmissionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify moves a pending registration to verified and tells the subject
// their access is granted.
func (s *Service) Verify(ctx context.Context, recordID, actor string) (*Outcome, error) {
	rec, _, err := s.transition(ctx, recordID, actor, audit.ActionVerified, models.StatusVerified, "", nil,
		models.StatusPending)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Record: rec}
	out.Notified = s.deliver(ctx, rec, actor, "verified", func() error {
		return s.notifier.Verified(ctx, rec)
	})
	return out, nil
}

// Reject moves a pending or on-hold registration to rejected.
func (s *Service) Reject(ctx context.Context, recordID, actor, reason string) (*Outcome, error) {
	reason = strings.TrimSpace(reason)
	rec, _, err := s.transition(ctx, recordID, actor, audit.ActionRejected, models.StatusRejected, reason, nil,
		models.StatusPending, models.StatusOnHold)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Record: rec}
	out.Notified = s.deliver(ctx, rec, actor, "rejected", func() error {
		return s.notifier.Rejected(ctx, rec, reason)
	})
	return out, nil
}

// Hold puts a pending registration on hold with an admin message and sends
// the subject a resubmission link scoped to this record.
func (s *Service) Hold(ctx context.Context, recordID, actor, message string) (*Outcome, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a message for the user is required")
	}

	issue := func(rec *models.Record) (string, error) {
		return s.links.Issue(ctx, regtoken.IssueRequest{
			SubjectID:      rec.SubjectID,
			SubjectHandle:  rec.SubjectHandle,
			Purpose:        regtoken.PurposeResubmission,
			LinkedRecordID: rec.ID,
		})
	}
	rec, link, err := s.transition(ctx, recordID, actor, audit.ActionPutOnHold, models.StatusOnHold, message, issue,
		models.StatusPending)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Record: rec, ResubmissionURL: link}
	out.Notified = s.deliver(ctx, rec, actor, "on_hold", func() error {
		return s.notifier.OnHold(ctx, rec, message, link, s.resubmissionTTL)
	})
	return out, nil
}

// History returns a record's audit trail, oldest first.
func (s *Service) History(ctx context.Context, recordID string) ([]audit.Entry, error) {
	if _, err := s.store.FindByID(ctx, recordID); err != nil {
		return nil, translate(err, "failed to read registration")
	}
	entries, err := s.store.History(ctx, recordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read registration history")
	}
	return entries, nil
}

// transition applies a status change inside one transaction together with
// its audit entry. issue, when set, runs inside the transaction so a link
// failure leaves the record untouched.
func (s *Service) transition(
	ctx context.Context,
	recordID, actor string,
	action audit.Action,
	to models.Status,
	detail string,
	issue func(*models.Record) (string, error),
	from ...models.Status,
) (*models.Record, string, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, "", dErrors.New(dErrors.CodeUnauthorized, "review actions need an authenticated admin")
	}
	start := s.now()
	current, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		return nil, "", s.fail(ctx, translate(err, "failed to read registration"), recordID)
	}

	var (
		rec   *models.Record
		link  string
		entry audit.Entry
	)
	err = s.store.RunInTx(ctx, current.SubjectID, func(tx store.Tx) error {
		now := s.now()
		r, err := tx.FindByID(ctx, recordID)
		if err != nil {
			return err
		}
		if !r.IsRegistered() {
			return dErrors.New(dErrors.CodeInvalidTransition, "registration has not been submitted")
		}
		if !allowed(r.Status, from) {
			return dErrors.New(dErrors.CodeInvalidTransition,
				"cannot move registration from "+string(r.Status)+" to "+string(to))
		}
		if issue != nil {
			if link, err = issue(r); err != nil {
				return err
			}
		}
		before := r.Status
		r.SetStatus(to, now)
		if to == models.StatusOnHold {
			r.AdminMessage = detail
		}
		if err := tx.Update(ctx, r); err != nil {
			return err
		}
		entry = audit.Entry{
			ID:        uuid.NewString(),
			RecordID:  r.ID,
			SubjectID: r.SubjectID,
			Action:    action,
			Before:    string(before),
			After:     string(to),
			Actor:     actor,
			Detail:    detail,
			Timestamp: now,
		}
		rec = r
		return tx.AppendAudit(ctx, entry)
	})
	if err != nil {
		return nil, "", s.fail(ctx, translate(err, "failed to update registration"), recordID)
	}

	s.auditor.Emit(ctx, entry)
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(action))
		s.metrics.ObserveTransition("review_"+string(action), s.now().Sub(start).Seconds())
	}
	s.logger.InfoContext(ctx, "registration reviewed",
		"action", action,
		"record_id", rec.ID,
		"subject_id", rec.SubjectID,
		"actor", actor,
		"before", entry.Before,
		"after", entry.After,
	)
	return rec, link, nil
}

// deliver sends a notification and records a failure in the audit trail.
// It never undoes the decision.
func (s *Service) deliver(ctx context.Context, rec *models.Record, actor, kind string, send func() error) bool {
	if s.notifier == nil {
		return false
	}
	err := send()
	if err == nil {
		return true
	}
	s.logger.WarnContext(ctx, "review notification failed",
		"kind", kind,
		"record_id", rec.ID,
		"subject_id", rec.SubjectID,
		"error", err,
	)
	entry := audit.Entry{
		ID:        uuid.NewString(),
		RecordID:  rec.ID,
		SubjectID: rec.SubjectID,
		Action:    audit.ActionNotifyFailed,
		Actor:     actor,
		Detail:    kind + ": " + err.Error(),
		Timestamp: s.now(),
	}
	if txErr := s.store.RunInTx(ctx, rec.SubjectID, func(tx store.Tx) error {
		return tx.AppendAudit(ctx, entry)
	}); txErr != nil {
		s.logger.ErrorContext(ctx, "failed to record notification failure", "record_id", rec.ID, "error", txErr)
	} else {
		s.auditor.Emit(ctx, entry)
	}
	return false
}

func (s *Service) fail(ctx context.Context, err error, recordID string) error {
	code := dErrors.CodeOf(err)
	if s.metrics != nil {
		s.metrics.IncrementRefused(string(code))
	}
	if code == dErrors.CodeInternal || code == dErrors.CodeConfiguration {
		s.logger.ErrorContext(ctx, "review failed", "record_id", recordID, "error", err)
	}
	return err
}

func allowed(current models.Status, from []models.Status) bool {
	for _, st := range from {
		if current == st {
			return true
		}
	}
	return false
}

func translate(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "registration changed concurrently, please retry")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
