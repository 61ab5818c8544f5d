package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
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

// Store defines the persistence interface for registration records.
// Error Contract:
//   - FindByID and FindBySubject return sentinel.ErrNotFound when no record exists
//   - RunInTx commits record writes and audit entries atomically; an error from fn rolls back
type Store interface {
	RunInTx(ctx context.Context, subjectID int64, fn func(store.Tx) error) error
	FindByID(ctx context.Context, id string) (*models.Record, error)
	FindBySubject(ctx context.Context, subjectID int64) (*models.Record, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Record, error)
	History(ctx context.Context, recordID string) ([]audit.Entry, error)
}

// TokenVerifier checks registration link tokens.
type TokenVerifier interface {
	Verify(token string) (*regtoken.Claims, error)
}

// LinkIssuer mints a token and returns the URL that carries it.
type LinkIssuer interface {
	Issue(ctx context.Context, req regtoken.IssueRequest) (string, error)
}

// Notifier tells the subject and the admin chat about a completed submission.
type Notifier interface {
	Submitted(ctx context.Context, r *models.Record) error
}

// CampaignChecker reports whether a campaign currently accepts registrations.
type CampaignChecker interface {
	IsActive(ctx context.Context, campaignID string) (bool, error)
}

type Option func(*Service)

// Service drives the two-step registration flow: setup choice, then the
// details form, plus resubmission of records an admin put on hold.
type Service struct {
	store       Store
	tokens      TokenVerifier
	links       LinkIssuer
	auditor     *audit.Publisher
	notifier    Notifier
	campaigns   CampaignChecker
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
	allowDirect bool
}

func New(st Store, tokens TokenVerifier, links LinkIssuer, opts ...Option) *Service {
	svc := &Service{
		store:       st,
		tokens:      tokens,
		links:       links,
		now:         time.Now,
		newID:       uuid.NewString,
		allowDirect: true,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithCampaigns(c CampaignChecker) Option {
	return func(s *Service) {
		s.campaigns = c
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithDirectSubmission controls whether a form submission from a subject with
// no record at all may create one directly at step 2. Enabled by default.
func WithDirectSubmission(allow bool) Option {
	return func(s *Service) {
		s.allowDirect = allow
	}
}

// SetupView is what the setup page renders.
type SetupView struct {
	Claims  *regtoken.Claims
	Current models.SetupAction
}

// SetupResult carries the record after step 1 and the link to the form page.
type SetupResult struct {
	Record  *models.Record
	FormURL string
}

// FormView is what the details form renders. Record is nil only on the
// resubmission path when nothing needs prefilling.
type FormView struct {
	Claims      *regtoken.Claims
	Record      *models.Record
	SetupAction models.SetupAction
}

// BeginSetup validates a page-1 link and reports any earlier setup choice.
func (s *Service) BeginSetup(ctx context.Context, token string) (*SetupView, error) {
	claims, err := s.verifyEntry(ctx, token)
	if err != nil {
		return nil, err
	}
	view := &SetupView{Claims: claims}
	rec, err := s.store.FindBySubject(ctx, claims.SubjectID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return view, nil
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read registration")
	}
	if rec.IsRegistered() {
		s.refused(dErrors.CodeAlreadyRegistered)
		return nil, dErrors.New(dErrors.CodeAlreadyRegistered, "registration already submitted")
	}
	view.Current = rec.SetupAction
	return view, nil
}

// ChooseSetup verifies token and records the setup choice.
func (s *Service) ChooseSetup(ctx context.Context, token string, action models.SetupAction) (*SetupResult, error) {
	claims, err := s.verifyEntry(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.GetOrCreateStep1(ctx, claims, action)
}

// GetOrCreateStep1 moves a subject from step 0 to step 1. Choosing again at
// step 1 overwrites the action; at step 2 it fails with already_registered.
func (s *Service) GetOrCreateStep1(ctx context.Context, claims *regtoken.Claims, action models.SetupAction) (*SetupResult, error) {
	if !action.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "setup action must be new_account or partner_change")
	}
	start := s.now()

	var (
		rec     *models.Record
		entries []audit.Entry
	)
	err := s.runWithCreateRetry(ctx, claims.SubjectID, func(tx store.Tx) error {
		entries = entries[:0]
		now := s.now()
		existing, err := tx.FindBySubject(ctx, claims.SubjectID)
		if errors.Is(err, sentinel.ErrNotFound) {
			r, err := models.NewRecord(s.newID(), claims.SubjectID, claims.SubjectHandle, now)
			if err != nil {
				return err
			}
			r.CampaignID = claims.CampaignID
			if err := r.ChooseSetup(action, now); err != nil {
				return err
			}
			if err := tx.Create(ctx, r); err != nil {
				return err
			}
			rec = r
			entries = append(entries, s.entry(r, audit.ActionSetupChosen, "", string(action), now))
			return s.appendAll(ctx, tx, entries)
		}
		if err != nil {
			return err
		}

		before := existing.SetupAction
		if err := existing.ChooseSetup(action, now); err != nil {
			return err
		}
		rec = existing
		if before == action {
			return nil
		}
		if existing.CampaignID == "" {
			existing.CampaignID = claims.CampaignID
		}
		if err := tx.Update(ctx, existing); err != nil {
			return err
		}
		act := audit.ActionSetupChosen
		if before != "" {
			act = audit.ActionSetupChanged
		}
		entries = append(entries, s.entry(existing, act, string(before), string(action), now))
		return s.appendAll(ctx, tx, entries)
	})
	if err != nil {
		return nil, s.fail(ctx, err, "failed to record setup choice", claims.SubjectID)
	}
	s.committed(ctx, "setup", start, entries)

	link, err := s.links.Issue(ctx, regtoken.IssueRequest{
		SubjectID:     claims.SubjectID,
		SubjectHandle: claims.SubjectHandle,
		Purpose:       regtoken.PurposeInitialWithSetup,
		CampaignID:    claims.CampaignID,
		SetupAction:   string(action),
	})
	if err != nil {
		return nil, err
	}
	return &SetupResult{Record: rec, FormURL: link}, nil
}

// FormAccess gates the details page: the setup step must be done and the form
// must not have been submitted yet.
func (s *Service) FormAccess(ctx context.Context, token string) (*FormView, error) {
	claims, err := s.verifyEntry(ctx, token)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.FindBySubject(ctx, claims.SubjectID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		s.refused(dErrors.CodeSetupRequired)
		return nil, dErrors.New(dErrors.CodeSetupRequired, "choose an account setup first")
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read registration")
	}
	if rec.IsRegistered() {
		s.refused(dErrors.CodeAlreadyRegistered)
		return nil, dErrors.New(dErrors.CodeAlreadyRegistered, "registration already submitted")
	}
	if rec.StepCompleted < models.StepSetupDone {
		s.refused(dErrors.CodeSetupRequired)
		return nil, dErrors.New(dErrors.CodeSetupRequired, "choose an account setup first")
	}
	return &FormView{Claims: claims, Record: rec, SetupAction: rec.SetupAction}, nil
}

// Submit verifies token and applies the details form.
func (s *Service) Submit(ctx context.Context, token string, fields models.FormFields, client models.ClientInfo) (*models.Record, error) {
	claims, err := s.verifyEntry(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.AdvanceToStep2(ctx, claims, fields, client)
}

// AdvanceToStep2 moves a subject from step 1 to step 2. A subject with no
// record at all may be created directly at step 2 when direct submission is
// enabled; a record still at step 0 is always sent back to setup.
func (s *Service) AdvanceToStep2(ctx context.Context, claims *regtoken.Claims, fields models.FormFields, client models.ClientInfo) (*models.Record, error) {
	if claims.Purpose == regtoken.PurposeResubmission {
		return nil, regtoken.ErrInvalidToken
	}
	fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	start := s.now()

	var (
		rec     *models.Record
		entries []audit.Entry
		direct  bool
	)
	err := s.runWithCreateRetry(ctx, claims.SubjectID, func(tx store.Tx) error {
		entries = entries[:0]
		direct = false
		now := s.now()
		existing, err := tx.FindBySubject(ctx, claims.SubjectID)
		if errors.Is(err, sentinel.ErrNotFound) {
			if !s.allowDirect {
				return dErrors.New(dErrors.CodeSetupRequired, "choose an account setup first")
			}
			r, err := models.NewRecord(s.newID(), claims.SubjectID, claims.SubjectHandle, now)
			if err != nil {
				return err
			}
			r.CampaignID = claims.CampaignID
			if action := models.SetupAction(claims.SetupAction); action.IsValid() {
				r.SetupAction = action
				r.SetupCompletedAt = &now
			}
			r.ApplyForm(fields, client, now)
			if err := tx.Create(ctx, r); err != nil {
				return err
			}
			rec, direct = r, true
			e := s.entry(r, audit.ActionFormSubmitted, stepString(models.StepNone), stepString(r.StepCompleted), now)
			e.Detail = "direct submission without setup step"
			entries = append(entries, e)
			return s.appendAll(ctx, tx, entries)
		}
		if err != nil {
			return err
		}
		if existing.IsRegistered() {
			return dErrors.New(dErrors.CodeAlreadyRegistered, "registration already submitted")
		}
		if existing.StepCompleted < models.StepSetupDone {
			return dErrors.New(dErrors.CodeSetupRequired, "choose an account setup first")
		}
		before := existing.StepCompleted
		existing.ApplyForm(fields, client, now)
		if existing.CampaignID == "" {
			existing.CampaignID = claims.CampaignID
		}
		if err := tx.Update(ctx, existing); err != nil {
			return err
		}
		rec = existing
		entries = append(entries, s.entry(existing, audit.ActionFormSubmitted, stepString(before), stepString(existing.StepCompleted), now))
		return s.appendAll(ctx, tx, entries)
	})
	if err != nil {
		return nil, s.fail(ctx, err, "failed to submit registration", claims.SubjectID)
	}
	if direct && s.metrics != nil {
		s.metrics.IncrementDirectCreation()
	}
	s.committed(ctx, "submit", start, entries)
	s.notifySubmitted(ctx, rec)
	return rec, nil
}

// ResubmitAccess validates a resubmission link and returns the record to
// prefill.
func (s *Service) ResubmitAccess(ctx context.Context, token string) (*FormView, error) {
	claims, err := s.verifyResubmission(token)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.FindByID(ctx, claims.LinkedRecordID)
	if err != nil {
		return nil, s.fail(ctx, err, "failed to read registration", claims.SubjectID)
	}
	if err := checkResubmittable(rec, claims); err != nil {
		s.refused(dErrors.CodeOf(err))
		return nil, err
	}
	return &FormView{Claims: claims, Record: rec, SetupAction: rec.SetupAction}, nil
}

// Resubmit verifies token and applies a corrected form.
func (s *Service) Resubmit(ctx context.Context, token string, fields models.FormFields, client models.ClientInfo) (*models.Record, error) {
	claims, err := s.verifyResubmission(token)
	if err != nil {
		return nil, err
	}
	return s.ApplyResubmission(ctx, claims, fields, client)
}

// ApplyResubmission overwrites the fields of the record the token is scoped
// to and resets its status to pending. step_completed stays at 2. When no new
// proofs are supplied the earlier ones are kept.
func (s *Service) ApplyResubmission(ctx context.Context, claims *regtoken.Claims, fields models.FormFields, client models.ClientInfo) (*models.Record, error) {
	if claims.Purpose != regtoken.PurposeResubmission || claims.LinkedRecordID == "" {
		return nil, regtoken.ErrInvalidToken
	}
	fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	start := s.now()

	var (
		rec     *models.Record
		entries []audit.Entry
	)
	err := s.store.RunInTx(ctx, claims.SubjectID, func(tx store.Tx) error {
		entries = entries[:0]
		now := s.now()
		existing, err := tx.FindByID(ctx, claims.LinkedRecordID)
		if err != nil {
			return err
		}
		if err := checkResubmittable(existing, claims); err != nil {
			return err
		}
		if len(fields.ProofRefs) == 0 {
			fields.ProofRefs = existing.ProofRefs
		}
		before := existing.Status
		existing.ApplyForm(fields, client, now)
		existing.AdminMessage = ""
		if err := tx.Update(ctx, existing); err != nil {
			return err
		}
		rec = existing
		entries = append(entries, s.entry(existing, audit.ActionResubmitted, string(before), string(existing.Status), now))
		return s.appendAll(ctx, tx, entries)
	})
	if err != nil {
		return nil, s.fail(ctx, err, "failed to apply resubmission", claims.SubjectID)
	}
	s.committed(ctx, "resubmit", start, entries)
	s.notifySubmitted(ctx, rec)
	return rec, nil
}

// StatusForSubject returns the subject's record, or nil when there is none.
func (s *Service) StatusForSubject(ctx context.Context, subjectID int64) (*models.Record, error) {
	rec, err := s.store.FindBySubject(ctx, subjectID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read registration")
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, recordID string) (*models.Record, error) {
	rec, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		return nil, translate(err, "failed to read registration")
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Record, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown status filter")
	}
	records, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return records, nil
}

// History returns the audit trail of a record, oldest first.
func (s *Service) History(ctx context.Context, recordID string) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, recordID); err != nil {
		return nil, err
	}
	entries, err := s.store.History(ctx, recordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read registration history")
	}
	return entries, nil
}

// verifyEntry accepts any token that may drive the creation flow.
func (s *Service) verifyEntry(ctx context.Context, token string) (*regtoken.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.refused(dErrors.CodeOf(err))
		return nil, err
	}
	if claims.Purpose == regtoken.PurposeResubmission {
		s.refused(dErrors.CodeInvalidToken)
		return nil, regtoken.ErrInvalidToken
	}
	if claims.CampaignID != "" && s.campaigns != nil {
		active, err := s.campaigns.IsActive(ctx, claims.CampaignID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read campaign")
		}
		if !active {
			s.refused(dErrors.CodeNotFound)
			return nil, dErrors.New(dErrors.CodeNotFound, "campaign is not accepting registrations")
		}
	}
	return claims, nil
}

func (s *Service) verifyResubmission(token string) (*regtoken.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.refused(dErrors.CodeOf(err))
		return nil, err
	}
	if claims.Purpose != regtoken.PurposeResubmission || claims.LinkedRecordID == "" {
		s.refused(dErrors.CodeInvalidToken)
		return nil, regtoken.ErrInvalidToken
	}
	return claims, nil
}

func checkResubmittable(rec *models.Record, claims *regtoken.Claims) error {
	if rec.SubjectID != claims.SubjectID {
		return regtoken.ErrInvalidToken
	}
	if !rec.IsRegistered() {
		return dErrors.New(dErrors.CodeSetupRequired, "registration was never submitted")
	}
	if rec.Status == models.StatusVerified {
		return dErrors.New(dErrors.CodeInvalidTransition, "verified registrations cannot be resubmitted")
	}
	return nil
}

// runWithCreateRetry retries once when a concurrent transaction created the
// subject's record first, so the second attempt takes the update path.
func (s *Service) runWithCreateRetry(ctx context.Context, subjectID int64, fn func(store.Tx) error) error {
	err := s.store.RunInTx(ctx, subjectID, fn)
	if errors.Is(err, sentinel.ErrConflict) {
		err = s.store.RunInTx(ctx, subjectID, fn)
	}
	return err
}

func (s *Service) appendAll(ctx context.Context, tx store.Tx, entries []audit.Entry) error {
	for _, e := range entries {
		if err := tx.AppendAudit(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) entry(r *models.Record, action audit.Action, before, after string, now time.Time) audit.Entry {
	return audit.Entry{
		ID:        uuid.NewString(),
		RecordID:  r.ID,
		SubjectID: r.SubjectID,
		Action:    action,
		Before:    before,
		After:     after,
		Actor:     audit.ActorSystem,
		Timestamp: now,
	}
}

func (s *Service) committed(ctx context.Context, operation string, start time.Time, entries []audit.Entry) {
	s.auditor.Emit(ctx, entries...)
	if s.metrics != nil {
		s.metrics.ObserveTransition(operation, s.now().Sub(start).Seconds())
		for _, e := range entries {
			s.metrics.IncrementTransition(string(e.Action))
		}
	}
	if s.logger != nil {
		for _, e := range entries {
			s.logger.InfoContext(ctx, "registration transition",
				"action", e.Action,
				"record_id", e.RecordID,
				"subject_id", e.SubjectID,
				"before", e.Before,
				"after", e.After,
			)
		}
	}
}

func (s *Service) notifySubmitted(ctx context.Context, rec *models.Record) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Submitted(ctx, rec); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "submission notification failed",
			"record_id", rec.ID,
			"subject_id", rec.SubjectID,
			"error", err,
		)
	}
}

func (s *Service) fail(ctx context.Context, err error, msg string, subjectID int64) error {
	out := translate(err, msg)
	code := dErrors.CodeOf(out)
	s.refused(code)
	if code == dErrors.CodeInternal && s.logger != nil {
		s.logger.ErrorContext(ctx, msg, "subject_id", subjectID, "error", err)
	}
	return out
}

func (s *Service) refused(code dErrors.Code) {
	if s.metrics != nil {
		s.metrics.IncrementRefused(string(code))
	}
}

// translate maps store sentinels to domain errors; domain errors pass through.
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

func stepString(s models.Step) string {
	return strconv.Itoa(int(s))
}
