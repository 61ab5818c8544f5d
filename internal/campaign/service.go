package campaign

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ezyassist/internal/audit"
	"ezyassist/internal/registration/models"
	"ezyassist/internal/regtoken"
	"ezyassist/internal/sentinel"
	dErrors "ezyassist/pkg/domain-errors"
	s "ezyassist/pkg/string"
)

// maxIDAttempts bounds the numeric suffixes tried for a taken slug.
const maxIDAttempts = 50

// RegistrationLister reads the registrations tagged with a campaign.
type RegistrationLister interface {
	List(ctx context.Context, filter models.Filter) ([]*models.Record, error)
}

// LinkIssuer mints campaign registration links.
type LinkIssuer interface {
	Issue(ctx context.Context, req regtoken.IssueRequest) (string, error)
}

type Service struct {
	store         Store
	registrations RegistrationLister
	links         LinkIssuer
	auditStore    audit.Store
	auditor       *audit.Publisher
	logger        *slog.Logger
	now           func() time.Time
}

type Option func(*Service)

func WithRegistrations(r RegistrationLister) Option {
	return func(svc *Service) { svc.registrations = r }
}

func WithLinks(l LinkIssuer) Option {
	return func(svc *Service) { svc.links = l }
}

func WithAudit(st audit.Store, p *audit.Publisher) Option {
	return func(svc *Service) {
		svc.auditStore = st
		svc.auditor = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(svc *Service) {
		if logger != nil {
			svc.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.now = now
		}
	}
}

func NewService(st Store, opts ...Option) *Service {
	svc := &Service{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create adds an active campaign. Its id is the slug of the name; when that
// is taken the first free "-2", "-3", ... suffix is used.
func (svc *Service) Create(ctx context.Context, cmd CreateCommand, actor string) (*Campaign, error) {
	cmd.Normalize()
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	base := s.Slugify(cmd.Name)
	if base == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name must contain letters or digits")
	}

	c := &Campaign{
		Name:              cmd.Name,
		Description:       cmd.Description,
		MinDepositAmount:  cmd.MinDepositAmount,
		RewardDescription: cmd.RewardDescription,
		Active:            true,
		CreatedAt:         svc.now(),
	}
	for attempt := 1; ; attempt++ {
		if attempt > maxIDAttempts {
			return nil, dErrors.New(dErrors.CodeConflict, "too many campaigns share this name")
		}
		c.ID = base
		if attempt > 1 {
			c.ID = base + "-" + strconv.Itoa(attempt)
		}
		err := svc.store.Create(ctx, c)
		if err == nil {
			break
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create campaign")
		}
	}

	svc.record(ctx, audit.Entry{
		RecordID: c.ID,
		Action:   audit.ActionCampaignCreated,
		After:    "active",
		Actor:    actor,
		Detail:   c.Name,
	})
	svc.logger.InfoContext(ctx, "campaign created", "campaign_id", c.ID, "actor", actor)
	return c, nil
}

// Toggle flips whether the campaign accepts registrations.
func (svc *Service) Toggle(ctx context.Context, id, actor string) (*Campaign, error) {
	c, err := svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := svc.store.SetActive(ctx, id, !c.Active); err != nil {
		return nil, translate(err, "failed to update campaign")
	}
	before := activeLabel(c.Active)
	c.Active = !c.Active
	svc.record(ctx, audit.Entry{
		RecordID: c.ID,
		Action:   audit.ActionCampaignToggled,
		Before:   before,
		After:    activeLabel(c.Active),
		Actor:    actor,
	})
	svc.logger.InfoContext(ctx, "campaign toggled", "campaign_id", c.ID, "active", c.Active, "actor", actor)
	return c, nil
}

func (svc *Service) Get(ctx context.Context, id string) (*Campaign, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "campaign id required")
	}
	c, err := svc.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to read campaign")
	}
	return c, nil
}

func (svc *Service) List(ctx context.Context) ([]*Campaign, error) {
	out, err := svc.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list campaigns")
	}
	return out, nil
}

// Registrations lists the records submitted through a campaign.
func (svc *Service) Registrations(ctx context.Context, id string) ([]*models.Record, error) {
	if _, err := svc.Get(ctx, id); err != nil {
		return nil, err
	}
	if svc.registrations == nil {
		return []*models.Record{}, nil
	}
	recs, err := svc.registrations.List(ctx, models.Filter{CampaignID: id})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list campaign registrations")
	}
	return recs, nil
}

// IsActive reports whether a campaign accepts registrations. Unknown
// campaigns are inactive.
func (svc *Service) IsActive(ctx context.Context, id string) (bool, error) {
	c, err := svc.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.Active, nil
}

// Link issues a campaign registration link for one subject.
func (svc *Service) Link(ctx context.Context, id string, subjectID int64, handle string) (string, error) {
	if svc.links == nil {
		return "", dErrors.New(dErrors.CodeConfiguration, "campaign links are not configured")
	}
	active, err := svc.IsActive(ctx, id)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read campaign")
	}
	if !active {
		return "", dErrors.New(dErrors.CodeNotFound, "campaign is not accepting registrations")
	}
	return svc.links.Issue(ctx, regtoken.IssueRequest{
		SubjectID:     subjectID,
		SubjectHandle: handle,
		Purpose:       regtoken.PurposeCampaign,
		CampaignID:    id,
	})
}

// record appends a campaign audit entry. Campaign changes are not
// transactional with their audit trail; a failed append is logged.
func (svc *Service) record(ctx context.Context, e audit.Entry) {
	e.ID = uuid.NewString()
	e.Timestamp = svc.now()
	if svc.auditStore != nil {
		if err := svc.auditStore.Append(ctx, e); err != nil {
			svc.logger.ErrorContext(ctx, "failed to append campaign audit entry", "campaign_id", e.RecordID, "error", err)
			return
		}
	}
	svc.auditor.Emit(ctx, e)
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func translate(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "campaign not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
