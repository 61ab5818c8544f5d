// Package conversation turns a classified chat message into a reply: canned
// FAQ and broker answers, registration links, or a generative answer with a
// guaranteed fallback.
package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ezyassist/internal/intent"
	"ezyassist/internal/knowledge"
	"ezyassist/internal/registration/models"
	"ezyassist/internal/regtoken"
	"ezyassist/internal/settings"
	"ezyassist/pkg/match"
	"ezyassist/pkg/platform/circuit"
)

const (
	DefaultThreshold = 3
	DefaultTimeout   = 15 * time.Second
	DefaultLinkTTL   = 30 * time.Minute
)

// Classifier tags a message with its intent.
type Classifier interface {
	Classify(text string) intent.Tag
}

// LinkIssuer mints registration links.
type LinkIssuer interface {
	Issue(ctx context.Context, req regtoken.IssueRequest) (string, error)
}

// Prompt is a generative request.
type Prompt struct {
	Message           string
	SystemInstruction string
	Language          knowledge.Language
	MaxTokens         int32
}

// Generator produces a free-text answer.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// SettingsSource supplies admin-editable bot settings.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// RegistrationLookup reports a subject's registration record, or nil.
type RegistrationLookup interface {
	StatusForSubject(ctx context.Context, subjectID int64) (*models.Record, error)
}

// CampaignLinker issues registration links for an active campaign.
type CampaignLinker interface {
	Link(ctx context.Context, campaignID string, subjectID int64, handle string) (string, error)
}

// Request is one inbound free-text message.
type Request struct {
	SubjectID     int64
	SubjectHandle string
	Text          string
	Score         int
}

// Reply is the text to send back plus what produced it.
type Reply struct {
	Text              string
	Intent            intent.Tag
	PromotionAttached bool
	Escalated         bool
}

// ShouldAttachPromotion reports whether the engagement score earns a
// registration call-to-action.
func ShouldAttachPromotion(score, threshold int) bool {
	return score >= threshold
}

type Router struct {
	classifier    Classifier
	faq           *knowledge.FAQ
	links         LinkIssuer
	generator     Generator
	settings      SettingsSource
	registrations RegistrationLookup
	campaigns     CampaignLinker
	defaults      settings.Settings
	timeout       time.Duration
	linkTTL       time.Duration
	breaker       *circuit.Breaker
	tracer        trace.Tracer
	metrics       *Metrics
	logger        *slog.Logger
}

type Option func(*Router)

func WithSettings(s SettingsSource) Option {
	return func(r *Router) { r.settings = s }
}

// WithDefaults sets the threshold and language used when no settings source
// is configured or it fails.
func WithDefaults(threshold int, lang knowledge.Language) Option {
	return func(r *Router) {
		if threshold > 0 {
			r.defaults.EngagementThreshold = threshold
		}
		if _, ok := knowledge.ParseLanguage(string(lang)); ok {
			r.defaults.Language = lang
		}
	}
}

func WithRegistrations(l RegistrationLookup) Option {
	return func(r *Router) { r.registrations = l }
}

func WithCampaigns(c CampaignLinker) Option {
	return func(r *Router) { r.campaigns = c }
}

func WithTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLinkTTL sets the expiry quoted in registration replies.
func WithLinkTTL(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.linkTTL = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Router) {
		if b != nil {
			r.breaker = b
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Router) {
		if t != nil {
			r.tracer = t
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New builds a Router. A nil generator makes every generative reply the
// fixed fallback.
func New(classifier Classifier, faq *knowledge.FAQ, links LinkIssuer, generator Generator, opts ...Option) *Router {
	if faq == nil {
		faq = knowledge.DefaultFAQ()
	}
	r := &Router{
		classifier: classifier,
		faq:        faq,
		links:      links,
		generator:  generator,
		defaults:   settings.Settings{EngagementThreshold: DefaultThreshold, Language: knowledge.Malay},
		timeout:    DefaultTimeout,
		linkTTL:    DefaultLinkTTL,
		breaker:    circuit.New("generative", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
		tracer:     otel.Tracer("ezyassist/conversation"),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond produces the reply for one message. It never returns an error:
// every failure path degrades to a fixed message.
func (r *Router) Respond(ctx context.Context, req Request) (reply Reply) {
	ctx, span := r.tracer.Start(ctx, "conversation.Respond", trace.WithAttributes(
		attribute.Int64("subject_id", req.SubjectID),
		attribute.Int("engagement_score", req.Score),
	))
	defer func() {
		span.SetAttributes(
			attribute.String("intent", string(reply.Intent)),
			attribute.Bool("promotion_attached", reply.PromotionAttached),
			attribute.Bool("escalated", reply.Escalated),
		)
		span.End()
	}()

	cfg := r.current(ctx)
	lang := cfg.Language
	normalized := match.Normalize(req.Text)

	reply.Intent = r.classifier.Classify(req.Text)
	r.metrics.intent(string(reply.Intent))

	switch reply.Intent {
	case intent.Greeting:
		reply.Text = format(msgWelcome, lang, displayName(req.SubjectHandle, lang))
		return reply
	case intent.Registration:
		reply.Text = r.RegistrationReply(ctx, req.SubjectID, req.SubjectHandle, lang)
		return reply
	case intent.BrokerInquiry:
		reply.Text = knowledge.BrokerAnswer(normalized, lang)
		return reply
	case intent.FAQ:
		if e, ok := r.faq.Lookup(normalized, lang); ok {
			reply.Text = e.Answer
			r.promote(ctx, req, cfg, &reply)
			return reply
		}
	}

	if needsAgent(normalized) {
		reply.Text = msgEscalation.In(lang)
		reply.Escalated = true
		span.AddEvent("escalated")
		return reply
	}

	text, ok := r.generate(ctx, req.Text, normalized, lang)
	reply.Text = text
	if !ok {
		span.SetStatus(codes.Error, "generative fallback")
		return reply
	}
	r.promote(ctx, req, cfg, &reply)
	return reply
}

// RegistrationReply issues a registration link for the subject. A subject
// whose setup choice is already recorded gets a link straight to the form;
// a registered subject gets their status instead of a link.
func (r *Router) RegistrationReply(ctx context.Context, subjectID int64, handle string, lang knowledge.Language) string {
	req := regtoken.IssueRequest{
		SubjectID:     subjectID,
		SubjectHandle: handle,
		Purpose:       regtoken.PurposeInitial,
	}
	if r.registrations != nil {
		rec, err := r.registrations.StatusForSubject(ctx, subjectID)
		switch {
		case err != nil:
			r.logger.WarnContext(ctx, "registration lookup failed", "subject_id", subjectID, "error", err)
		case rec != nil && rec.IsRegistered():
			return format(msgAlreadyRegistered, lang, rec.Status)
		case rec != nil && rec.StepCompleted == models.StepSetupDone:
			req.Purpose = regtoken.PurposeInitialWithSetup
			req.SetupAction = string(rec.SetupAction)
			req.CampaignID = rec.CampaignID
		}
	}

	url, err := r.links.Issue(ctx, req)
	if err != nil {
		r.logger.ErrorContext(ctx, "registration link issuance failed", "subject_id", subjectID, "error", err)
		r.metrics.fallback("registration_link")
		return msgRegistrationUnavailable.In(lang)
	}
	return format(msgRegistration, lang, url, int(r.linkTTL.Minutes()))
}

// CampaignReply answers a campaign deep link with a campaign registration
// link, or a notice when the campaign cannot take registrations.
func (r *Router) CampaignReply(ctx context.Context, campaignID string, subjectID int64, handle string) string {
	lang := r.Language(ctx)
	if r.campaigns == nil {
		return msgCampaignUnavailable.In(lang)
	}
	url, err := r.campaigns.Link(ctx, campaignID, subjectID, handle)
	if err != nil {
		r.logger.WarnContext(ctx, "campaign link refused", "campaign_id", campaignID, "subject_id", subjectID, "error", err)
		return msgCampaignUnavailable.In(lang)
	}
	return format(msgRegistration, lang, url, int(r.linkTTL.Minutes()))
}

// Language returns the active response language.
func (r *Router) Language(ctx context.Context) knowledge.Language {
	return r.current(ctx).Language
}

func (r *Router) current(ctx context.Context) settings.Settings {
	cfg := r.defaults
	if r.settings == nil {
		return cfg
	}
	s, err := r.settings.Get(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "settings unavailable, using defaults", "error", err)
		return cfg
	}
	if s.EngagementThreshold > 0 {
		cfg.EngagementThreshold = s.EngagementThreshold
	}
	if _, ok := knowledge.ParseLanguage(string(s.Language)); ok {
		cfg.Language = s.Language
	}
	return cfg
}

func (r *Router) promote(ctx context.Context, req Request, cfg settings.Settings, reply *Reply) {
	if !ShouldAttachPromotion(req.Score, cfg.EngagementThreshold) {
		return
	}
	url, err := r.links.Issue(ctx, regtoken.IssueRequest{
		SubjectID:     req.SubjectID,
		SubjectHandle: req.SubjectHandle,
		Purpose:       regtoken.PurposeInitial,
	})
	if err != nil {
		r.logger.WarnContext(ctx, "promotion link issuance failed", "subject_id", req.SubjectID, "error", err)
		return
	}
	reply.Text += format(msgPromotion, cfg.Language, url)
	reply.PromotionAttached = true
	r.metrics.promotion()
}

type generated struct {
	text string
	err  error
}

// generate calls the generator under the timeout and breaker. The second
// result is false when a fallback was substituted.
func (r *Router) generate(ctx context.Context, message, normalized string, lang knowledge.Language) (string, bool) {
	if r.generator == nil {
		r.metrics.fallback("unconfigured")
		return Fallback(lang), false
	}
	prompt := Prompt{
		Message:           message,
		SystemInstruction: systemInstruction(normalized, lang),
		Language:          lang,
		MaxTokens:         maxTokens(message),
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	var out string
	err := r.breaker.Do(func() error {
		done := make(chan generated, 1)
		go func() {
			text, err := r.generator.Generate(ctx, prompt)
			done <- generated{text: text, err: err}
		}()
		select {
		case res := <-done:
			out = res.text
			return res.err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	r.metrics.generation(time.Since(start).Seconds())

	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, circuit.ErrOpen):
			reason = "circuit_open"
		case errors.Is(err, context.DeadlineExceeded):
			reason = "timeout"
		}
		r.metrics.fallback(reason)
		r.logger.WarnContext(ctx, "generative reply failed", "reason", reason, "error", err)
		return Fallback(lang), false
	}
	if strings.TrimSpace(out) == "" {
		r.metrics.fallback("empty")
		return msgGenerativeEmpty.In(lang), false
	}
	return strings.TrimSpace(out), true
}

func displayName(handle string, lang knowledge.Language) string {
	if handle != "" {
		return handle
	}
	if lang == knowledge.English {
		return "there"
	}
	return "awak"
}

// Welcome is the /start greeting.
func (r *Router) Welcome(ctx context.Context, handle string) string {
	lang := r.Language(ctx)
	return format(msgWelcome, lang, displayName(handle, lang))
}

// Cleared confirms that the engagement score was reset.
func (r *Router) Cleared(ctx context.Context) string {
	return msgCleared.In(r.Language(ctx))
}

// AgentHandoff confirms that a live agent was alerted.
func (r *Router) AgentHandoff(ctx context.Context) string {
	return msgAgentHandoff.In(r.Language(ctx))
}
