package regtoken

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	dErrors "ezyassist/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "ezyassist"

var (
	// ErrInvalidToken covers malformed, tampered, wrong-algorithm and expired
	// tokens alike. Callers must not tell these apart to end users.
	ErrInvalidToken = dErrors.New(dErrors.CodeInvalidToken, "registration link is invalid or expired")
	// ErrMissingSigningKey means token paths are unusable until a key is configured.
	ErrMissingSigningKey = dErrors.New(dErrors.CodeConfiguration, "registration signing key is not configured")
)

// Policy maps each purpose to the lifetime of tokens issued for it.
type Policy map[Purpose]time.Duration

// DefaultPolicy gives every purpose formTimeout except resubmission links.
func DefaultPolicy(formTimeout, resubmissionTTL time.Duration) Policy {
	return Policy{
		PurposeInitial:          formTimeout,
		PurposeInitialWithSetup: formTimeout,
		PurposeResubmission:     resubmissionTTL,
		PurposeCampaign:         formTimeout,
	}
}

// IssueRequest describes the link to mint.
type IssueRequest struct {
	SubjectID      int64
	SubjectHandle  string
	Purpose        Purpose
	LinkedRecordID string
	CampaignID     string
	SetupAction    string
}

// Service issues and verifies registration link tokens. Tokens are stateless;
// nothing is persisted and verification has no side effects.
type Service struct {
	signingKey []byte
	policy     Policy
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService never fails on an empty key so that callers which never mint
// links can still start; Issue and Verify report ErrMissingSigningKey instead.
func NewService(signingKey string, policy Policy, opts ...Option) *Service {
	s := &Service{
		signingKey: []byte(signingKey),
		policy:     policy,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the lifetime configured for a purpose.
func (s *Service) TTL(p Purpose) time.Duration {
	return s.policy[p]
}

func (s *Service) Issue(ctx context.Context, req IssueRequest) (string, error) {
	if len(s.signingKey) == 0 {
		return "", ErrMissingSigningKey
	}
	if !req.Purpose.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown token purpose")
	}
	if req.SubjectID == 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}
	if req.LinkedRecordID != "" && !req.Purpose.linksRecord() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "linked record only allowed on resubmission or campaign tokens")
	}
	if req.Purpose == PurposeResubmission && req.LinkedRecordID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "resubmission token requires a linked record")
	}
	if req.Purpose == PurposeCampaign && req.CampaignID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "campaign token requires a campaign id")
	}
	ttl, ok := s.policy[req.Purpose]
	if !ok || ttl <= 0 {
		return "", dErrors.New(dErrors.CodeConfiguration, "no lifetime configured for token purpose")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SubjectID:      req.SubjectID,
		SubjectHandle:  req.SubjectHandle,
		Purpose:        req.Purpose,
		LinkedRecordID: req.LinkedRecordID,
		CampaignID:     req.CampaignID,
		SetupAction:    req.SetupAction,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(req.SubjectID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign registration token")
	}
	if s.logger != nil {
		s.logger.DebugContext(ctx, "registration token issued",
			"subject_id", req.SubjectID,
			"purpose", req.Purpose,
		)
	}
	return signed, nil
}

// Verify returns the claims of a valid token. Every failure other than a
// missing key collapses to ErrInvalidToken.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	if len(s.signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if s.logger != nil && !errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug("registration token rejected", "error", err)
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || !claims.Purpose.IsValid() || claims.SubjectID == 0 {
		return nil, ErrInvalidToken
	}
	if claims.LinkedRecordID != "" && !claims.Purpose.linksRecord() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
