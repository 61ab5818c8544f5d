package regtoken

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose scopes what a registration link may be used for.
type Purpose string

const (
	PurposeInitial          Purpose = "initial"            // step-1 setup page
	PurposeInitialWithSetup Purpose = "initial_with_setup" // step-2 form after setup was chosen
	PurposeResubmission     Purpose = "resubmission"       // on-hold record correction
	PurposeCampaign         Purpose = "campaign"           // campaign-specific registration
)

var validPurposes = map[Purpose]bool{
	PurposeInitial:          true,
	PurposeInitialWithSetup: true,
	PurposeResubmission:     true,
	PurposeCampaign:         true,
}

func (p Purpose) IsValid() bool {
	return validPurposes[p]
}

// linksRecord reports whether the purpose may carry a linked record id.
func (p Purpose) linksRecord() bool {
	return p == PurposeResubmission || p == PurposeCampaign
}

// Claims is the payload of a registration link.
type Claims struct {
	SubjectID      int64   `json:"telegram_id"`
	SubjectHandle  string  `json:"telegram_username,omitempty"`
	Purpose        Purpose `json:"purpose"`
	LinkedRecordID string  `json:"record_id,omitempty"`
	CampaignID     string  `json:"campaign_id,omitempty"`
	SetupAction    string  `json:"setup_action,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
