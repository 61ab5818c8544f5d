package admin

import (
	"strings"

	dErrors "ezyassist/pkg/domain-errors"
	"ezyassist/pkg/validation"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *LoginRequest) Validate() error {
	return validation.Validate(r)
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

func (r *RejectRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *RejectRequest) Validate() error {
	return validation.Validate(r)
}

// HoldRequest carries the message shown to the user with their
// resubmission link.
type HoldRequest struct {
	Message string `json:"message" validate:"required,notblank,max=1000"`
}

func (r *HoldRequest) Normalize() {
	r.Message = strings.TrimSpace(r.Message)
}

func (r *HoldRequest) Validate() error {
	return validation.Validate(r)
}

type SettingsRequest struct {
	EngagementThreshold *int    `json:"engagement_threshold"`
	Language            *string `json:"default_language"`
}

func (r *SettingsRequest) Normalize() {
	if r.Language != nil {
		lang := strings.ToLower(strings.TrimSpace(*r.Language))
		r.Language = &lang
	}
}

func (r *SettingsRequest) Validate() error {
	if r.EngagementThreshold == nil && r.Language == nil {
		return dErrors.New(dErrors.CodeValidation, "nothing to update")
	}
	return nil
}
