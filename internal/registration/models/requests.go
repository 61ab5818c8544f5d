package models

import (
	"strings"

	"ezyassist/pkg/validation"
)

// FormFields is the step-2 submission.
type FormFields struct {
	FullName      string   `json:"full_name" validate:"required,notblank,max=200"`
	Email         string   `json:"email" validate:"required,email,max=254"`
	Phone         string   `json:"phone" validate:"required,notblank,max=32"`
	BrokerName    string   `json:"broker_name" validate:"required,notblank,max=100"`
	DepositAmount float64  `json:"deposit_amount" validate:"gt=0"`
	ClientID      string   `json:"client_id" validate:"required,notblank,max=64"`
	ProofRefs     []string `json:"proof_refs" validate:"max=3,dive,required"`
}

func (f *FormFields) Normalize() {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = strings.TrimSpace(f.Phone)
	f.BrokerName = strings.TrimSpace(f.BrokerName)
	f.ClientID = strings.TrimSpace(f.ClientID)
}

func (f *FormFields) Validate() error {
	return validation.Validate(f)
}
