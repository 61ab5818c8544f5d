package models

import (
	"time"

	dErrors "ezyassist/pkg/domain-errors"
)

// Step is how far through the two-page flow a subject has progressed.
type Step int

const (
	StepNone      Step = 0 // token issued, nothing chosen
	StepSetupDone Step = 1 // account setup action chosen
	StepSubmitted Step = 2 // personal and deposit details submitted
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
	StatusOnHold   Status = "on_hold"
)

var validStatuses = map[Status]bool{
	StatusPending:  true,
	StatusVerified: true,
	StatusRejected: true,
	StatusOnHold:   true,
}

func (s Status) IsValid() bool {
	return validStatuses[s]
}

// SetupAction is the account arrangement chosen on the first page.
type SetupAction string

const (
	SetupNewAccount    SetupAction = "new_account"
	SetupPartnerChange SetupAction = "partner_change"
)

func (a SetupAction) IsValid() bool {
	return a == SetupNewAccount || a == SetupPartnerChange
}

const MaxProofs = 3

// Record is one subject's registration. A subject has at most one record.
//
// StepCompleted only moves forward. Once it reaches StepSubmitted the record
// can only change through admin review or a resubmission scoped to its ID.
type Record struct {
	ID               string      `json:"id"`
	SubjectID        int64       `json:"subject_id"`
	SubjectHandle    string      `json:"subject_handle,omitempty"`
	FullName         string      `json:"full_name"`
	Email            string      `json:"email"`
	Phone            string      `json:"phone_number"`
	BrokerName       string      `json:"brokerage_name"`
	DepositAmount    float64     `json:"deposit_amount"`
	ClientID         string      `json:"client_id"`
	ProofRefs        []string    `json:"proof_refs"`
	Status           Status      `json:"status"`
	StepCompleted    Step        `json:"step_completed"`
	SetupAction      SetupAction `json:"setup_action,omitempty"`
	SetupCompletedAt *time.Time  `json:"setup_completed_at,omitempty"`
	CampaignID       string      `json:"campaign_id,omitempty"`
	AdminMessage     string      `json:"admin_message,omitempty"`
	IPAddress        string      `json:"ip_address,omitempty"`
	UserAgent        string      `json:"user_agent,omitempty"`
	Device           string      `json:"device,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	StatusUpdatedAt  *time.Time  `json:"status_updated_at,omitempty"`
}

// NewRecord creates a step-0 record with invariant checks.
func NewRecord(id string, subjectID int64, handle string, now time.Time) (*Record, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "record ID required")
	}
	if subjectID == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "subject ID required")
	}
	if now.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "creation time required")
	}
	return &Record{
		ID:            id,
		SubjectID:     subjectID,
		SubjectHandle: handle,
		Status:        StatusPending,
		StepCompleted: StepNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsRegistered reports whether the form has been submitted.
func (r *Record) IsRegistered() bool {
	return r.StepCompleted >= StepSubmitted
}

// AdvanceTo moves the step forward; it never moves backward.
func (r *Record) AdvanceTo(step Step) {
	if step > r.StepCompleted {
		r.StepCompleted = step
	}
}

// ChooseSetup records the setup action. Only allowed before submission.
func (r *Record) ChooseSetup(action SetupAction, now time.Time) error {
	if r.IsRegistered() {
		return dErrors.New(dErrors.CodeAlreadyRegistered, "registration already submitted")
	}
	if !action.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "setup action must be new_account or partner_change")
	}
	r.SetupAction = action
	r.SetupCompletedAt = &now
	r.AdvanceTo(StepSetupDone)
	r.UpdatedAt = now
	return nil
}

// ApplyForm copies submitted details and returns the record to pending review.
func (r *Record) ApplyForm(f FormFields, client ClientInfo, now time.Time) {
	r.FullName = f.FullName
	r.Email = f.Email
	r.Phone = f.Phone
	r.BrokerName = f.BrokerName
	r.DepositAmount = f.DepositAmount
	r.ClientID = f.ClientID
	r.ProofRefs = append([]string(nil), f.ProofRefs...)
	if client.IPAddress != "" {
		r.IPAddress = client.IPAddress
		r.UserAgent = client.UserAgent
		r.Device = client.Device
	}
	r.SetStatus(StatusPending, now)
	r.AdvanceTo(StepSubmitted)
	r.UpdatedAt = now
}

func (r *Record) SetStatus(s Status, now time.Time) {
	if r.Status != s {
		r.StatusUpdatedAt = &now
	}
	r.Status = s
	r.UpdatedAt = now
}

// Clone returns a deep copy so stores never hand out shared state.
func (r *Record) Clone() *Record {
	c := *r
	c.ProofRefs = append([]string(nil), r.ProofRefs...)
	if r.SetupCompletedAt != nil {
		t := *r.SetupCompletedAt
		c.SetupCompletedAt = &t
	}
	if r.StatusUpdatedAt != nil {
		t := *r.StatusUpdatedAt
		c.StatusUpdatedAt = &t
	}
	return &c
}

// ClientInfo is request metadata captured alongside a submission.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	Device    string
}

// Filter narrows admin listings. Zero values match everything.
type Filter struct {
	Status     Status
	CampaignID string
	Limit      int
	Offset     int
}
