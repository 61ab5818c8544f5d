package audit

import "time"

// Entry is one append-only record of a registration state change. Entries are
// written in the same transaction as the change they describe.
type Entry struct {
	ID        string    `json:"id"`
	RecordID  string    `json:"record_id"`
	SubjectID int64     `json:"subject_id"`
	Action    Action    `json:"action"`
	Before    string    `json:"before,omitempty"`
	After     string    `json:"after,omitempty"`
	Actor     string    `json:"actor"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Action string

const (
	ActionSetupChosen     Action = "setup_chosen"
	ActionSetupChanged    Action = "setup_changed"
	ActionFormSubmitted   Action = "form_submitted"
	ActionResubmitted     Action = "resubmitted"
	ActionVerified        Action = "verified"
	ActionRejected        Action = "rejected"
	ActionPutOnHold       Action = "put_on_hold"
	ActionNotifyFailed    Action = "notification_failed"
	ActionCampaignCreated Action = "campaign_created"
	ActionCampaignToggled Action = "campaign_toggled"
	ActionSettingsUpdated Action = "settings_updated"
)

// ActorSystem attributes changes made by the user-facing flow rather than an admin.
const ActorSystem = "system"
