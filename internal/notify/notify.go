package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"ezyassist/internal/registration/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var notificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ezyassist_notifications_failed_total",
	Help: "Outbound chat notifications that could not be delivered, labeled by kind",
}, []string{"kind"})

// Sender delivers a text message to a chat id. The chat transport implements it.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Notifier formats registration lifecycle messages for users and the admin
// chat. A nil Notifier or nil Sender drops every message.
type Notifier struct {
	sender      Sender
	adminChatID int64
	logger      *slog.Logger
}

func New(sender Sender, adminChatID int64, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, adminChatID: adminChatID, logger: logger}
}

// Submitted sends the user confirmation and the admin alert. Both are
// attempted; the first failure is returned.
func (n *Notifier) Submitted(ctx context.Context, r *models.Record) error {
	userErr := n.send(ctx, "confirmation", r.SubjectID, submittedText(r))
	var adminErr error
	if n != nil && n.adminChatID != 0 {
		adminErr = n.send(ctx, "admin_alert", n.adminChatID, adminAlertText(r))
	}
	if userErr != nil {
		return userErr
	}
	return adminErr
}

func (n *Notifier) Verified(ctx context.Context, r *models.Record) error {
	return n.send(ctx, "verified", r.SubjectID, fmt.Sprintf(
		"✅ Tahniah %s!\n\nPendaftaran VIP anda telah disahkan. Akses VIP anda kini aktif.\n"+
			"Team kami akan hantar butiran akses sebentar lagi.",
		displayName(r)))
}

func (n *Notifier) Rejected(ctx context.Context, r *models.Record, reason string) error {
	text := fmt.Sprintf("❌ Maaf %s, pendaftaran VIP anda tidak dapat diluluskan.", displayName(r))
	if reason != "" {
		text += "\n\nSebab: " + reason
	}
	text += "\n\nHubungi team kami jika anda ada sebarang pertanyaan."
	return n.send(ctx, "rejected", r.SubjectID, text)
}

// OnHold asks the user to fix their submission through the resubmission link.
func (n *Notifier) OnHold(ctx context.Context, r *models.Record, message, link string, validFor time.Duration) error {
	return n.send(ctx, "on_hold", r.SubjectID, fmt.Sprintf(
		"⏸️ Pendaftaran VIP anda memerlukan tindakan.\n\n"+
			"Mesej daripada team kami:\n%s\n\n"+
			"Sila kemaskini maklumat anda di sini:\n%s\n\n"+
			"⏰ Pautan ini sah selama %d hari.",
		message, link, days(validFor)))
}

// Text sends free text, used by the bot for link replies outside a chat turn.
func (n *Notifier) Text(ctx context.Context, chatID int64, text string) error {
	return n.send(ctx, "text", chatID, text)
}

func (n *Notifier) send(ctx context.Context, kind string, chatID int64, text string) error {
	if n == nil || n.sender == nil {
		return nil
	}
	if err := n.sender.Send(ctx, chatID, text); err != nil {
		notificationsFailed.WithLabelValues(kind).Inc()
		if n.logger != nil {
			n.logger.WarnContext(ctx, "notification failed",
				"kind", kind,
				"chat_id", chatID,
				"error", err,
			)
		}
		return fmt.Errorf("send %s notification: %w", kind, err)
	}
	return nil
}

func submittedText(r *models.Record) string {
	return fmt.Sprintf(
		"🎉 Pendaftaran VIP berjaya!\n\n"+
			"Terima kasih %s!\n"+
			"Team kami akan hubungi anda dalam 24 jam.\n\n"+
			"📋 Detail pendaftaran:\n"+
			"• Broker: %s\n"+
			"• Deposit: $%s\n"+
			"• Client ID: %s\n\n"+
			"📱 Pastikan phone %s aktif!",
		displayName(r), orNA(r.BrokerName), amount(r.DepositAmount), orNA(r.ClientID), orNA(r.Phone))
}

func adminAlertText(r *models.Record) string {
	text := fmt.Sprintf(
		"🔔 NEW VIP REGISTRATION\n\n"+
			"Name: %s\n"+
			"Email: %s\n"+
			"Phone: %s\n"+
			"Broker: %s\n"+
			"Deposit: $%s\n"+
			"Client ID: %s\n"+
			"Telegram ID: %d",
		orNA(r.FullName), orNA(r.Email), orNA(r.Phone), orNA(r.BrokerName),
		amount(r.DepositAmount), orNA(r.ClientID), r.SubjectID)
	if r.SetupAction != "" {
		text += "\nSetup: " + string(r.SetupAction)
	}
	if r.CampaignID != "" {
		text += "\nCampaign: " + r.CampaignID
	}
	if len(r.ProofRefs) > 0 {
		text += "\nProofs: " + strconv.Itoa(len(r.ProofRefs))
	}
	return text
}

func displayName(r *models.Record) string {
	if r.FullName != "" {
		return r.FullName
	}
	if r.SubjectHandle != "" {
		return "@" + r.SubjectHandle
	}
	return "awak"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func amount(v float64) string {
	if v <= 0 {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func days(d time.Duration) int {
	n := int(d / (24 * time.Hour))
	if n < 1 {
		return 1
	}
	return n
}
