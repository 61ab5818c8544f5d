package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"ezyassist/internal/registration/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	chatID int64
	text   string
}

type fakeSender struct {
	msgs []sent
	fail map[int64]error
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	if err := f.fail[chatID]; err != nil {
		return err
	}
	f.msgs = append(f.msgs, sent{chatID, text})
	return nil
}

func submittedRecord() *models.Record {
	return &models.Record{
		SubjectID:     42,
		FullName:      "Aina",
		Email:         "aina@example.com",
		Phone:         "+60123",
		BrokerName:    "OctaFX",
		DepositAmount: 150,
		ClientID:      "C-1",
		SetupAction:   models.SetupNewAccount,
	}
}

func TestSubmitted_SendsUserAndAdmin(t *testing.T) {
	s := &fakeSender{}
	n := New(s, 999, nil)

	require.NoError(t, n.Submitted(context.Background(), submittedRecord()))
	require.Len(t, s.msgs, 2)

	assert.Equal(t, int64(42), s.msgs[0].chatID)
	assert.Contains(t, s.msgs[0].text, "🎉 Pendaftaran VIP berjaya!")
	assert.Contains(t, s.msgs[0].text, "Deposit: $150")

	assert.Equal(t, int64(999), s.msgs[1].chatID)
	assert.Contains(t, s.msgs[1].text, "🔔 NEW VIP REGISTRATION")
	assert.Contains(t, s.msgs[1].text, "Telegram ID: 42")
	assert.Contains(t, s.msgs[1].text, "Setup: new_account")
}

func TestSubmitted_AdminStillAlertedWhenUserFails(t *testing.T) {
	boom := errors.New("blocked by user")
	s := &fakeSender{fail: map[int64]error{42: boom}}
	n := New(s, 999, nil)

	err := n.Submitted(context.Background(), submittedRecord())
	require.ErrorIs(t, err, boom)
	require.Len(t, s.msgs, 1)
	assert.Equal(t, int64(999), s.msgs[0].chatID)
}

func TestSubmitted_NoAdminChat(t *testing.T) {
	s := &fakeSender{}
	require.NoError(t, New(s, 0, nil).Submitted(context.Background(), submittedRecord()))
	assert.Len(t, s.msgs, 1)
}

func TestOnHold_IncludesLinkAndValidity(t *testing.T) {
	s := &fakeSender{}
	n := New(s, 0, nil)

	err := n.OnHold(context.Background(), submittedRecord(), "Upload a clearer receipt", "https://x/resubmit?token=t", 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, s.msgs, 1)
	assert.Contains(t, s.msgs[0].text, "Upload a clearer receipt")
	assert.Contains(t, s.msgs[0].text, "https://x/resubmit?token=t")
	assert.Contains(t, s.msgs[0].text, "7 hari")
}

func TestNilNotifierIsNoop(t *testing.T) {
	var n *Notifier
	assert.NoError(t, n.Verified(context.Background(), submittedRecord()))
	assert.NoError(t, New(nil, 1, nil).Rejected(context.Background(), submittedRecord(), "x"))
}
