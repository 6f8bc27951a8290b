package email

import (
	"context"
	"time"

	"estate_portal_backend/platform/config"
)

// FollowupReminder is the content of a single due followup notice.
type FollowupReminder struct {
	AgentName    string
	ClientID     string
	Reason       string
	ScheduledFor time.Time
	DashboardURL string
}

// DigestItem is one row of the daily followup digest.
type DigestItem struct {
	ClientID     string
	Reason       string
	ScheduledFor time.Time
}

// FollowupDigest lists everything an agent has due.
type FollowupDigest struct {
	AgentName    string
	Items        []DigestItem
	DashboardURL string
}

// OpenHouseLeadNotice tells the hosting agent about a new visitor.
type OpenHouseLeadNotice struct {
	AgentName    string
	VisitorName  string
	VisitorEmail string
	KnownClient  bool
	DashboardURL string
}

type Sender interface {
	SendFollowupReminderEmail(ctx context.Context, toEmail string, data FollowupReminder) error
	SendFollowupDigestEmail(ctx context.Context, toEmail string, data FollowupDigest) error
	SendOpenHouseLeadEmail(ctx context.Context, toEmail string, data OpenHouseLeadNotice) error
}

// NoopSender drops every message. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendFollowupReminderEmail(context.Context, string, FollowupReminder) error {
	return nil
}

func (NoopSender) SendFollowupDigestEmail(context.Context, string, FollowupDigest) error {
	return nil
}

func (NoopSender) SendOpenHouseLeadEmail(context.Context, string, OpenHouseLeadNotice) error {
	return nil
}

// NewSender returns an SMTP sender when SMTP is configured and a NoopSender
// otherwise.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.IsEmailEnabled() {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
