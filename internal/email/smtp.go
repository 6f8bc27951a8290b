package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers rendered HTML notifications over SMTP via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) message(toEmail, subject, htmlContent string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)
	return msg, nil
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg, err := s.message(toEmail, subject, htmlContent)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	// local relays such as mailpit accept unauthenticated mail
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) SendFollowupReminderEmail(ctx context.Context, toEmail string, data FollowupReminder) error {
	content, err := renderEmailTemplate("followup_reminder.html", followupReminderEmailData{
		baseEmailData: baseEmailData{
			Title:    "Followup due",
			Heading:  "A lead is waiting for you",
			CTALabel: "Open followups",
			CTAURL:   data.DashboardURL,
		},
		FollowupReminder: data,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectFollowupReminderFmt, ReasonLabel(data.Reason)), content)
}

func (s *SMTPSender) SendFollowupDigestEmail(ctx context.Context, toEmail string, data FollowupDigest) error {
	content, err := renderEmailTemplate("followup_digest.html", followupDigestEmailData{
		baseEmailData: baseEmailData{
			Title:    "Followups due",
			Heading:  "Your followups for today",
			CTALabel: "Open followups",
			CTAURL:   data.DashboardURL,
		},
		FollowupDigest: data,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectFollowupDigestFmt, len(data.Items)), content)
}

func (s *SMTPSender) SendOpenHouseLeadEmail(ctx context.Context, toEmail string, data OpenHouseLeadNotice) error {
	content, err := renderEmailTemplate("open_house_lead.html", openHouseLeadEmailData{
		baseEmailData: baseEmailData{
			Title:    "New open house visitor",
			Heading:  "New open house visitor",
			CTALabel: "View visitors",
			CTAURL:   data.DashboardURL,
		},
		OpenHouseLeadNotice: data,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectOpenHouseLeadFmt, data.VisitorName), content)
}

var _ Sender = (*SMTPSender)(nil)
