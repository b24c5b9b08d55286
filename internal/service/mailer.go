package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"gopkg.in/gomail.v2"
)

// Mailer is the outbound notification sink. Sending is fire-and-forget from
// the workflow's point of view: a failed send never rolls back store state.
type Mailer interface {
	SendVerificationMail(ctx context.Context, studentEmail, token string) error
	SendReminderMail(ctx context.Context, purchaseEmail string) error
}

const (
	verificationSubject = "edubook - Bildungsstatus bestätigen"
	reminderSubject     = "edubook - Erinnerung: Bildungsstatus verifizieren"

	verificationBodyTmpl = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Bildungsstatus bestätigen</h2>
  <p>Bitte bestätige deine Bildungs-Email, indem du auf den Button klickst.</p>
  <a href="%s" style="display: inline-block; background: #25ba86; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 20px 0;">Bildungsstatus bestätigen</a>
  <p style="color: #666; font-size: 14px;">Falls du diese Email nicht angefordert hast, kannst du sie ignorieren.</p>
</div>`

	reminderBodyTmpl = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Deine Bestellung ist noch in Warteschleife</h2>
  <p>Wir haben festgestellt, dass du deinen Bildungsstatus noch nicht verifiziert hast. Deine Bestellung wird automatisch storniert, wenn sie nicht innerhalb von 48 Stunden nach dem Kauf verifiziert wird.</p>
  <a href="%s" style="display: inline-block; background: #25ba86; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 20px 0;">Jetzt verifizieren</a>
  <p style="color: #666; font-size: 14px;">Falls du bereits verifiziert bist, ignoriere bitte diese Email.</p>
</div>`
)

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	appURL string
}

func NewSMTPMailer(host string, port int, user, password, from, appURL string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
		appURL: appURL,
	}
}

func (m *SMTPMailer) SendVerificationMail(_ context.Context, studentEmail, token string) error {
	// The link lands on the confirm page, not the API: the user still has to
	// click a button there before the token is redeemed.
	confirmURL := fmt.Sprintf("%s/verify/confirm?token=%s", m.appURL, token)
	return m.send(studentEmail, verificationSubject, fmt.Sprintf(verificationBodyTmpl, confirmURL))
}

func (m *SMTPMailer) SendReminderMail(_ context.Context, purchaseEmail string) error {
	verifyURL := fmt.Sprintf("%s/verify?email=%s", m.appURL, url.QueryEscape(purchaseEmail))
	return m.send(purchaseEmail, reminderSubject, fmt.Sprintf(reminderBodyTmpl, verifyURL))
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return m.dialer.DialAndSend(msg)
}

// DevMailer logs instead of sending, for local development without a relay.
type DevMailer struct {
	logger *slog.Logger
	appURL string
}

func NewDevMailer(logger *slog.Logger, appURL string) *DevMailer {
	return &DevMailer{logger: logger, appURL: appURL}
}

func (m *DevMailer) SendVerificationMail(ctx context.Context, studentEmail, token string) error {
	m.logger.InfoContext(ctx, "verification mail",
		"to", studentEmail,
		"confirm_url", fmt.Sprintf("%s/verify/confirm?token=%s", m.appURL, token),
	)
	return nil
}

func (m *DevMailer) SendReminderMail(ctx context.Context, purchaseEmail string) error {
	m.logger.InfoContext(ctx, "reminder mail",
		"to", purchaseEmail,
		"verify_url", fmt.Sprintf("%s/verify?email=%s", m.appURL, url.QueryEscape(purchaseEmail)),
	)
	return nil
}
