package mailer

import (
	"context"
	"errors"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const defaultSendTimeout = 15 * time.Second

// Mailgun delivers account and password lifecycle mail for a single
// sending domain. The API client is constructed once and reused across
// sends; each send runs under its own deadline.
type Mailgun struct {
	client      *mg.MailgunImpl
	sender      string
	sendTimeout time.Duration
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{
		client:      mg.NewMailgun(domain, apiKey),
		sender:      sender,
		sendTimeout: defaultSendTimeout,
	}
}

// WithSendTimeout overrides the per-send deadline. Non-positive values
// keep the default.
func (m *Mailgun) WithSendTimeout(d time.Duration) *Mailgun {
	if d > 0 {
		m.sendTimeout = d
	}
	return m
}

// Send delivers one message. text is the plain body; html, when
// non-empty, is attached as the HTML alternative.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	if to == "" {
		return errors.New("mailer: empty recipient")
	}
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, m.sendTimeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}
