// Package notify renders notifications into email messages and hands them
// to a Sender.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/reservo/booking-system/internal/core/ports"
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type messageTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[ports.NotificationKind]messageTemplate{
	ports.NotifyVerifyEmail: {
		subject: "Verify your email",
		body: template.Must(template.New("verify").Parse(
			`<p>Welcome! Confirm your address to start booking.</p>` +
				`<p><a href="{{.link}}">Verify email</a></p>` +
				`<p>The link is valid for 48 hours.</p>`)),
	},
	ports.NotifyBookingCreated: {
		subject: "Booking received",
		body: template.Must(template.New("created").Parse(
			`<p>We received your booking for <b>{{.resource}}</b>.</p>` +
				`<p>{{.start}} to {{.end}}</p>` +
				`<p>Status: <b>{{.status}}</b></p>`)),
	},
	ports.NotifyBookingConfirmed: {
		subject: "Booking confirmed",
		body: template.Must(template.New("confirmed").Parse(
			`<p>Your booking for <b>{{.resource}}</b> is confirmed.</p>` +
				`<p>{{.start}} to {{.end}}</p>`)),
	},
	ports.NotifyBookingCanceled: {
		subject: "Booking canceled",
		body: template.Must(template.New("canceled").Parse(
			`<p>Your booking for <b>{{.resource}}</b> ({{.start}} to {{.end}}) was canceled.</p>`)),
	},
}

// Mailer implements ports.NotificationService.
type Mailer struct {
	sender Sender
}

func NewMailer(sender Sender) *Mailer {
	return &Mailer{sender: sender}
}

func (m *Mailer) Deliver(ctx context.Context, n ports.Notification) error {
	msg, err := Render(n)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}

// Render builds the email for n.
func Render(n ports.Notification) (Message, error) {
	tpl, ok := templates[n.Kind]
	if !ok {
		return Message{}, fmt.Errorf("notify: no template for %q", n.Kind)
	}
	if n.To == "" {
		return Message{}, fmt.Errorf("notify: %s has no recipient", n.Kind)
	}

	var buf bytes.Buffer
	if err := tpl.body.Execute(&buf, n.Data); err != nil {
		return Message{}, fmt.Errorf("notify: render %s: %w", n.Kind, err)
	}
	return Message{To: n.To, Subject: tpl.subject, HTML: buf.String()}, nil
}
