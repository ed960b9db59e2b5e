package controllers

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/ManuelReschke/EventSite/internal/pkg/intake"
	"github.com/ManuelReschke/EventSite/internal/pkg/mail"
)

const (
	contactSubject   = "New Event Enquiry"
	sectionMarker    = "=== "
	notProvided      = "Not provided"
	contactHTMLStart = `<div style="font-family: Arial, sans-serif; max-width: 600px;">`
	contactHTMLEnd   = `</div>`
)

// MailSender delivers one message and reports the outcome.
type MailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// ContactEmail is the rendered enquiry for the business mailbox.
type ContactEmail struct {
	Subject string
	Text    string
	HTML    string
}

// BuildContactEmail renders a validated contact submission. Sections without
// data are left out, the submission info section is always present.
func BuildContactEmail(v intake.Validated, sentAt time.Time) ContactEmail {
	s := v.Submission

	subject := []string{contactSubject}
	if s.Name != "" {
		subject = append(subject, s.Name)
	}
	if s.EventDate != "" {
		subject = append(subject, s.EventDate)
	} else if s.Venue != "" {
		subject = append(subject, s.Venue)
	}

	lines := []string{
		section("CONTACT DETAILS"),
		"Name: " + orNotProvided(s.Name),
		"Email: " + orNotProvided(s.Email),
		"Phone: " + orNotProvided(s.Phone),
		"Company: " + orNotProvided(s.Company),
	}

	if s.EventDate != "" || s.EventType != "" || s.Venue != "" || s.AudienceSize != "" {
		lines = append(lines, "",
			section("EVENT DETAILS"),
			"Date: "+orNotProvided(s.EventDate),
			"Type: "+orNotProvided(s.EventType),
			"Venue: "+orNotProvided(s.Venue),
			"Audience Size: "+orNotProvided(string(s.AudienceSize)),
		)
	}
	if len(s.Services) > 0 {
		lines = append(lines, "", section("SERVICES REQUESTED"), strings.Join(s.Services, ", "))
	}
	if s.BudgetRange != "" {
		lines = append(lines, "", section("BUDGET"), s.BudgetRange)
	}
	if s.Message != "" {
		lines = append(lines, "", section("MESSAGE"), s.Message)
	}

	lines = append(lines, "",
		section("SUBMISSION INFO"),
		"IP Address: "+orNotProvided(v.RemoteAddr),
		"User Agent: "+orNotProvided(v.UserAgent),
		"Submitted At: "+sentAt.UTC().Format(time.RFC3339),
	)

	return ContactEmail{
		Subject: strings.Join(subject, " - "),
		Text:    strings.Join(lines, "\n"),
		HTML:    renderHTML(lines),
	}
}

func section(title string) string {
	return sectionMarker + title + " ==="
}

func orNotProvided(v string) string {
	if v == "" {
		return notProvided
	}
	return v
}

// renderHTML escapes each line and emboldens section markers. Multi-line
// messages keep their breaks.
func renderHTML(lines []string) string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		escaped := strings.ReplaceAll(html.EscapeString(line), "\n", "<br/>")
		if strings.HasPrefix(line, sectionMarker) {
			escaped = "<strong>" + escaped + "</strong>"
		}
		out = append(out, escaped)
	}
	return contactHTMLStart + strings.Join(out, "<br/>") + contactHTMLEnd
}

// ContactDispatcher sends validated contact submissions by email.
type ContactDispatcher struct {
	mailer MailSender
	now    func() time.Time
}

func NewContactDispatcher(mailer MailSender) *ContactDispatcher {
	return &ContactDispatcher{mailer: mailer, now: time.Now}
}

// WithClock overrides the send timestamp source.
func (d *ContactDispatcher) WithClock(now func() time.Time) *ContactDispatcher {
	d.now = now
	return d
}

func (d *ContactDispatcher) Dispatch(ctx context.Context, v intake.Validated) error {
	email := BuildContactEmail(v, d.now())
	err := d.mailer.Send(ctx, mail.Message{
		Subject: email.Subject,
		Text:    email.Text,
		HTML:    email.HTML,
		ReplyTo: v.Email,
	})
	if err != nil {
		return fmt.Errorf("send contact email: %w", err)
	}
	return nil
}

// NewContactPipeline wires the contact form: rate limited, CAPTCHA required,
// name and email required, delivered by mail.
func NewContactPipeline(opts IntakeOptions, mailer MailSender) *intake.Pipeline {
	return intake.New(intake.Options{
		Name:            "contact",
		Limiter:         opts.Limiter,
		Verifier:        opts.Verifier,
		RequireContact:  true,
		Dispatcher:      NewContactDispatcher(mailer),
		DispatchTimeout: opts.DispatchTimeout,
		ClientIP:        ClientAddress,
		Observer:        opts.Observer,
	})
}
