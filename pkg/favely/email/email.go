// Package email sends transactional mail through an SMTP relay.
// Delivery is fire-and-forget: failures are logged, never retried.
package email

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/wneessen/go-mail"
)

// Sender sends outbound mail. A nil client means email is disabled and
// every send becomes a logged no-op, so handlers never need to care
// whether SMTP is configured.
type Sender struct {
	client *mail.Client
	from   string
	// operator receives feedback notifications
	operator string
	baseURL  string
}

// NewFromEnv builds a Sender from SMTP_* environment variables. Returns a
// disabled sender when SMTP_HOST is unset.
func NewFromEnv(baseURL string) *Sender {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Println("SMTP_HOST not set - email disabled")
		return &Sender{baseURL: baseURL}
	}

	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}

	opts := []mail.Option{mail.WithPort(port)}
	if user := os.Getenv("SMTP_USER"); user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(user),
			mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		log.Printf("Warning: failed to set up SMTP client: %v - email disabled", err)
		return &Sender{baseURL: baseURL}
	}

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "no-reply@favely.app"
	}

	return &Sender{
		client:   client,
		from:     from,
		operator: os.Getenv("FAVELY_FEEDBACK_EMAIL"),
		baseURL:  baseURL,
	}
}

// Enabled reports whether outbound mail is configured
func (s *Sender) Enabled() bool {
	return s.client != nil
}

// SendCollabInvite mails a collaboration invite to the invitee.
func (s *Sender) SendCollabInvite(to, inviterName, listTitle, role string) {
	subject := fmt.Sprintf("%s invited you to collaborate on \"%s\"", inviterName, listTitle)
	body := fmt.Sprintf(
		"%s invited you to join the list \"%s\" as %s.\n\n"+
			"Sign in at %s to accept or decline. The invite expires in 7 days.\n",
		inviterName, listTitle, role, s.baseURL)
	s.send(to, subject, body)
}

// SendFeedback forwards a feedback submission to the site operator.
func (s *Sender) SendFeedback(fromEmail, subject, message string) {
	if s.operator == "" {
		return
	}
	body := fmt.Sprintf("From: %s\n\n%s\n", fromEmail, message)
	s.send(s.operator, "[Favely feedback] "+subject, body)
}

func (s *Sender) send(to, subject, body string) {
	if !s.Enabled() {
		log.Printf("Email disabled - would have sent %q to %s", subject, to)
		return
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		log.Printf("Warning: invalid from address %q: %v", s.from, err)
		return
	}
	if err := msg.To(to); err != nil {
		log.Printf("Warning: invalid recipient %q: %v", to, err)
		return
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSend(msg); err != nil {
		log.Printf("Warning: failed to send %q to %s: %v", subject, to, err)
	}
}
