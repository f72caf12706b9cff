package email

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"time"
)

// Service relays contact-form messages to the operator mailbox over an
// authenticated, TLS-upgraded SMTP session. Every network step runs under
// one deadline so a slow mail server cannot stall the request.
type Service struct {
	host     string
	port     string
	user     string
	password string
	to       string
	timeout  time.Duration
}

func NewService() *Service {
	return &Service{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
		to:       os.Getenv("SMTP_TO"),
		timeout:  10 * time.Second,
	}
}

// Send composes a plain-text message from a contact-form submission and
// transmits it. The reply address goes into the body, not the envelope.
func (s *Service) Send(name, replyTo, message string) error {
	addr := net.JoinHostPort(s.host, s.port)

	conn, err := net.DialTimeout("tcp", addr, s.timeout)
	if err != nil {
		return fmt.Errorf("connecting to mail server: %w", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(s.timeout))

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("starting smtp session: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return fmt.Errorf("upgrading to tls: %w", err)
		}
	}

	if s.user != "" {
		auth := smtp.PlainAuth("", s.user, s.password, s.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	if err := client.Mail(s.user); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := client.Rcpt(s.to); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("opening message body: %w", err)
	}
	if _, err := w.Write([]byte(s.buildMessage(name, replyTo, message))); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}

	return client.Quit()
}

func (s *Service) buildMessage(name, replyTo, message string) string {
	return fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: New Message\r\n"+
		"\r\n"+
		"Name: %s\r\nEmail: %s\r\nMessage: %s\r\n",
		s.user, s.to, name, replyTo, message)
}
