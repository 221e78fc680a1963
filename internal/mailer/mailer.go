// Package mailer delivers OTP codes by email over SMTP with implicit
// TLS. Delivery is fire-and-forget from the caller's point of view: no
// delivery confirmation is consumed.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// SMTP sends mail through an SMTP server on an implicit-TLS port
// (typically 465). It implements otp.Sender.
type SMTP struct {
	host string
	port string
	user string
	pass string
}

func NewSMTP(host, port, user, pass string) *SMTP {
	return &SMTP{host: host, port: port, user: user, pass: pass}
}

// SendCode mails the one-time code to the address.
func (s *SMTP) SendCode(_ context.Context, to, code string) error {
	subject := "Your OTP Code"
	body := fmt.Sprintf("<p>Your OTP is <b>%s</b>. It expires in 10 minutes.</p>", code)
	return s.send(to, subject, body)
}

func (s *SMTP) send(to, subject, body string) error {
	from := s.user
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" + // required for HTML
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	addr := s.host + ":" + s.port
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return err
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

// LogSender logs codes instead of mailing them. Used when no SMTP host
// is configured (local development, CI).
type LogSender struct {
	Log *zap.Logger
}

func (l *LogSender) SendCode(_ context.Context, to, code string) error {
	l.Log.Info("otp code (mail disabled)", zap.String("to", to), zap.String("code", code))
	return nil
}
