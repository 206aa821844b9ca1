// Package mailer delivers transactional email.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"cashmate/pkg/config"
)

// Mailer sends the welcome email to a new account.
type Mailer interface {
	SendWelcome(ctx context.Context, email, fullName string) error
}

// New returns an SMTP mailer, or a log-only mailer when no host is configured.
func New(cfg config.SMTP, log *slog.Logger) Mailer {
	if cfg.Host == "" {
		return &LogMailer{log: log}
	}
	return NewSMTP(cfg)
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	addr     string
	auth     smtp.Auth
	from     string
	fromName string
	send     sendFunc
}

func NewSMTP(cfg config.SMTP) *SMTPMailer {
	m := &SMTPMailer{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:     cfg.From,
		fromName: cfg.FromName,
		send:     smtp.SendMail,
	}
	if cfg.Username != "" {
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return m
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<h1 style="color: #4A90E2;">Halo {{.Name}}, Selamat Datang di Cashmate!</h1>
<p>Kami sangat senang Anda telah bergabung dengan <strong>Cashmate</strong>, aplikasi untuk membantu Anda mengelola keuangan pribadi.</p>
<ul>
<li>Mencatat semua pemasukan dan pengeluaran Anda.</li>
<li>Memantau ringkasan keuangan bulanan.</li>
<li>Membaca artikel literasi keuangan.</li>
</ul>
<p>Salam hangat,<br>Tim Cashmate</p>
<hr>
<p style="font-size: 0.8em; color: #777;">Anda menerima email ini karena telah mendaftar di aplikasi Cashmate. Jika ini bukan Anda, mohon abaikan email ini.</p>
</div>`))

// SendWelcome renders and sends the welcome message.
func (m *SMTPMailer) SendWelcome(ctx context.Context, email, fullName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.welcomeMessage(email, fullName)
	if err != nil {
		return err
	}
	if err := m.send(m.addr, m.auth, m.from, []string{email}, msg); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}
	return nil
}

func (m *SMTPMailer) welcomeMessage(email, fullName string) ([]byte, error) {
	name := headerSafe(fullName)
	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, struct{ Name string }{name}); err != nil {
		return nil, fmt.Errorf("render welcome email: %w", err)
	}
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", headerSafe(m.fromName)), m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", headerSafe(email))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", "Selamat Bergabung di Cashmate, "+name+"!"))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// headerSafe strips CR and LF so user input cannot inject headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

// LogMailer only logs; used when SMTP is not configured.
type LogMailer struct {
	log *slog.Logger
}

func (m *LogMailer) SendWelcome(_ context.Context, email, _ string) error {
	m.log.Info("smtp not configured, welcome email skipped", "to", email)
	return nil
}
