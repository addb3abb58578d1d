package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"

	"github.com/roach88/murder/internal/domain"
)

// SMTPConfig configures SMTPSink.
type SMTPConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"25"`
	From     string `env:"FROM"`
	Username string `env:"USER"`
	Password string `env:"PASSWORD"`

	// Helo is the name sent in EHLO. Empty means "localhost".
	Helo string `env:"HELO"`
}

// Attachment is a file sent along with an update.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// SMTPSink mails updates to the active email addresses of a player.
type SMTPSink struct {
	cfg SMTPConfig

	// Attach optionally produces a file for the update, e.g. a mission
	// sheet. A nil Attachment sends a plain message.
	Attach func(Update) (*Attachment, error)

	// send defaults to deliver.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP creates an SMTPSink.
func NewSMTP(cfg SMTPConfig) *SMTPSink {
	s := &SMTPSink{cfg: cfg}
	s.send = s.deliver
	return s
}

// Notify implements Sink. Players without an email address are skipped.
func (s *SMTPSink) Notify(_ context.Context, u Update) error {
	var to []string
	for _, a := range u.Addresses {
		if a.Active && a.Kind == domain.AddressEmail {
			to = append(to, a.Address)
		}
	}
	if len(to) == 0 {
		return nil
	}

	msg, err := s.compose(u, to)
	if err != nil {
		return fmt.Errorf("smtp notify %s: %w", u.Player, err)
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(addr, auth, s.cfg.From, to, msg); err != nil {
		return fmt.Errorf("smtp notify %s: %w", u.Player, err)
	}
	return nil
}

// deliver sends one message like smtp.SendMail, but greets the server with
// the configured HELO name.
func (s *SMTPSink) deliver(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	c, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	if s.cfg.Helo != "" {
		if err := c.Hello(s.cfg.Helo); err != nil {
			return fmt.Errorf("helo: %w", err)
		}
	}
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("server does not support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	return c.Quit()
}

func (s *SMTPSink) compose(u Update, to []string) ([]byte, error) {
	body, err := Body(u)
	if err != nil {
		return nil, err
	}
	var att *Attachment
	if s.Attach != nil {
		if att, err = s.Attach(u); err != nil {
			return nil, fmt.Errorf("attachment: %w", err)
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.cfg.From)
	for _, addr := range to {
		fmt.Fprintf(&buf, "To: %s\r\n", addr)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", Subject(u)))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if att == nil {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(body)
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mw.Boundary())

	part, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(body)); err != nil {
		return nil, err
	}

	part, err = mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {att.ContentType},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": att.Name})},
	})
	if err != nil {
		return nil, err
	}
	enc := base64.NewEncoder(base64.StdEncoding, part)
	if _, err := enc.Write(att.Data); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
