package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
)

// Attachment is an optional file part of an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a single outgoing email. When HTML is set the body is sent as
// text/html, otherwise text/plain.
type Message struct {
	To          string
	Subject     string
	Body        string
	HTML        bool
	Attachments []Attachment
}

type Mailer interface {
	Send(msg Message) error
}

// SMTPMailer delivers through a plain, unauthenticated SMTP relay such as a
// local MailHog instance. Not suitable for hosts requiring AUTH or TLS.
type SMTPMailer struct {
	addr   string
	sender string
}

func NewSMTPMailer(host string, port int, sender string) *SMTPMailer {
	return &SMTPMailer{
		addr:   fmt.Sprintf("%s:%d", host, port),
		sender: sender,
	}
}

func (m *SMTPMailer) Send(msg Message) error {
	raw, err := m.build(msg)
	if err != nil {
		return fmt.Errorf("building message for %s: %w", msg.To, err)
	}
	if err := smtp.SendMail(m.addr, nil, m.sender, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("sending mail to %s via %s: %w", msg.To, m.addr, err)
	}
	return nil
}

func (m *SMTPMailer) build(msg Message) ([]byte, error) {
	var buf bytes.Buffer

	contentType := "text/plain; charset=utf-8"
	if msg.HTML {
		contentType = "text/html; charset=utf-8"
	}

	fmt.Fprintf(&buf, "From: %s\r\n", m.sender)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachments) == 0 {
		fmt.Fprintf(&buf, "Content-Type: %s\r\n\r\n", contentType)
		buf.WriteString(msg.Body)
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", writer.Boundary())

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", contentType)
	bodyPart, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return nil, err
	}
	if _, err := bodyPart.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}

	for _, att := range msg.Attachments {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", att.ContentType)
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(att.Data)
		// Wrap base64 lines at 76 characters per RFC 2045.
		for len(encoded) > 0 {
			n := 76
			if len(encoded) < n {
				n = len(encoded)
			}
			if _, err := part.Write([]byte(encoded[:n] + "\r\n")); err != nil {
				return nil, err
			}
			encoded = encoded[n:]
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ Mailer = (*SMTPMailer)(nil)

// RecipientAddress derives a user's mailbox from their username.
func RecipientAddress(username, domain string) string {
	if strings.Contains(username, "@") {
		return username
	}
	return fmt.Sprintf("%s@%s", username, domain)
}
