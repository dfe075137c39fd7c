// Package mailer delivers email over SMTP (STARTTLS, AUTH PLAIN) and maps
// transport conditions onto the typed tool-failure taxonomy.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/jobscout/jobscout/internal/safety"
)

// sendFunc matches smtp.SendMail; swapped out in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends mail from a fixed sender account. Safe for concurrent use.
type Mailer struct {
	host     string
	port     int
	from     string
	password string
	send     sendFunc
}

// New builds a Mailer. port <= 0 selects 587 (submission with STARTTLS,
// matching the upstream default).
func New(host string, port int, from, password string) *Mailer {
	if port <= 0 {
		port = 587
	}
	return &Mailer{host: host, port: port, from: from, password: password, send: smtp.SendMail}
}

// Send delivers one message. Cancellation mid-delivery is cooperative: the
// in-flight SMTP exchange runs to completion in the background and its result
// is discarded; the caller gets a TransportError immediately.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	auth := smtp.PlainAuth("", m.from, m.password, m.host)
	msg := buildMessage(m.from, to, subject, body)

	errc := make(chan error, 1)
	go func() {
		errc <- m.send(addr, auth, m.from, []string{to}, msg)
	}()

	select {
	case <-ctx.Done():
		return safety.ToolError{Kind: safety.KindTransportError, Message: fmt.Sprintf("delivery abandoned: %v", ctx.Err())}
	case err := <-errc:
		return classify(err)
	}
}

// classify maps SMTP reply codes to failure kinds. 5xx auth codes mean the
// sender credentials were refused; mailbox codes mean the recipient was.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var proto *textproto.Error
	if errors.As(err, &proto) {
		switch proto.Code {
		case 530, 534, 535, 538:
			return safety.ToolError{Kind: safety.KindAuthenticationFailed, Message: fmt.Sprintf("smtp auth refused: %v", proto)}
		case 550, 551, 552, 553:
			return safety.ToolError{Kind: safety.KindRecipientRejected, Message: fmt.Sprintf("recipient refused by server: %v", proto)}
		}
	}
	return safety.ToolError{Kind: safety.KindTransportError, Message: fmt.Sprintf("smtp delivery failed: %v", err)}
}

// buildMessage renders a minimal RFC 5322 text message with CRLF line endings.
func buildMessage(from, to, subject, body string) []byte {
	var sb strings.Builder
	sb.Grow(len(body) + 256)
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + sanitizeHeader(subject) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(sb.String())
}

// sanitizeHeader strips CR/LF so a model-supplied subject cannot inject headers.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
