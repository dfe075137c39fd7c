package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"net/textproto"
	"strings"
	"testing"

	"github.com/jobscout/jobscout/internal/safety"
)

func stubbed(err error, captured *[]byte) *Mailer {
	m := New("smtp.test", 587, "agent@example.com", "hunter2")
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		if captured != nil {
			*captured = msg
		}
		return err
	}
	return m
}

func TestSend_Success_MessageShape(t *testing.T) {
	var msg []byte
	m := stubbed(nil, &msg)

	err := m.Send(context.Background(), "a@example.com", "Daily postings", "line one\nline two")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	s := string(msg)
	for _, want := range []string{
		"From: agent@example.com\r\n",
		"To: a@example.com\r\n",
		"Subject: Daily postings\r\n",
		"\r\n\r\nline one\r\nline two",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("message missing %q:\n%s", want, s)
		}
	}
}

func TestSend_HeaderInjectionStripped(t *testing.T) {
	var msg []byte
	m := stubbed(nil, &msg)

	if err := m.Send(context.Background(), "a@example.com", "hi\r\nBcc: evil@x.test", "b"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if strings.Contains(string(msg), "Bcc:") {
		t.Fatalf("injected header survived:\n%s", string(msg))
	}
}

func TestSend_ErrorClassification(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantKind string
	}{
		{"auth 535", &textproto.Error{Code: 535, Msg: "5.7.8 bad credentials"}, safety.KindAuthenticationFailed},
		{"auth 530", &textproto.Error{Code: 530, Msg: "5.7.0 auth required"}, safety.KindAuthenticationFailed},
		{"recipient 550", &textproto.Error{Code: 550, Msg: "5.1.1 no such user"}, safety.KindRecipientRejected},
		{"recipient 553", &textproto.Error{Code: 553, Msg: "5.1.3 bad mailbox"}, safety.KindRecipientRejected},
		{"other smtp code", &textproto.Error{Code: 451, Msg: "try later"}, safety.KindTransportError},
		{"network error", fmt.Errorf("dial tcp: connection refused"), safety.KindTransportError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := stubbed(tc.err, nil)
			err := m.Send(context.Background(), "a@example.com", "s", "b")
			var te safety.ToolError
			if !errors.As(err, &te) {
				t.Fatalf("expected ToolError, got %v", err)
			}
			if te.Kind != tc.wantKind {
				t.Fatalf("kind: want %s, got %s", tc.wantKind, te.Kind)
			}
		})
	}
}

func TestSend_CancelledContext(t *testing.T) {
	block := make(chan struct{})
	m := New("smtp.test", 0, "agent@example.com", "pw")
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		<-block
		return nil
	}
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, "a@example.com", "s", "b")
	var te safety.ToolError
	if !errors.As(err, &te) || te.Kind != safety.KindTransportError {
		t.Fatalf("expected TransportError on cancellation, got %v", err)
	}
}

func TestNew_DefaultPort(t *testing.T) {
	m := New("smtp.test", 0, "f@example.com", "pw")
	if m.port != 587 {
		t.Fatalf("want default port 587, got %d", m.port)
	}
}
