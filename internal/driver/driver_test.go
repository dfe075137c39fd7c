package driver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/jobscout/jobscout/internal/driver"
	"github.com/jobscout/jobscout/internal/provider"
	"github.com/jobscout/jobscout/tools"
)

type fakeTransport struct {
	mu     sync.Mutex
	body   string
	bodies [][]byte
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()
	f.mu.Lock()
	f.bodies = append(f.bodies, b)
	f.mu.Unlock()

	resp := &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(bytes.NewReader([]byte(f.body))),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func newClient(rt http.RoundTripper) *anthropic.Client {
	c := anthropic.NewClient(
		option.WithHTTPClient(&http.Client{Transport: rt}),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return &c
}

func oneToolRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	err := r.Register(tools.ToolDefinition{
		Name:        "search_jobs",
		Description: "stub",
		InputSchema: tools.GenerateSchema[struct{}](),
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			return "{}", nil
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return r
}

func TestNew_RejectsMisconfiguration(t *testing.T) {
	cli := newClient(&fakeTransport{body: `{"role":"assistant","content":[]}`})

	if _, err := driver.New(nil, provider.DefaultModel, oneToolRegistry(t), 0, ""); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := driver.New(cli, provider.DefaultModel, nil, 0, ""); err == nil {
		t.Fatal("expected error for nil registry")
	}
	if _, err := driver.New(cli, provider.DefaultModel, tools.NewRegistry(), 0, ""); err == nil {
		t.Fatal("expected error for empty registry")
	}
}

func TestExecute_ReturnsOutcome(t *testing.T) {
	tr := &fakeTransport{body: `{"role":"assistant","content":[{"type":"text","text":"3 new postings found and emailed"}]}`}
	d, err := driver.New(newClient(tr), provider.DefaultModel, oneToolRegistry(t), 4, "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	out, err := d.Execute(context.Background(), "find and report new job postings")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Answer != "3 new postings found and emailed" {
		t.Errorf("answer: %q", out.Answer)
	}
	if out.Iterations != 1 {
		t.Errorf("iterations: %d", out.Iterations)
	}
}

func TestExecute_FreshConversationPerRun(t *testing.T) {
	tr := &fakeTransport{body: `{"role":"assistant","content":[{"type":"text","text":"ok"}]}`}
	d, err := driver.New(newClient(tr), provider.DefaultModel, oneToolRegistry(t), 4, "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := d.Execute(context.Background(), "goal"); err != nil {
			t.Fatalf("execute %d: %v", i, err)
		}
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.bodies) != 2 {
		t.Fatalf("want 2 model calls, got %d", len(tr.bodies))
	}
	for i, b := range tr.bodies {
		if got := gjson.GetBytes(b, "messages.#").Int(); got != 1 {
			t.Errorf("run %d should start from a fresh conversation, got %d messages", i, got)
		}
	}
}

func TestExecute_SystemPromptIncluded(t *testing.T) {
	tr := &fakeTransport{body: `{"role":"assistant","content":[{"type":"text","text":"ok"}]}`}
	d, err := driver.New(newClient(tr), provider.DefaultModel, oneToolRegistry(t), 0, "custom framing")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := d.Execute(context.Background(), "goal"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if got := gjson.GetBytes(tr.bodies[0], "system.0.text").String(); got != "custom framing" {
		t.Errorf("system prompt not sent: %q", got)
	}
}
