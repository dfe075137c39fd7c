// Package driver turns one goal into one complete run. It owns no state
// between runs: every Execute builds a fresh runner and conversation, so
// overlapping schedule triggers can run concurrently against the same
// read-only tool registry.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/jobscout/jobscout/internal/runner"
	"github.com/jobscout/jobscout/internal/telemetry"
	"github.com/jobscout/jobscout/tools"
)

// DefaultSystemPrompt frames the agent for the job-search and delivery task.
const DefaultSystemPrompt = "You are an autonomous job-search agent. Use search_jobs to find postings " +
	"matching the goal, then send_email to deliver them to the requested recipient. " +
	"In the email body greet the recipient, list each posting with its title, company, " +
	"location and link, and sign off as the job agent. If a search matches nothing, " +
	"say so in the email instead of inventing postings. When delivery is confirmed, " +
	"reply with a one-line summary of what was sent and stop calling tools."

// Driver constructs and executes runs.
type Driver struct {
	client        *anthropic.Client
	model         anthropic.Model
	registry      *tools.Registry
	maxIterations int
	systemPrompt  string
}

// New validates the setup and returns a Driver. A nil or empty registry is a
// structural misconfiguration caught here, before any run starts.
func New(client *anthropic.Client, model anthropic.Model, registry *tools.Registry, maxIterations int, systemPrompt string) (*Driver, error) {
	if client == nil {
		return nil, errors.New("driver requires a model client")
	}
	if registry == nil || registry.Len() == 0 {
		return nil, errors.New("driver requires a registry with at least one tool")
	}
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Driver{
		client:        client,
		model:         model,
		registry:      registry,
		maxIterations: maxIterations,
		systemPrompt:  systemPrompt,
	}, nil
}

// Execute performs one run from goal to outcome. The conversation is created
// here and discarded when the run ends; nothing carries over to the next
// call. Retrying a failed run is the scheduler's decision, not the driver's.
func (d *Driver) Execute(ctx context.Context, goal string) (runner.Outcome, error) {
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	if id, ok := telemetry.RunIDFromContext(ctx); ok {
		runID = id
	} else {
		ctx = telemetry.WithRunID(ctx, runID)
	}

	telemetry.Emit("run_started", map[string]any{"run_id": runID, "goal_len": len(goal)})

	r := runner.New(d.client, d.model, d.registry)
	r.MaxIterations = d.maxIterations
	r.SystemPrompt = d.systemPrompt

	out, err := r.Run(ctx, goal)

	fields := map[string]any{
		"run_id":     runID,
		"iterations": out.Iterations,
		"answer_len": len(out.Answer),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	if out.LastToolFailure != "" {
		fields["last_tool_failure"] = out.LastToolFailure
	}
	telemetry.Emit("run_finished", fields)

	return out, err
}
