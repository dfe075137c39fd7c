package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/jobscout/jobscout/internal/safety"
	"github.com/jobscout/jobscout/internal/telemetry"
	"github.com/jobscout/jobscout/memory"
	"github.com/jobscout/jobscout/tools"
)

// DefaultMaxIterations bounds a run when no cap is configured.
const DefaultMaxIterations = 8

const defaultMaxTokens = 1024

// ErrBudgetExceeded marks a run that hit the iteration cap without a final
// answer. It is a structural failure: the run terminates and the caller sees
// it, unlike tool failures which are fed back to the model.
var ErrBudgetExceeded = errors.New("iteration budget exceeded")

// Outcome is the terminal value of one run.
type Outcome struct {
	// Answer is the model's final text when the run succeeded.
	Answer string
	// Iterations is how many model turns the run consumed.
	Iterations int
	// LastToolFailure is the kind of the most recent failed tool invocation,
	// or empty if every invocation succeeded. Populated on both success and
	// failure so a BudgetExceeded outcome can name what kept breaking.
	LastToolFailure string
}

// Runner drives one goal to termination: ask the model for the next action,
// validate and execute at most one tool call, feed the observation back, and
// repeat until the model answers without proposing a tool or the iteration
// cap trips. One Runner serves one run; conversation state is not shared.
type Runner struct {
	Client   *anthropic.Client
	Model    anthropic.Model
	Registry *tools.Registry

	// MaxIterations caps model turns; <= 0 selects DefaultMaxIterations.
	MaxIterations int
	// SystemPrompt frames the model's role; empty omits the system block.
	SystemPrompt string
}

// New returns a Runner over the given client, model, and tool registry.
func New(client *anthropic.Client, model anthropic.Model, registry *tools.Registry) *Runner {
	return &Runner{Client: client, Model: model, Registry: registry}
}

func (r *Runner) anthropicTools() []anthropic.ToolUnionParam {
	defs := r.Registry.Definitions()
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, t := range defs {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: t.InputSchema,
		}})
	}
	return out
}

// Run executes the loop for one goal. It returns a nil error with the final
// answer on success; ErrBudgetExceeded when the cap trips; the context error
// on cancellation (checked between iterations, never mid-invocation); or the
// wrapped transport error when the model call itself fails.
func (r *Runner) Run(ctx context.Context, goal string) (Outcome, error) {
	if strings.TrimSpace(goal) == "" {
		return Outcome{}, errors.New("goal is empty")
	}
	maxIter := r.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	runID, _ := telemetry.RunIDFromContext(ctx)
	conv := memory.NewConversation(goal)
	var lastFailure string

	for iter := 1; iter <= maxIter; iter++ {
		select {
		case <-ctx.Done():
			return Outcome{Iterations: iter - 1, LastToolFailure: lastFailure}, ctx.Err()
		default:
		}

		params := anthropic.MessageNewParams{
			Model:     r.Model,
			MaxTokens: int64(defaultMaxTokens),
			Messages:  conv.Messages(),
			Tools:     r.anthropicTools(),
		}
		if r.SystemPrompt != "" {
			params.System = []anthropic.TextBlockParam{{Text: r.SystemPrompt}}
		}

		telemetry.Emit("model_call", map[string]any{
			"run_id":    runID,
			"iteration": iter,
			"turns":     conv.Len(),
		})

		msg, err := r.Client.Messages.New(ctx, params)
		if err != nil {
			return Outcome{Iterations: iter, LastToolFailure: lastFailure}, fmt.Errorf("model call: %w", err)
		}
		conv.AppendAssistant(msg.ToParam())

		var answer strings.Builder
		var proposals []anthropic.ToolUseBlock
		for _, block := range msg.Content {
			switch v := block.AsAny().(type) {
			case anthropic.TextBlock:
				if answer.Len() > 0 {
					answer.WriteString("\n")
				}
				answer.WriteString(v.Text)
			case anthropic.ToolUseBlock:
				proposals = append(proposals, v)
			}
		}

		// No proposal means the model is done: the text is the final answer.
		if len(proposals) == 0 {
			return Outcome{Answer: answer.String(), Iterations: iter, LastToolFailure: lastFailure}, nil
		}

		results := make([]anthropic.ContentBlockParamUnion, 0, len(proposals))

		// Exactly one proposal is acted on per iteration.
		use := proposals[0]
		def, err := r.Registry.Resolve(use.Name)
		if err != nil {
			// Unregistered names never reach invocation; the model gets a
			// corrective observation naming the valid set instead.
			telemetry.Emit("unknown_tool", map[string]any{"run_id": runID, "tool_name": use.Name})
			corrective := fmt.Sprintf("unknown tool %q; valid tools: %s", use.Name, strings.Join(r.Registry.Names(), ", "))
			results = append(results, anthropic.NewToolResultBlock(use.ID, corrective, true))
		} else {
			block, failureKind := r.execTool(ctx, use.ID, def, json.RawMessage(use.JSON.Input.Raw()))
			if failureKind != "" {
				lastFailure = failureKind
			}
			results = append(results, block)
		}

		// Surplus proposals in the same message are declined, not executed.
		for _, extra := range proposals[1:] {
			results = append(results, anthropic.NewToolResultBlock(extra.ID,
				"only one tool call is acted on per turn; propose this call again by itself", true))
		}

		conv.AppendObservation(results...)
	}

	err := fmt.Errorf("no final answer within %d iterations: %w", maxIter, ErrBudgetExceeded)
	if lastFailure != "" {
		err = fmt.Errorf("no final answer within %d iterations (last tool failure: %s): %w", maxIter, lastFailure, ErrBudgetExceeded)
	}
	return Outcome{Iterations: maxIter, LastToolFailure: lastFailure}, err
}

// execTool invokes one resolved tool and wraps its result for the model.
// The returned kind is non-empty only for failed invocations.
func (r *Runner) execTool(ctx context.Context, id string, def tools.ToolDefinition, input json.RawMessage) (anthropic.ContentBlockParamUnion, string) {
	runID, _ := telemetry.RunIDFromContext(ctx)
	start := time.Now()

	out, err := def.Function(ctx, input)

	fields := map[string]any{
		"run_id":      runID,
		"tool_name":   def.Name,
		"duration_ms": time.Since(start).Milliseconds(),
		"input_size":  len(input),
	}
	if err != nil {
		kind := "TOOL_ERROR"
		var te safety.ToolError
		if errors.As(err, &te) && te.Kind != "" {
			kind = te.Kind
		}
		fields["output_size"] = 0
		fields["error"] = kind
		telemetry.Emit("tool_exec", fields)
		// The detailed message goes back to the model; telemetry only keeps the kind.
		return anthropic.NewToolResultBlock(id, err.Error(), true), kind
	}

	fields["output_size"] = len(out)
	fields["error"] = nil
	telemetry.Emit("tool_exec", fields)
	return anthropic.NewToolResultBlock(id, out, false), ""
}
