// Command jobscout runs the job-search agent: one run per trigger, either a
// single invocation (cron-friendly) or an interval loop via -every.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"

	"github.com/jobscout/jobscout/internal/config"
	"github.com/jobscout/jobscout/internal/driver"
	"github.com/jobscout/jobscout/internal/jobsearch"
	"github.com/jobscout/jobscout/internal/mailer"
	"github.com/jobscout/jobscout/internal/provider"
	"github.com/jobscout/jobscout/internal/runner"
	"github.com/jobscout/jobscout/internal/safety"
	"github.com/jobscout/jobscout/tools"
)

func main() {
	var (
		configPath = flag.String("config", "jobscout.yaml", "path to the YAML configuration")
		goalFlag   = flag.String("goal", "", "override the configured goal for this invocation")
		recipient  = flag.String("recipient", "", "override the configured recipient")
		every      = flag.Duration("every", 0, "run repeatedly at this interval (0 runs once)")
		dryRun     = flag.Bool("dry-run", false, "log outgoing email instead of delivering it")
	)
	flag.Parse()

	level := os.Getenv("JOBSCOUT_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	logger := hclog.New(&hclog.LoggerOptions{Name: "jobscout", Level: hclog.LevelFromString(level)})

	// .env is optional; config placeholders resolve from whatever is present.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not load .env", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("configuration rejected", "error", err)
		os.Exit(1)
	}
	if *recipient != "" {
		cfg.Recipient = *recipient
	}
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		logger.Error("ANTHROPIC_API_KEY is not set")
		os.Exit(1)
	}
	if cfg.Email.Password == "" && !*dryRun {
		logger.Warn("email.password is empty; delivery will likely fail auth")
	}

	searcher := jobsearch.NewClient(cfg.Search.BaseURL, cfg.Search.APIKey, cfg.SearchTimeout())
	policy := safety.NewRecipientPolicy(cfg.Email.AllowedDomains)

	var sender tools.EmailSender = mailer.New(cfg.Email.Host, cfg.Email.Port, cfg.Email.From, cfg.Email.Password)
	if *dryRun {
		sender = dryRunSender{log: logger}
	}

	registry := tools.NewRegistry()
	for _, def := range []tools.ToolDefinition{
		tools.NewSearchJobsTool(searcher),
		tools.NewSendEmailTool(sender, policy),
	} {
		if err := registry.Register(def); err != nil {
			logger.Error("tool registry setup failed", "tool", def.Name, "error", err)
			os.Exit(1)
		}
	}

	model := provider.DefaultModel
	if cfg.Model != "" {
		model = anthropic.Model(cfg.Model)
	}

	d, err := driver.New(provider.NewAnthropicClient(), model, registry, cfg.MaxIterations, "")
	if err != nil {
		logger.Error("driver setup failed", "error", err)
		os.Exit(1)
	}

	goal := *goalFlag
	if goal == "" {
		goal = cfg.Goal
	}
	if goal == "" {
		goal = fmt.Sprintf("Find new job postings from the last day matching my interests and email them to %s.", cfg.Recipient)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() bool {
		started := time.Now()
		out, err := d.Execute(ctx, goal)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled):
				logger.Info("run cancelled")
			case errors.Is(err, runner.ErrBudgetExceeded):
				logger.Error("run hit the iteration budget",
					"iterations", out.Iterations,
					"last_tool_failure", out.LastToolFailure)
			default:
				logger.Error("run failed", "error", err)
			}
			return false
		}
		logger.Info("run finished",
			"answer", out.Answer,
			"iterations", out.Iterations,
			"took", time.Since(started).Round(time.Millisecond).String())
		return true
	}

	if *every <= 0 {
		if !run() {
			os.Exit(1)
		}
		return
	}

	logger.Info("running on an interval", "every", every.String(), "recipient", cfg.Recipient)
	ticker := time.NewTicker(*every)
	defer ticker.Stop()

	run()
	for {
		select {
		case <-ctx.Done():
			logger.Info("exiting")
			return
		case <-ticker.C:
			run()
		}
	}
}

// dryRunSender satisfies tools.EmailSender without touching SMTP.
type dryRunSender struct {
	log hclog.Logger
}

func (s dryRunSender) Send(ctx context.Context, to, subject, body string) error {
	s.log.Info("dry-run email", "to", to, "subject", subject, "body_bytes", len(body))
	fmt.Println(body)
	return nil
}
