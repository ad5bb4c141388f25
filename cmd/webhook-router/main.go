// Package main routes one repository event, given as positional arguments,
// to its handler:
//
//	webhook-router <issue|pr> <action> <number>
//	webhook-router push <branch> <commit-sha>
//	webhook-router comment <number> <author>
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"lark-ats/internal/common/config"
	"lark-ats/internal/common/errors"
	"lark-ats/internal/common/logger"
	"lark-ats/internal/common/observability"
	"lark-ats/internal/webhook"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(stdout, "\n%s\n", rule)
	fmt.Fprintln(stdout, "📡 Webhook Event Router")
	fmt.Fprintf(stdout, "%s\n\n", rule)

	cfg := loadConfig()
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	obs := observability.New(cfg.App.Name,
		observability.WithPushgateway(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job))
	defer func() {
		if err := obs.Shutdown(ctx); err != nil {
			log.Warn("Failed to flush telemetry", map[string]interface{}{"error": err.Error()})
		}
	}()

	event := webhook.Event{
		Type: arg(args, 0),
		Arg1: arg(args, 1),
		Arg2: arg(args, 2),
	}

	router := webhook.NewRouter(stdout, log)
	if err := router.Route(ctx, event); err != nil {
		if stdErr, ok := errors.AsStandardError(err); ok &&
			(stdErr.Code == errors.ErrCodeEventTypeMissing || stdErr.Code == errors.ErrCodeEventTypeUnknown) {
			fmt.Fprintf(stderr, "Error: %s\n", stdErr.Message)
			return 1
		}
		fmt.Fprintf(stderr, "\n❌ Error processing event: %v\n", err)
		return 1
	}

	fmt.Fprint(stdout, "\n✅ Event processed successfully\n\n")
	return 0
}

// loadConfig reads logging and metrics settings. The router needs no Lark
// credentials, so a config problem only costs the defaults.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		return &config.Config{
			App:     config.AppConfig{Name: "webhook-router"},
			Logging: config.LoggingConfig{Level: "info", Format: "console"},
		}
	}
	return cfg
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
