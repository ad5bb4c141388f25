// Package main provides the ats CLI for provisioning the ATS table in Lark
// Base and managing its records.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"lark-ats/internal/ats"
	"lark-ats/internal/common/config"
	"lark-ats/internal/common/errors"
	"lark-ats/internal/common/lark"
	"lark-ats/internal/common/logger"
	"lark-ats/internal/common/observability"
)

// app carries what the commands share. loadConfig is swapped in tests.
type app struct {
	configPath string
	tableID    string

	loadConfig func(path string) (*config.Config, error)
	cfg        *config.Config
	log        logger.Logger
	obs        *observability.Observability
	redis      *redis.Client
}

func defaultLoadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ats",
		Short:         "Applicant tracking records in Lark Base",
		Long:          "ats provisions the 採用管理（ATS） table in a Lark Base app and creates, lists, updates and deletes its records.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(a.configPath)
			if err != nil {
				return err
			}
			if a.tableID != "" {
				cfg.Lark.TableID = a.tableID
			}
			a.cfg = cfg
			a.log = logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format).
				With(map[string]interface{}{"command": cmd.Name()})
			a.obs = newObservability(cfg, a.log)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file (default: configs/config.yaml)")
	root.PersistentFlags().StringVar(&a.tableID, "table-id", "", "ATS table id (overrides LARK_TABLE_ID)")

	root.AddCommand(newProvisionCmd(a))
	root.AddCommand(newRecordsCmd(a))
	return root
}

// client builds the Lark client, sharing tenant tokens through Redis when
// an address is configured.
func (a *app) client() (*lark.Client, error) {
	opts := []lark.Option{
		lark.WithLogger(a.log),
		lark.WithObservability(a.obs),
	}
	if a.cfg.Redis.Enabled() {
		if a.redis == nil {
			a.redis = lark.NewRedisClient(a.cfg.Redis)
		}
		opts = append(opts, lark.WithTokenStore(lark.NewRedisTokenStore(a.redis, a.cfg.Redis.KeyPrefix)))
	}
	return lark.NewClient(a.cfg.Lark, opts...)
}

func (a *app) operations() (*ats.Operations, error) {
	client, err := a.client()
	if err != nil {
		return nil, err
	}
	return ats.NewOperations(client, a.cfg.Lark.TableID, a.log)
}

func newObservability(cfg *config.Config, log logger.Logger) *observability.Observability {
	opts := []observability.Option{
		observability.WithPushgateway(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job),
	}
	if cfg.Tracing.Exporter == config.TracingExporterLog {
		opts = append(opts, observability.WithSpanLogger(log))
	}
	return observability.New(cfg.App.Name, opts...)
}

// close pushes metrics and releases connections. It runs after every
// command, failed ones included.
func (a *app) close() {
	if a.obs != nil {
		if err := a.obs.Shutdown(context.Background()); err != nil && a.log != nil {
			a.log.Warn("Failed to flush telemetry", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && a.log != nil {
			a.log.Warn("Failed to close Redis client", map[string]interface{}{"error": err.Error()})
		}
	}
}

// execute runs the command tree and always releases what it opened.
func (a *app) execute(root *cobra.Command) error {
	defer a.close()

	err := root.Execute()
	if err != nil && a.log != nil {
		code := errors.CodeOf(err)
		a.log.Error("Command failed", map[string]interface{}{
			"code":     string(code),
			"category": errors.GetErrorCategory(code),
		})
	}
	return err
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	a := &app{loadConfig: defaultLoadConfig}
	if err := a.execute(newRootCmd(a)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
