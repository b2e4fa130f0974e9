package commands

import (
	"context"
	"fmt"
	"os"
	"playconsole-backend/cmd/playconsole-cli/globals"
	"playconsole-backend/internal/components/telemetry"
	"playconsole-backend/internal/scrapers/console"
	"playconsole-backend/pkg/configutil"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
	format     *string
	timeout    *time.Duration
)

var otelProviders telemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:   "playconsole-cli",
	Short: "playconsole-cli downloads reports from the google play developer console.",

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(*verbose)

		cfg, err := configutil.ReadConfig[globals.Config](*configPath)
		if err != nil {
			return fmt.Errorf("read config %s: %w", *configPath, err)
		}

		otelProviders, err = telemetry.Setup(cmd.Context(), "playconsole-cli", cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		tel := telemetry.WithMetrics(telemetry.SlogAPI{})

		client, err := newClient(cfg.Console, tel)
		if err != nil {
			return err
		}

		cmd.SetContext(globals.Set(cmd.Context(), &globals.Value{
			Config: cfg,
			Client: client,
			Tel:    tel,
		}))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := otelProviders.Shutdown(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "shutdown telemetry:", err)
		}
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file to read.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
	format = rootCmd.PersistentFlags().String("format", "table", "Output format of reports: table, csv or dump.")
	timeout = rootCmd.PersistentFlags().Duration("timeout", time.Minute*5, "Give up on a report after this long.")
}

func newClient(cfg globals.ConsoleConfig, tel telemetry.API) (*console.Client, error) {
	endpoints, err := console.EndpointsFor(cfg.Version)
	if err != nil {
		return nil, err
	}

	var output telemetry.MessageOutput
	if cfg.DumpDirectory != "" {
		dirOutput, err := telemetry.NewDirectoryOutput(cfg.DumpDirectory)
		if err != nil {
			return nil, fmt.Errorf("create dump directory: %w", err)
		}
		output = dirOutput
	}

	session, err := console.NewHTTPSession(console.HTTPSessionOptions{
		UserAgent:         cfg.UserAgent,
		Cookies:           cfg.Cookies,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           cfg.Timeout(),
		Output:            output,
	}, tel)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return console.NewClient(session, console.ClientOptions{
		Endpoints:        endpoints,
		DeveloperAccount: cfg.DeveloperAccount,
	}, tel), nil
}

// operationContext bounds a single report retrieval.
func operationContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), *timeout)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
