package commands

import (
	"log/slog"
	"playconsole-backend/cmd/playconsole-cli/globals"
	"playconsole-backend/internal/components/alert"
	"playconsole-backend/internal/components/chrono"
	"playconsole-backend/internal/components/telemetry"
	"playconsole-backend/internal/fetcher"
	"playconsole-backend/internal/reportstore"
	"playconsole-backend/pkg/serviceutil"

	"github.com/spf13/cobra"
)

const defaultDaemonCron = "0 6 * * *"

var daemonOnce *bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Periodically copy reports from the console into the report store.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		value := globals.Get(ctx)
		cfg := value.Config

		store, err := reportstore.Open(cfg.Store.Path)
		if err != nil {
			serviceutil.Fatal("failed to open report store", err)
		}
		defer store.Close()

		clock, err := chrono.NewStandardImpl(cfg.Daemon.Timezone)
		if err != nil {
			serviceutil.Fatal("failed to load timezone", err)
		}

		var alerter alert.API = alert.Noop{}
		if cfg.Alert.Enabled() {
			alerter = alert.NewMailer(cfg.Alert, value.Tel)
		}

		f := fetcher.NewFetcher(
			value.Client,
			store,
			clock,
			alerter,
			fetcher.Options{
				MonthsBack: cfg.Daemon.MonthsBack,
				Packages:   cfg.Daemon.Packages,
				StatsDays:  cfg.Daemon.StatsDays,
				Keep:       cfg.Daemon.Keep,
			},
			value.Tel,
		)

		run := func() {
			runCtx, cancel := operationContext(cmd)
			defer cancel()
			err := f.Run(runCtx)
			if err != nil {
				slog.Warn("fetch round finished with errors", "err", err.Error())
			}
		}

		if *daemonOnce {
			run()
			return
		}

		telemetry.InstrumentPerfStats(ctx, value.Tel)

		if cfg.Daemon.Listen != "" {
			go serviceutil.StartHttpServer(ctx, cfg.Daemon.Listen, reportstore.NewHandler(store, value.Tel))
		}

		spec := cfg.Daemon.Cron
		if spec == "" {
			spec = defaultDaemonCron
		}
		cron := chrono.NewStandardCron(clock, value.Tel)
		err = cron.Cron(spec, run)
		if err != nil {
			serviceutil.Fatal("invalid cron spec", err)
		}

		run()
		<-ctx.Done()
		cron.Stop()
	},
}

func init() {
	daemonOnce = daemonCmd.Flags().Bool("once", false, "Run a single fetch round and exit.")
	rootCmd.AddCommand(daemonCmd)
}
