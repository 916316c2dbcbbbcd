package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"ai-news-pipeline/internal/logger"
	"ai-news-pipeline/internal/metrics"
)

var (
	serveMetricsPort int
	serveSchedule    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose /metrics and, if --schedule is set, run the digest on a cron schedule",
	Long: `serve starts the Prometheus metrics endpoint and blocks until
interrupted. With --schedule set to a standard 5-field cron expression, it
also runs the daily digest (equivalent to "run") on that schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&serveMetricsPort, "metrics-port", 9090, "port to serve /metrics and /health on")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", "", "cron expression to run the digest on (e.g. \"0 8 * * *\"); empty disables scheduling")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Stage("serve")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Serve(ctx, serveMetricsPort)

	var sched *cron.Cron
	if serveSchedule != "" {
		sched = cron.New()
		if _, err := sched.AddFunc(serveSchedule, func() {
			if err := runDigest(cmd, nil); err != nil {
				log.Error().Err(err).Msg("scheduled digest run failed")
			}
		}); err != nil {
			return err
		}
		sched.Start()
		log.Info().Str("schedule", serveSchedule).Msg("digest scheduled")
		defer sched.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutting down")
	cancel()
	return nil
}
