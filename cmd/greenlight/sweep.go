package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/ahrav/go-greenlight/internal/domain"
	"github.com/ahrav/go-greenlight/internal/review"
	"github.com/ahrav/go-greenlight/internal/worker"
	"github.com/ahrav/go-greenlight/pkg/activity"
	"github.com/ahrav/go-greenlight/pkg/events"
)

var sweepCmd = &cobra.Command{
	Use:   "expire-sweep",
	Short: "Expire pending items whose callback tokens have lapsed",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().Int("limit", review.DefaultSweepLimit, "maximum items per run")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	cfg := worker.ConfigFromViper()
	limit, _ := cmd.Flags().GetInt("limit")

	items, err := worker.InitializeItemStore(cfg.StoreDSN)
	if err != nil {
		return err
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Temporal: %w", err)
	}
	defer c.Close()

	base := activity.NewBaseActivities(events.NewNoOpEventSink())
	acts := review.NewActivities(base, items, review.NewTemporalCompleter(c), nil, cfg.TokenTTL)

	result, err := acts.ExpireStale(cmd.Context(), domain.ExpireStaleInput{Limit: limit})
	if err != nil {
		return err
	}

	log.Info("sweep_complete",
		"scanned", result.Scanned,
		"expired", result.Expired,
		"skipped", result.Skipped,
		"errors", result.Errors,
	)
	return nil
}
