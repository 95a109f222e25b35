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

var decideCmd = &cobra.Command{
	Use:   "decide <callback-token>",
	Short: "Record an approve or reject decision for a pending item",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecide,
}

func init() {
	decideCmd.Flags().Bool("approve", false, "approve the item")
	decideCmd.Flags().Bool("reject", false, "reject the item")
	decideCmd.Flags().String("reason", "", "rejection reason (required with --reject)")
	decideCmd.Flags().String("by", "", "reviewer identifier")
	decideCmd.Flags().String("item-id", "", "item identifier, for replay classification")
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg := worker.ConfigFromViper()

	approve, _ := cmd.Flags().GetBool("approve")
	reject, _ := cmd.Flags().GetBool("reject")
	if approve == reject {
		return fmt.Errorf("exactly one of --approve or --reject is required")
	}
	decision := domain.DecisionApprove
	if reject {
		decision = domain.DecisionReject
	}
	reason, _ := cmd.Flags().GetString("reason")
	decidedBy, _ := cmd.Flags().GetString("by")
	itemID, _ := cmd.Flags().GetString("item-id")

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

	result, err := acts.Decide(cmd.Context(), domain.DecideInput{
		CallbackToken: domain.CallbackToken(args[0]),
		ItemID:        itemID,
		Decision:      decision,
		Reason:        reason,
		DecidedBy:     decidedBy,
	})
	if err != nil {
		return err
	}

	log.Info("decision_recorded",
		"item_id", result.ItemID,
		"status", string(result.Status),
		"idempotent", result.Idempotent,
	)
	return nil
}
