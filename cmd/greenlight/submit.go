package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/ahrav/go-greenlight/internal/domain"
	"github.com/ahrav/go-greenlight/internal/worker"
	"github.com/ahrav/go-greenlight/internal/workflow"
)

var submitCmd = &cobra.Command{
	Use:   "submit <item-id>",
	Short: "Create an item and start its approval workflow",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

func init() {
	submitCmd.Flags().String("owner", "", "owner identifier")
	submitCmd.Flags().String("staging-key", "", "staging media key")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg := worker.ConfigFromViper()
	itemID := args[0]
	owner, _ := cmd.Flags().GetString("owner")
	stagingKey, _ := cmd.Flags().GetString("staging-key")

	items, err := worker.InitializeItemStore(cfg.StoreDSN)
	if err != nil {
		return err
	}

	item := domain.Item{
		ID:              itemID,
		OwnerID:         owner,
		Status:          domain.StatusDraft,
		StagingMediaKey: stagingKey,
	}
	if err := items.Create(cmd.Context(), item); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Temporal: %w", err)
	}
	defer c.Close()

	run, err := c.ExecuteWorkflow(cmd.Context(), client.StartWorkflowOptions{
		ID:        "approval-" + itemID,
		TaskQueue: cfg.TaskQueue,
	}, workflow.ItemApprovalWorkflow, domain.ApprovalRequest{
		ItemID:          itemID,
		OwnerID:         owner,
		StagingMediaKey: stagingKey,
		TokenTTLSeconds: int64(cfg.TokenTTL.Seconds()),
	})
	if err != nil {
		return fmt.Errorf("failed to start workflow: %w", err)
	}

	log.Info("workflow_started",
		"item_id", itemID,
		"workflow_id", run.GetID(),
		"run_id", run.GetRunID(),
	)
	return nil
}
