package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// BoardRefreshInput is the input for the board refresh workflow.
type BoardRefreshInput struct {
	// Reason is recorded on the workflow history ("scheduled" | "manual").
	Reason string
}

// BoardRefreshWorkflow fetches the current price board and reference rate,
// persists them, invalidates caches, and notifies subscribers. A fetch
// failure leaves the previously stored board untouched so evaluations keep
// running on the last known data.
func BoardRefreshWorkflow(ctx workflow.Context, input BoardRefreshInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting board refresh", "reason", input.Reason)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Fetch the latest board
	var result BoardFetchResult
	err := workflow.ExecuteActivity(ctx, "FetchLatestBoard").Get(ctx, &result)
	if err != nil {
		logger.Warn("board fetch failed, keeping previous board", "error", err)
		return err
	}

	// Step 2: Persist prices and rate
	err = workflow.ExecuteActivity(ctx, "StoreBoard", &result).Get(ctx, nil)
	if err != nil {
		return err
	}

	// Step 3: Drop stale cached snapshots
	_ = workflow.ExecuteActivity(ctx, "InvalidateCaches").Get(ctx, nil)

	// Step 4: Notify subscribers
	err = workflow.ExecuteActivity(ctx, "PublishBoardUpdate", &result).Get(ctx, nil)
	if err != nil {
		logger.Warn("board update not published", "error", err)
	}

	logger.Info("Board refresh complete", "rate", result.Rate, "grains", len(result.Prices))
	return nil
}
