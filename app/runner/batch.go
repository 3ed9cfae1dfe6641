package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/weweops/wewe-refresh/app/dash"
	"github.com/weweops/wewe-refresh/app/trpc"
)

// BatchClient is the slice of the tRPC client the batch driver needs.
type BatchClient interface {
	RefreshAll(ctx context.Context) (*trpc.Result, error)
}

// RunBatch applies the same cycle/delay discipline to the raw refresh
// endpoint: fire the whole-batch request once per cycle, report, wait, repeat.
// A failed request is reported and the loop continues, matching the manual
// workflow; only context cancellation stops early.
func (r *Runner) RunBatch(ctx context.Context, client BatchClient) ([]CycleSummary, error) {
	runID := r.recordRunStart("batch")
	defer r.recordRunFinish(runID)

	var summaries []CycleSummary

	for cycle := 1; cycle <= r.opts.Cycles; cycle++ {
		slog.Info("Sending batch refresh", "cycle", cycle, "of", r.opts.Cycles)

		summary := CycleSummary{Cycle: cycle, AuthOK: true, Attempted: 1}
		started := time.Now()

		result, err := client.RefreshAll(ctx)
		summary.Duration = time.Since(started)

		switch {
		case err != nil:
			if ctx.Err() != nil {
				summaries = append(summaries, summary)
				return summaries, ctx.Err()
			}
			summary.Failed++
			summary.AuthOK = false
			slog.Error("Batch refresh request failed", "cycle", cycle, "error", err)
		case result.Err != nil:
			summary.Failed++
			summary.Outcomes = append(summary.Outcomes, EntryResult{
				Outcome: dash.OutcomeFailed,
				Detail:  result.Err.Error(),
			})
			slog.Error("Batch refresh refused",
				"cycle", cycle,
				"message", result.Err.Message,
				"code", result.Err.Code,
				"http_status", result.Err.Data.HTTPStatus,
				"path", result.Err.Data.Path)
		case !result.OK():
			summary.Failed++
			slog.Error("Batch refresh returned an error status",
				"cycle", cycle, "status", result.StatusCode, "body", result.RawBody)
		default:
			summary.Succeeded++
			slog.Info("Batch refresh completed",
				"cycle", cycle,
				"status", result.StatusCode,
				"duration", result.Duration.Round(time.Millisecond))
		}

		summaries = append(summaries, summary)
		r.recordCycle(runID, summary)

		if cycle < r.opts.Cycles {
			if err := sleepCtx(ctx, r.opts.CycleDelay); err != nil {
				return summaries, err
			}
		}
	}

	return summaries, nil
}
