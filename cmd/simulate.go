package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/warehouse-showcase/internal/adapters/render/dashboard"
	"github.com/bnema/warehouse-showcase/internal/application"
	"github.com/bnema/warehouse-showcase/internal/config"
	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/spf13/cobra"
)

var defaultScenarioParts = []string{"1", "2", "3", "4", "5", "6"}

type simulationReport struct {
	Batch    application.BatchResult
	Cleared  []domain.RobotOperation
	Snapshot application.Snapshot
}

func newSimulateCmd(app *app) *cobra.Command {
	var (
		partIDs    []string
		scale      float64
		clearAfter bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a retrieval scenario against the simulated robot",
		Long:  "simulate requests a batch of parts from the seed catalog, waits for the simulated robot and the queue to settle, then prints the resulting dashboard.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if scale < 0 {
				return fmt.Errorf("--scale must not be negative")
			}

			report, err := runSimulation(cmd, app, partIDs, scale, clearAfter, asJSON)
			if err != nil {
				return err
			}

			return writeSimulationOutput(cmd, app, report, asJSON)
		},
	}

	cmd.Flags().StringSliceVar(&partIDs, "parts", defaultScenarioParts, "Part IDs to retrieve in one batch")
	cmd.Flags().Float64Var(&scale, "scale", 1, "Multiplier applied to robot phase durations")
	cmd.Flags().BoolVar(&clearAfter, "clear", false, "Release every occupied station once the batch settles")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func runSimulation(cmd *cobra.Command, app *app, partIDs []string, scale float64, clearAfter, asJSON bool) (simulationReport, error) {
	runCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt, err := app.newRuntime(runCtx, config.ModeSimulated, scale)
	if err != nil {
		return simulationReport{}, err
	}

	runDone := make(chan error, 1)
	go func() { runDone <- rt.coordinator.Run(runCtx) }()
	defer func() {
		cancel()
		<-runDone
		rt.coordinator.Wait()
	}()

	ids := make([]domain.PartID, 0, len(partIDs))
	for _, id := range partIDs {
		ids = append(ids, domain.PartID(id))
	}

	var report simulationReport
	work := func(ctx context.Context) error {
		batch, err := rt.coordinator.RetrieveMany(ctx, ids)
		if err != nil {
			return err
		}
		report.Batch = batch

		if err := rt.coordinator.Settle(ctx); err != nil {
			return err
		}

		if clearAfter {
			cleared, err := rt.coordinator.ClearStations(ctx)
			if err != nil {
				return err
			}
			report.Cleared = cleared

			if err := rt.coordinator.Settle(ctx); err != nil {
				return err
			}
		}

		report.Snapshot, err = rt.coordinator.Snapshot(ctx)
		return err
	}

	if asJSON {
		err = work(runCtx)
	} else {
		err = runWithSpinner(runCtx, cmd.ErrOrStderr(), "Running robot operations...", work)
	}
	if err != nil {
		return simulationReport{}, err
	}

	return report, nil
}

func writeSimulationOutput(cmd *cobra.Command, app *app, report simulationReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "dispatched %d, queued %d, rejected %d\n",
		len(report.Batch.Operations), len(report.Batch.Queued), len(report.Batch.Rejected)); err != nil {
		return err
	}
	if len(report.Cleared) > 0 {
		if _, err := fmt.Fprintf(out, "released %d stations\n", len(report.Cleared)); err != nil {
			return err
		}
	}

	rendered, err := app.dashboardRenderer(report.Snapshot, dashboard.RenderOptions{
		Now:        app.clock.Now(),
		StaleAfter: time.Minute,
	})
	if err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}

	_, err = fmt.Fprintln(out, rendered)
	return err
}
