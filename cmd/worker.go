package cmd

import (
	"os/signal"
	"syscall"

	"github.com/Govind-619/LinkSphere/jobs"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/spf13/cobra"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Dispatch the outbox and run the scheduled jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			scheduler := jobs.NewScheduler(jobs.NewJobs(a.store, cfg.OutboxRetention), jobs.Schedules{
				OutboxPrune:  cfg.OutboxPruneCron,
				OrphanReport: cfg.OrphanReportCron,
			})
			if err := scheduler.Start(); err != nil {
				return err
			}
			defer func() {
				<-scheduler.Stop().Done()
				utils.LogInfo("Scheduler stopped")
			}()

			a.worker(cfg).Run(ctx)
			return nil
		},
	}
}
