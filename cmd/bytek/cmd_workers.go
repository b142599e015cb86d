package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bytekstore/bytek/config"
	"github.com/bytekstore/bytek/internal/kernel"
	"github.com/bytekstore/bytek/pkg/logger"
	"github.com/bytekstore/bytek/pkg/schedule"
)

var queueWorkersFlag int

// bytek queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Process queued notification jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		if config.QueueDriver() != "redis" {
			logger.Warn("queue:work: QUEUE_DRIVER is not redis, this worker only sees its own jobs")
		}

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 5
		}
		fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		k.Queue.Work(ctx, workers)
		fmt.Println("Queue worker stopped.")
		return nil
	},
}

// bytek queue:failed
var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List jobs that exhausted their retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		jobs, err := k.Queue.Failures(ctx)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No failed jobs.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tATTEMPTS\tFAILED AT\tERROR")
		for _, j := range jobs {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", j.ID, j.Type, j.Attempts, j.FailedAt.Format("2006-01-02 15:04"), j.Error)
		}
		return w.Flush()
	},
}

// bytek schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run scheduled tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()
		k.Start(ctx)

		s := schedule.New()
		if err := s.Cron(config.LowStockCron()).Name("low-stock-digest").WithoutOverlapping().Run(k.Digest.Task); err != nil {
			return err
		}
		for _, e := range s.List() {
			fmt.Printf("  %s (%s) next %s\n", e.Name, e.Spec, e.Next.Format("2006-01-02 15:04"))
		}

		fmt.Println("Scheduler started. Press Ctrl+C to stop.")
		s.Start(ctx)
		fmt.Println("Scheduler stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 5, "Number of concurrent workers")
}
