package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradefin/cfaam/internal/scheduler"
	"github.com/tradefin/cfaam/internal/scheduler/jobs"
)

// schedulerCmd manages the standalone scan scheduler (no HTTP server).
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the reminder scan scheduler",
	Long: `Runs the reminder scan scheduler as a standalone daemon.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run a job immediately
  status  - show registered jobs and recent results

Example:
  go run ./cmd/cfaam scheduler start
  go run ./cmd/cfaam scheduler run reminder_scan`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runSchedulerDaemon,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listSchedulerJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show registered jobs and recent results",
		RunE:  showSchedulerStatus,
	}
)

var statusLast int

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)

	schedulerStatusCmd.Flags().IntVar(&statusLast, "last", 5, "number of recent results to show per job")
}

func buildScheduler() (*scheduler.Scheduler, *engineDeps, error) {
	deps, err := initEngine()
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(deps.log)
	job := jobs.NewReminderScanJob(deps.service, deps.cfg.Scheduler.ScanSchedule, deps.log)
	if err := sched.AddJob(job); err != nil {
		deps.Close()
		return nil, nil, fmt.Errorf("register reminder scan job: %w", err)
	}

	return sched, deps, nil
}

func runSchedulerDaemon(cmd *cobra.Command, args []string) error {
	sched, deps, err := buildScheduler()
	if err != nil {
		return err
	}
	defer deps.Close()

	sched.Start()

	fmt.Println("Scheduler started. Registered jobs:")
	for _, name := range sched.JobNames() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func listSchedulerJobs(cmd *cobra.Command, args []string) error {
	sched, deps, err := buildScheduler()
	if err != nil {
		return err
	}
	defer deps.Close()

	fmt.Println("Registered jobs:")
	for _, name := range sched.JobNames() {
		fmt.Printf("  - %s\n", name)
	}
	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	sched, deps, err := buildScheduler()
	if err != nil {
		return err
	}
	defer deps.Close()

	if err := sched.RunJob(args[0]); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// RunJob is asynchronous; poll the history until the run is recorded.
	fmt.Printf("Job %s started\n", args[0])

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return nil
		case <-ticker.C:
			history, err := sched.History(args[0])
			if err != nil {
				return err
			}
			results := history.Latest(1)
			if len(results) == 0 {
				continue
			}
			printJobResult(results[0])
			return nil
		}
	}
}

func showSchedulerStatus(cmd *cobra.Command, args []string) error {
	sched, deps, err := buildScheduler()
	if err != nil {
		return err
	}
	defer deps.Close()

	for _, name := range sched.JobNames() {
		history, err := sched.History(name)
		if err != nil {
			return err
		}

		fmt.Printf("Job: %s\n", name)
		results := history.Latest(statusLast)
		if len(results) == 0 {
			fmt.Println("  (no runs recorded in this process)")
			continue
		}
		for _, r := range results {
			printJobResult(r)
		}
	}
	return nil
}

func printJobResult(r scheduler.JobResult) {
	outcome := "ok"
	if !r.Success {
		outcome = "FAILED: " + r.Error
	}
	fmt.Printf("  %s  %-10s %s\n",
		r.StartTime.Format(time.RFC3339),
		r.Duration.Round(time.Millisecond),
		outcome,
	)
}
