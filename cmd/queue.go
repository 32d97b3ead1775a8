package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/headless/internal/agent/service"
	"github.com/zjrosen/headless/internal/log"
)

var flagWatch bool

var queueCmd = &cobra.Command{
	Use:   "queue [FILE]",
	Short: "Process a queue file of prompts with retry and cost tracking",
	Long: `Processes a queue file, one prompt per line. Blank lines and lines
starting with '#' are skipped. Failed tasks retry with exponential
backoff, every task's raw events are archived, and the file is renamed
after a clean run so it cannot run twice. An interrupted file stays in
place and resumes on the next run.

With --watch, watches the queue directory and processes *.queue files
as they appear. SIGINT or SIGTERM stops after the current task.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQueue,
}

func init() {
	queueCmd.Flags().BoolVar(&flagWatch, "watch", false,
		"watch the queue directory for new files")
	rootCmd.AddCommand(queueCmd)
}

func runQueue(cmd *cobra.Command, args []string) error {
	if !flagWatch && len(args) == 0 {
		return fmt.Errorf("pass a queue file or use --watch")
	}

	c, err := newAgentClient()
	if err != nil {
		return err
	}
	svc := service.New(c, spawnConfig(), service.Options{
		MaxAttempts: cfg.Queue.MaxAttempts,
		BackoffUnit: time.Duration(cfg.Queue.BackoffSeconds) * time.Second,
		BudgetUSD:   cfg.Queue.BudgetUSD,
		ArchiveDir:  cfg.Queue.ArchiveDir,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// First signal requests a stop between tasks; a second one aborts.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(cmd.ErrOrStderr(), "\nshutdown requested, finishing current task...")
		log.Info(log.CatQueue, "shutdown requested")
		svc.Shutdown()
		<-sigCh
		cancel()
	}()

	printSummary := func(summary service.QueueSummary) {
		for _, r := range summary.Results {
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s  attempts=%d  cost=$%.4f\n",
				r.Status, r.ID, r.Attempts, r.CostUSD)
			if r.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  error: %s\n", r.Error)
			}
		}
		if summary.Interrupted {
			fmt.Fprintf(cmd.OutOrStdout(), "interrupted: %d task(s) completed\n", len(summary.Results))
		}
		if summary.ArchivedPath != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "archived %s\n", summary.ArchivedPath)
		}
	}

	if flagWatch {
		err := svc.Watch(ctx, cfg.Queue.WatchDir, printSummary)
		if err != nil && err != context.Canceled {
			return err
		}
	} else {
		summary, err := svc.ProcessQueue(ctx, args[0])
		if err != nil {
			return err
		}
		printSummary(summary)
	}

	stats := svc.Stats()
	fmt.Fprintf(cmd.ErrOrStderr(), "total=%d ok=%d failed=%d retries=%d cost=$%.4f\n",
		stats.Total, stats.Succeeded, stats.Failed, stats.Retries, stats.TotalCostUSD)
	if stats.Failed > 0 {
		return fmt.Errorf("%d task(s) failed", stats.Failed)
	}
	return nil
}
