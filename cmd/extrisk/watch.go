package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run scheduled scans until interrupted",
	Long: `Stay resident and run a scheduled scan on a timer.

Each tick applies interval gating and the unchanged-version skip policy,
so a tick that fires before scan_every_x_hours has elapsed is a no-op.
With scan_on_startup enabled, one scheduled scan runs immediately.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stack, err := buildStack(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer stack.Close()

		// Guards against overlapping runs: a tick that fires while a
		// scan is still going is dropped, not queued.
		running := semaphore.NewWeighted(1)

		runOnce := func() {
			if !running.TryAcquire(1) {
				return
			}
			defer running.Release(1)
			if _, err := stack.scanner.RunScan(ctx, false); err != nil && ctx.Err() == nil {
				fmt.Fprintf(os.Stderr, "warning: scheduled scan failed: %v\n", err)
			}
		}

		if stack.settings.ScanOnStartup {
			runOnce()
		}

		interval := watchTickInterval(stack.settings.ScanEveryXHours)
		fmt.Printf("Watching for scans every %s (gate: %d hours). Press Ctrl+C to stop.\n",
			interval, stack.settings.ScanEveryXHours)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				fmt.Println("\nShutting down.")
				return
			case <-ticker.C:
				runOnce()
			}
		}
	},
}

// watchTickInterval picks how often the timer fires. Ticks are cheap
// because interval gating rejects early ones, so we fire well inside the
// configured window rather than exactly on it; that way a scan missed by
// a sleep or clock jump is picked up promptly.
func watchTickInterval(hours int) time.Duration {
	if hours <= 0 {
		return time.Hour
	}
	d := time.Duration(hours) * time.Hour / 4
	if d < time.Minute {
		d = time.Minute
	}
	if d > time.Hour {
		d = time.Hour
	}
	return d
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
