package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/extrisk/extrisk/internal/storage"
	"github.com/extrisk/extrisk/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scan state and recent run history",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		stack, err := buildStack(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer stack.Close()

		bold := color.New(color.Bold)
		dim := color.New(color.Faint)

		bold.Println("extrisk status")
		fmt.Println()

		key, err := stack.keys.Get()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		switch {
		case key == "":
			fmt.Println("  API key:    not set")
		case stack.keys.OrgMode():
			fmt.Println("  API key:    set (org policy)")
		default:
			fmt.Println("  API key:    set")
		}

		last, err := stack.store.GetState(ctx, storage.KeyLastScan, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  Last scan:  %s\n", formatLastScan(last))
		fmt.Printf("  Results:    %d extensions assessed\n", stack.ledger.Len())

		runs, err := stack.store.RecentRuns(ctx, 5)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			return
		}

		fmt.Println()
		bold.Println("Recent runs:")
		for _, run := range runs {
			kind := "scheduled"
			if run.Manual {
				kind = "manual"
			}
			fmt.Printf("  %s  %-12s %-9s scanned=%d skipped=%d errors=%d",
				run.StartedAt.Local().Format("2006-01-02 15:04"),
				run.Status, kind, run.Scanned, run.Skipped, run.Errors)
			if run.FoundHigh {
				color.New(color.FgRed).Printf("  high-risk")
			}
			fmt.Println()
			if run.Status != types.RunStatusCompleted && run.FinishedAt == nil {
				dim.Println("          (run did not finish cleanly)")
			}
		}
	},
}

// formatLastScan renders the persisted unix-seconds scan stamp.
func formatLastScan(stamp string) string {
	if stamp == "" {
		return "never"
	}
	ts, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return "unknown"
	}
	t := time.Unix(ts, 0).Local()
	return fmt.Sprintf("%s (%s ago)", t.Format("2006-01-02 15:04"), time.Since(t).Round(time.Minute))
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
