package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan installed extensions now",
	Long: `Run one scan of the installed extensions.

By default this is a manual scan: every extension is re-queried regardless
of interval gating and the scan_only_new_versions setting. Pass --scheduled
to apply both, the way the watch command's timer does.`,
	Run: func(cmd *cobra.Command, args []string) {
		scheduled, _ := cmd.Flags().GetBool("scheduled")

		// Ctrl+C cancels cooperatively: the in-flight extension finishes,
		// no further ones start.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stack, err := buildStack(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer stack.Close()

		key, err := stack.keys.Get()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if key == "" {
			fmt.Fprintln(os.Stderr, "No API key set. Run `extrisk apikey set` first.")
			os.Exit(1)
		}

		outcome, err := stack.scanner.RunScan(ctx, !scheduled)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: scan failed: %v\n", err)
			os.Exit(1)
		}
		if outcome.FoundHigh {
			os.Exit(2)
		}
	},
}

func init() {
	scanCmd.Flags().Bool("scheduled", false, "apply interval gating and the unchanged-version skip policy")
	rootCmd.AddCommand(scanCmd)
}
