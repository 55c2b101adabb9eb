package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/extrisk/extrisk/internal/scanner"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show recorded scan results, riskiest first",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		stack, err := buildStack(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer stack.Close()

		results := stack.ledger.List()
		if len(results) == 0 {
			fmt.Println("No scan results recorded. Run `extrisk scan` first.")
			return
		}

		high := color.New(color.FgRed, color.Bold)
		medium := color.New(color.FgYellow)
		low := color.New(color.FgGreen)
		dim := color.New(color.Faint)

		fmt.Printf("%d extensions assessed:\n\n", len(results))
		for _, r := range results {
			c := low
			switch {
			case r.Risk >= scanner.HighRiskThreshold:
				c = high
			case r.Risk >= 4:
				c = medium
			}
			c.Printf("  %5.1f  %-12s", r.Risk, r.RiskLabel)
			fmt.Printf("  %s ", r.DisplayName)
			dim.Printf("(%s)\n", r.ExtensionID)
		}
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}
