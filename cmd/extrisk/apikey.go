package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/extrisk/extrisk/internal/keys"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage the risk service API key",
}

var apikeySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the API key (prompted, not echoed)",
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := buildKeyManager()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if manager.OrgMode() {
			fmt.Fprintln(os.Stderr, "The API key is managed by org policy on this machine.")
			os.Exit(1)
		}

		rl, err := readline.NewEx(&readline.Config{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer rl.Close()

		secret, err := rl.ReadPassword("API key: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := manager.Set(strings.TrimSpace(string(secret))); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("API key stored.")
	},
}

var apikeyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show whether a key is set (masked)",
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := buildKeyManager()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		key, err := manager.Get()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if key == "" {
			fmt.Println("No API key set.")
			return
		}
		source := ""
		if manager.OrgMode() {
			source = " (org policy)"
		}
		fmt.Printf("API key: %s%s\n", maskKey(key), source)
	},
}

var apikeyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := buildKeyManager()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if manager.OrgMode() {
			fmt.Fprintln(os.Stderr, "The API key is managed by org policy on this machine.")
			os.Exit(1)
		}
		if err := manager.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("API key cleared.")
	},
}

// buildKeyManager wires just the credential layer; the apikey commands
// never need storage or the scanner.
func buildKeyManager() (*keys.APIKeyManager, error) {
	org, err := keys.LoadOrg("")
	if err != nil {
		return nil, err
	}
	store, err := keys.NewFileStore("")
	if err != nil {
		return nil, err
	}
	return keys.NewAPIKeyManager(store, org), nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func init() {
	apikeyCmd.AddCommand(apikeySetCmd)
	apikeyCmd.AddCommand(apikeyShowCmd)
	apikeyCmd.AddCommand(apikeyClearCmd)
	rootCmd.AddCommand(apikeyCmd)
}
