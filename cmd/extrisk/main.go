package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/extrisk/extrisk/internal/config"
	"github.com/extrisk/extrisk/internal/extensions"
	"github.com/extrisk/extrisk/internal/keys"
	"github.com/extrisk/extrisk/internal/ledger"
	"github.com/extrisk/extrisk/internal/notify"
	"github.com/extrisk/extrisk/internal/riskclient"
	"github.com/extrisk/extrisk/internal/scanner"
	"github.com/extrisk/extrisk/internal/storage"
	"github.com/extrisk/extrisk/internal/types"
)

var (
	cfgFile    string
	dbOverride string
)

var rootCmd = &cobra.Command{
	Use:   "extrisk",
	Short: "Risk scanner for installed editor extensions",
	Long: `extrisk inventories the editor extensions installed on this machine,
asks the remote risk classification service about each one, and keeps an
ordered, persisted record of the findings. Extensions that cross the
high-risk threshold trigger a one-time alert.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		if manager, err := buildKeyManager(); err == nil {
			if key, err := manager.Get(); err == nil && key == "" {
				fmt.Fprintln(os.Stderr, "\nNo API key set. Run `extrisk apikey set` to enable scanning.")
			}
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.extrisk/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "database", "", "database path or postgres:// DSN (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scanStack bundles the collaborators shared by the scan-facing commands.
type scanStack struct {
	settings *config.Settings
	store    storage.Storage
	ledger   *ledger.Ledger
	keys     *keys.APIKeyManager
	scanner  *scanner.Scanner
}

func (s *scanStack) Close() {
	if err := s.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to close storage: %v\n", err)
	}
}

// buildStack wires settings, storage, credentials and the scanner. The
// database is chosen in order of precedence: --database flag, org policy
// (central reporting), config file.
func buildStack(ctx context.Context) (*scanStack, error) {
	settings, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	org, err := keys.LoadOrg("")
	if err != nil {
		return nil, err
	}

	database := settings.Database
	if org != nil && org.Database != "" {
		database = org.Database
	}
	if dbOverride != "" {
		database = dbOverride
	}

	store, err := storage.Open(ctx, database)
	if err != nil {
		return nil, err
	}

	led, err := ledger.New(ctx, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	secrets, err := keys.NewFileStore("")
	if err != nil {
		store.Close()
		return nil, err
	}
	keyManager := keys.NewAPIKeyManager(secrets, org)

	provider, err := extensions.NewDirProvider(settings.ExtensionsDir)
	if err != nil {
		store.Close()
		return nil, err
	}

	var orgCtx *types.OrgContext
	if keyManager.OrgMode() {
		orgCtx = org.Context()
	}

	scan, err := scanner.New(scanner.Config{
		Store:               store,
		Client:              riskclient.New(settings.APIURL),
		Ledger:              led,
		Notifier:            notify.NewConsole(),
		Provider:            provider,
		Credentials:         keyManager,
		Org:                 orgCtx,
		ScanOnlyNewVersions: settings.ScanOnlyNewVersions,
		ScanEveryXHours:     settings.ScanEveryXHours,
		OnProgress: func(done, total int) {
			fmt.Printf("\r  scanning %d/%d", done, total)
			if done == total {
				fmt.Println()
			}
		},
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &scanStack{
		settings: settings,
		store:    store,
		ledger:   led,
		keys:     keyManager,
		scanner:  scan,
	}, nil
}
