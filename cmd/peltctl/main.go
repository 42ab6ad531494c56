package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

var rootCmd = &cobra.Command{
	Use:   "peltctl",
	Short: "LKZ_PELT Bluetooth controller",
	Long: `Controller for the LKZ_PELT Bluetooth Low Energy device:

- Check the Bluetooth adapter state and permissions
- Scan for nearby devices and spot the LKZ_PELT target
- Connect to the target and list its GATT services
- Turn the Bluetooth radio on or off where the platform allows it
- Drive the interactive control screen (ui)

Only the configured target device can be connected.`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// main() prints errors itself
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(uiCmd)

	addGlobalFlags(rootCmd)

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
	rootCmd.SetVersionTemplate(fmt.Sprintf("peltctl {{.Version}} (commit %s, built %s)\n", commit, date))
}
