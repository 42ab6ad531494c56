package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for BLE devices",
	Long: `Scan for Bluetooth Low Energy devices in the vicinity and list them
with name, address and signal strength. The configured target device is
marked in the TARGET column.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

var (
	scanDuration   time.Duration
	scanFormat     string
	scanTargetOnly bool
)

func init() {
	addScanFlags(scanCmd)
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVarP(&scanDuration, "duration", "d", 0, "Scan duration (default: scan_timeout from config, 10s)")
	cmd.Flags().StringVarP(&scanFormat, "format", "f", "", "Output format (table, json)")
	cmd.Flags().BoolVar(&scanTargetOnly, "target-only", false, "Only show the target device")
}

func runScan(cmd *cobra.Command, _ []string) error {
	if scanFormat != "" {
		if err := validateFormat(scanFormat); err != nil {
			return err
		}
	}

	cfg, logger, err := configureLogger()
	if err != nil {
		return err
	}
	// arguments are valid; runtime errors don't need usage
	cmd.SilenceUsage = true

	format := cfg.OutputFormat
	if scanFormat != "" {
		format = scanFormat
	}
	timeout := cfg.ScanTimeout
	if scanDuration > 0 {
		timeout = scanDuration
	}

	opts := scanner.DefaultScanOptions()
	opts.Duration = timeout
	if scanTargetOnly {
		opts.AllowList = []string{cfg.Target}
	}

	s := openScanner(logger)
	defer s.Close()

	out := cmd.OutOrStdout()
	ctx, cancel := interruptContext(cmd.Context(), out, "Ctrl+C pressed, cancelling scan...")
	defer cancel()

	progress := func(string) {}
	if isTerminal(os.Stdout) {
		p := NewCountdownProgressPrinter(out, "Scanning for BLE devices", scanner.PhaseScanning, timeout, scanner.PhaseProcessing)
		p.Start()
		defer p.Stop()
		progress = p.Callback()
	}

	devices, err := s.Scan(ctx, opts, progress)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("scan failed")
		return err
	}

	if format == "json" {
		return displayDevicesJSON(out, devices)
	}
	return displayDevicesTable(out, devices, cfg.Target)
}

func displayDevicesTable(out io.Writer, devices []device.DeviceInfo, target string) error {
	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices discovered")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tRSSI\tTARGET\tLAST SEEN")

	for _, dev := range devices {
		name := dev.DisplayName()
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		mark := ""
		if device.SameAddress(dev.Address(), target) {
			mark = "yes"
		}
		lastSeen := time.Since(dev.LastSeen()).Truncate(time.Second)

		fmt.Fprintf(w, "%s\t%s\t%d dBm\t%s\t%s ago\n", name, dev.Address(), dev.RSSI(), mark, lastSeen)
	}
	return w.Flush()
}

func displayDevicesJSON(out io.Writer, devices []device.DeviceInfo) error {
	if devices == nil {
		devices = []device.DeviceInfo{}
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(devices)
}
