package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/pkg/config"
)

var connectCmd = &cobra.Command{
	Use:   "connect [address]",
	Short: "Connect to the target device and list its services",
	Long: `Connect to the target device, discover its GATT services and
characteristics, and stay connected until Ctrl+C or until the link drops.

An address may be given, but it must be the configured target: every
other device is refused.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConnect,
}

var (
	connectFormat string
	connectOnce   bool
)

func init() {
	connectCmd.Flags().StringVarP(&connectFormat, "format", "f", "", "Output format (table, json)")
	connectCmd.Flags().BoolVar(&connectOnce, "once", false, "Disconnect right after listing the services")
}

func runConnect(cmd *cobra.Command, args []string) error {
	if connectFormat != "" {
		if err := validateFormat(connectFormat); err != nil {
			return err
		}
	}

	cfg, logger, err := configureLogger()
	if err != nil {
		return err
	}

	address := device.NormalizeAddress(cfg.Target)
	if len(args) == 1 {
		if err := checkTarget(cfg, args[0]); err != nil {
			return err
		}
	}
	cmd.SilenceUsage = true

	format := cfg.OutputFormat
	if connectFormat != "" {
		format = connectFormat
	}

	out := cmd.OutOrStdout()
	ctx, cancel := interruptContext(cmd.Context(), out, "Ctrl+C pressed, disconnecting...")
	defer cancel()

	lost := make(chan error, 1)
	link := openLink(logger)
	opts := &device.ConnectOptions{
		ConnectTimeout: cfg.ConnectTimeout,
		MTU:            cfg.MTU,
		OnDisconnected: func(err error) {
			lost <- err
		},
	}

	var progress *ProgressPrinter
	if isTerminal(os.Stdout) {
		progress = NewProgressPrinter(out, "Connecting to "+cfg.TargetName, "Connecting")
		progress.Start()
	}
	err = link.Connect(ctx, address, opts)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		logger.WithError(err).WithField("address", address).Error("Connect failed")
		return fmt.Errorf("failed to connect to %s: %w", cfg.TargetName, err)
	}
	defer func() {
		if err := link.Disconnect(); err != nil && !errors.Is(err, device.ErrNotConnected) {
			logger.WithError(err).Warn("Disconnect failed")
		}
	}()

	logger.WithFields(logrus.Fields{
		"address":  address,
		"mtu":      link.MTU(),
		"services": len(link.Services()),
	}).Info("Connected")

	if format == "json" {
		err = displayServicesJSON(out, address, link)
	} else {
		err = displayServicesTable(out, cfg.TargetName, address, link)
	}
	if err != nil || connectOnce {
		return err
	}

	fmt.Fprintln(out, "Connected. Press Ctrl+C to disconnect.")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-lost:
		return fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
}

// checkTarget refuses any address other than the configured target.
func checkTarget(cfg *config.Config, address string) error {
	if err := device.ValidateAddress(address); err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	if !device.SameAddress(address, cfg.Target) {
		return fmt.Errorf("%w: %s is not %s", device.ErrAccessDenied, device.NormalizeAddress(address), cfg.TargetName)
	}
	return nil
}

type connectionReport struct {
	Address  string           `json:"address"`
	MTU      int              `json:"mtu"`
	Services []device.Service `json:"services"`
}

func displayServicesJSON(out io.Writer, address string, link device.Connection) error {
	report := connectionReport{
		Address:  device.NormalizeAddress(address),
		MTU:      link.MTU(),
		Services: link.Services(),
	}
	if report.Services == nil {
		report.Services = []device.Service{}
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func displayServicesTable(out io.Writer, name, address string, link device.Connection) error {
	services := link.Services()
	fmt.Fprintf(out, "%s (%s), MTU %d, %d services\n\n", name, device.NormalizeAddress(address), link.MTU(), len(services))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tCHARACTERISTIC\tPROPERTIES")
	for _, svc := range services {
		if len(svc.Characteristics) == 0 {
			fmt.Fprintf(w, "%s\t\t\n", svc.UUID)
			continue
		}
		for i, ch := range svc.Characteristics {
			serviceCol := svc.UUID
			if i > 0 {
				serviceCol = ""
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", serviceCol, ch.UUID, strings.Join(ch.Properties, ","))
		}
	}
	return w.Flush()
}

