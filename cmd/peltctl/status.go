package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/peltctl/internal/device"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the Bluetooth adapter state",
	Long: `Show the local Bluetooth adapter state, whether this process may use it,
whether the radio can be toggled from here, and the configured target.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var statusFormat string

func init() {
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "", "Output format (table, json)")
}

// adapterStatus is the status report.
type adapterStatus struct {
	Adapter    string              `json:"adapter"`
	State      device.AdapterState `json:"state"`
	Authorized bool                `json:"authorized"`
	Permission string              `json:"permission,omitempty"`
	CanToggle  bool                `json:"can_toggle"`
	Target     string              `json:"target"`
	TargetName string              `json:"target_name"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if statusFormat != "" {
		if err := validateFormat(statusFormat); err != nil {
			return err
		}
	}

	cfg, logger, err := configureLogger()
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	format := cfg.OutputFormat
	if statusFormat != "" {
		format = statusFormat
	}

	r, err := openRadio(radioOptions(cfg, logger))
	if err != nil {
		return fmt.Errorf("failed to open adapter: %w", err)
	}
	defer r.Close()

	ctx := cmd.Context()
	st := adapterStatus{
		Adapter:    cfg.Adapter,
		Authorized: true,
		CanToggle:  r.CanToggle(),
		Target:     device.NormalizeAddress(cfg.Target),
		TargetName: cfg.TargetName,
	}
	if err := r.Authorize(ctx); err != nil {
		st.Authorized = false
		st.Permission = err.Error()
		st.State = device.StateUnauthorized
	} else {
		state, err := r.State(ctx)
		if err != nil {
			logger.WithError(err).Warn("Failed to read adapter state")
		}
		st.State = state
	}

	logger.WithFields(logrus.Fields{
		"adapter": st.Adapter,
		"state":   st.State.String(),
	}).Debug("Adapter status")

	out := cmd.OutOrStdout()
	if format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(st)
	}
	return displayStatusTable(out, st)
}

func displayStatusTable(out io.Writer, st adapterStatus) error {
	permission := "granted"
	if !st.Authorized {
		permission = "denied: " + st.Permission
	}
	toggle := "no"
	if st.CanToggle {
		toggle = "yes"
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Adapter:\t%s\n", st.Adapter)
	fmt.Fprintf(w, "State:\t%s\n", st.State)
	fmt.Fprintf(w, "Permission:\t%s\n", permission)
	fmt.Fprintf(w, "Radio toggle:\t%s\n", toggle)
	fmt.Fprintf(w, "Target:\t%s (%s)\n", st.TargetName, st.Target)
	return w.Flush()
}
