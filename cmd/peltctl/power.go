package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/srg/peltctl/internal/controller"
	"github.com/srg/peltctl/internal/notify"
	"github.com/srg/peltctl/internal/radio"
)

var powerCmd = &cobra.Command{
	Use:   "power on|off",
	Short: "Turn the Bluetooth radio on or off",
	Long: `Turn the local Bluetooth radio on or off.

This works on Linux through BlueZ. Other platforms reserve radio power for
the user and report that toggling is not supported.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runPower,
}

func parsePower(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid power state '%s': must be on or off", arg)
}

func runPower(cmd *cobra.Command, args []string) error {
	on, err := parsePower(args[0])
	if err != nil {
		return err
	}

	cfg, logger, err := configureLogger()
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	r, err := openRadio(radioOptions(cfg, logger))
	if err != nil {
		return fmt.Errorf("failed to open adapter: %w", err)
	}
	defer r.Close()

	ctx := cmd.Context()
	console := notify.NewConsole(cmd.OutOrStdout())

	if err := r.Authorize(ctx); err != nil {
		return err
	}
	if !r.CanToggle() {
		return radio.ErrToggleUnsupported
	}
	if err := r.SetPowered(ctx, on); err != nil {
		logger.WithError(err).Error("Failed to toggle radio")
		return fmt.Errorf("%s: %w", controller.MsgToggleFailed, err)
	}

	msg := controller.MsgTurnedOff
	if on {
		msg = controller.MsgTurnedOn
	}
	console.Notify(notify.New(notify.KindSuccess, msg))
	return nil
}
