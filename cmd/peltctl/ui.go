package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/peltctl/internal/controller"
	"github.com/srg/peltctl/internal/notify"
	"github.com/srg/peltctl/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive control screen",
	Long: `Open the interactive control screen: adapter and connection status, the
CONNECT button with its device list, the 25%, 50%, 75%, 100%, POLE UP,
POLE DOWN and OFF buttons, toast notifications and a log pane.

Bluetooth is initialized and a scan starts as soon as the adapter is on.`,
	Args: cobra.NoArgs,
	RunE: runUI,
}

var uiLogBuffer int

func init() {
	uiCmd.Flags().IntVar(&uiLogBuffer, "log-buffer", tui.DefaultLogTailSize, "Bytes of log output kept for the log pane")
}

func runUI(cmd *cobra.Command, _ []string) error {
	if !isTerminal(os.Stdout) {
		return ErrNotInteractive
	}

	cfg, logger, err := configureLogger()
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	// the screen owns the terminal; logs go to the log pane, at info unless set
	logs := tui.NewLogTail(uiLogBuffer)
	logger.SetOutput(logs)
	if cfg.LogLevel == "" || cfg.LogLevel == "panic" {
		logger.SetLevel(logrus.InfoLevel)
	}

	toasts := notify.NewQueue(notify.DefaultQueueSize)

	r, err := openRadio(radioOptions(cfg, logger))
	if err != nil {
		return err
	}
	defer r.Close()

	s := openScanner(logger)
	defer s.Close()

	link := openLink(logger)
	ctrl := controller.New(r, link, s, controllerOptions(cfg, logger, toasts))
	defer ctrl.Close()

	ctx, cancel := interruptContext(cmd.Context(), cmd.ErrOrStderr(), "")
	defer cancel()

	// a refused permission is shown on screen, not fatal
	if err := ctrl.Start(ctx); err != nil {
		logger.WithError(err).Error("Bluetooth initialization failed")
	}

	defer func() {
		if link.IsConnected() {
			_ = link.Disconnect()
		}
	}()
	return tui.Run(ctx, ctrl, toasts, logs)
}
