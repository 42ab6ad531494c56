package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/srg/peltctl/internal/controller"
	"github.com/srg/peltctl/internal/device"
	"github.com/srg/peltctl/internal/device/goble"
	"github.com/srg/peltctl/internal/notify"
	"github.com/srg/peltctl/internal/radio"
	"github.com/srg/peltctl/pkg/config"
	"github.com/srg/peltctl/scanner"
	"golang.org/x/term"
)

// deviceScanner is what the commands need from *scanner.Scanner.
type deviceScanner interface {
	controller.Scanner
	Close()
}

// Backend factories; tests replace them.
var (
	openRadio = radio.New

	openLink = func(logger *logrus.Logger) device.Connection {
		return goble.NewBLEConnection(logger)
	}

	openScanner = func(logger *logrus.Logger) deviceScanner {
		return scanner.NewScanner(logger)
	}

	isTerminal = func(f *os.File) bool {
		return term.IsTerminal(int(f.Fd()))
	}
)

func radioOptions(cfg *config.Config, logger *logrus.Logger) radio.Options {
	return radio.Options{
		Adapter:      cfg.Adapter,
		PollInterval: cfg.PollInterval,
		Logger:       logger,
	}
}

func controllerOptions(cfg *config.Config, logger *logrus.Logger, notifier notify.Notifier) controller.Options {
	return controller.Options{
		Target:               cfg.Target,
		TargetName:           cfg.TargetName,
		ScanTimeout:          cfg.ScanTimeout,
		ConnectionCheckDelay: cfg.ConnectionCheckDelay,
		ConnectTimeout:       cfg.ConnectTimeout,
		SettleDelay:          cfg.SettleDelay,
		PowerOffCheckDelay:   cfg.PowerOffCheckDelay,
		MTU:                  cfg.MTU,
		Logger:               logger,
		Notifier:             notifier,
	}
}

// interruptContext is cancelled on Ctrl+C or SIGTERM. The message, if any,
// is printed to out when that happens.
func interruptContext(parent context.Context, out io.Writer, message string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			if message != "" {
				fmt.Fprintf(out, "\n%s\n", message)
			}
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func validateFormat(format string) error {
	validFormats := []string{"table", "json"}
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format '%s': must be one of %v", format, validFormats)
}
