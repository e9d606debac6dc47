package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/CK6170/CPVmini-go/models"
)

var (
	logLevel  = "info"
	homeDir   = ""
	logToFile = false
	curveName = models.DefaultCurveName
)

var (
	gBasic        = "Basic:"
	gCalibration  = "Calibration:"
	commandGroups = []string{
		gBasic,
		gCalibration,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cpvmini",
		Short: "cpvmini drives a CPVmini pressure/volume controller over a serial port",
		Long: `cpvmini drives a CPVmini pressure/volume controller over a serial port.

It reads pressure from the controller, applies the active calibration curve,
and sends set points and tank commands back to it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.PersistentFlags().StringVar(&homeDir, "home", "", "user folder for settings, curves and logs (default ~/.CPVmini)")
	cmd.PersistentFlags().BoolVar(&logToFile, "log-file", false, "write logs to log.txt in the user folder")
	cmd.PersistentFlags().StringVar(&curveName, "curve", models.DefaultCurveName, "name of the active calibration curve")

	cmd.AddCommand(
		NewVersionCommand(),
		NewPortsCommand(),
		NewServeCommand(),
		NewMonitorCommand(),
		NewTUICommand(),
		NewCurveCommand(),
	)

	return cmd
}
