package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/CK6170/CPVmini-go/events"
	"github.com/CK6170/CPVmini-go/models"
	"github.com/CK6170/CPVmini-go/modern"
	"github.com/CK6170/CPVmini-go/ui"
)

var (
	monitorPort   = ""
	monitorTarget = -1.0
)

func NewMonitorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "monitor",
		Short:   "Connect and print live pressure readings",
		GroupID: gBasic,
		Long: `Connect to the controller and print live pressure readings.

Keys: y fills the tank, x empties it, q or Esc quits.
Without --port the port saved in settings is used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			// subscribe first so the connected state is not missed
			sub := a.hub.Subscribe(events.DefaultBuffer)
			defer sub.Unsubscribe()

			if err := a.connect(monitorPort); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ui.Okf(out, "Connected to %s\n", a.mgr.Port())
			fmt.Fprintln(out, "y: fill  x: empty  q: quit")

			if monitorTarget >= 0 {
				if err := a.mgr.SetTargetPressure(monitorTarget); err != nil {
					return err
				}
			}

			keys := ui.StartKeyEvents()
			defer ui.StopKeyEvents()
			ui.DrainKeys()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt)
			defer signal.Stop(sig)

			return monitorLoop(out, modern.NewUnits(a.conf), a.mgr, sub.C(), keys, sig)
		},
	}

	cmd.Flags().StringVarP(&monitorPort, "port", "p", "", "serial port to open")
	cmd.Flags().Float64Var(&monitorTarget, "target", -1, "target pressure to send after connecting")

	return cmd
}

type tankControl interface {
	FillTank() error
	EmptyTank() error
}

// monitorLoop prints events until the user quits or the connection ends.
func monitorLoop(out io.Writer, units *modern.Units, dev tankControl, evs <-chan events.Event, keys <-chan rune, sig <-chan os.Signal) error {
	for {
		select {
		case <-sig:
			fmt.Fprintln(out)
			return nil
		case k, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			switch k {
			case 'y', 'Y':
				if err := dev.FillTank(); err != nil {
					logrus.WithError(err).Warn("fill failed")
				}
			case 'x', 'X':
				if err := dev.EmptyTank(); err != nil {
					logrus.WithError(err).Warn("empty failed")
				}
			case 'q', 'Q', ui.KeyEsc:
				fmt.Fprintln(out)
				return nil
			}
		case e, ok := <-evs:
			if !ok {
				return nil
			}
			switch e.Kind {
			case events.KindReading:
				ui.ClearLine(out)
				fmt.Fprintf(out, "%s", units.FormatPressure(e.Reading.Value))
			case events.KindControl:
				ui.ClearLine(out)
				fmt.Fprintln(out, ui.ControlString(*e.Control))
			case events.KindError:
				ui.ClearLine(out)
				ui.Errorf(out, "%s\n", e.Error)
			case events.KindState:
				if e.State == models.Disconnected.String() {
					ui.ClearLine(out)
					ui.Warnf(out, "Disconnected\n")
					return nil
				}
			}
		}
	}
}
