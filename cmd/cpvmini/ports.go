package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	serialpkg "github.com/CK6170/CPVmini-go/serial"
)

func NewPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ports",
		Short:   "List serial ports",
		GroupID: gBasic,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(false)
			if err != nil {
				return err
			}
			defer ws.close()

			ports, err := serialpkg.ListPorts()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(out, "No serial ports found.")
				return nil
			}
			selected := ws.conf.COMPort()
			for _, p := range ports {
				mark := " "
				if p.Device == selected {
					mark = color.GreenString("*")
				}
				fmt.Fprintf(out, "%s %s  %s\n", mark, color.New(color.Bold).Sprint(p.Device), p.Description)
			}
			return nil
		},
	}
}
