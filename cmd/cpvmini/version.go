package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

const appName = "CPV mini"

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print the version",
		GroupID: gBasic,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s/%s)\n", appName, version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
