package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CK6170/CPVmini-go/matrix"
	"github.com/CK6170/CPVmini-go/models"
)

func NewCurveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "curve",
		Short:   "Manage calibration curves",
		GroupID: gCalibration,
	}

	cmd.AddCommand(
		newCurveListCommand(),
		newCurveShowCommand(),
		newCurveCreateCommand(),
		newCurveDeleteCommand(),
		newCurveImportCommand(),
		newCurveExportCommand(),
		newCurveSetCommand(),
		newCurveFitCommand(),
	)
	return cmd
}

// withWorkspace runs fn with an open workspace and closes it afterwards.
func withWorkspace(fn func(*cobra.Command, *workspace, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(false)
		if err != nil {
			return err
		}
		defer ws.close()
		return fn(cmd, ws, args)
	}
}

func newCurveListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List calibration curves",
		Args:  cobra.NoArgs,
		RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, _ []string) error {
			names, err := ws.curves.ListCurveNames()
			if err != nil {
				return err
			}
			for _, n := range names {
				mark := " "
				if n == curveName {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, n)
			}
			return nil
		}),
	}
}

func newCurveShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print the pairs of a curve",
		Args:  cobra.ExactArgs(1),
		RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
			return ws.curves.WriteTo(args[0], cmd.OutOrStdout())
		}),
	}
}

func newCurveCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty curve",
		Args:  cobra.ExactArgs(1),
		RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
			if err := ws.curves.CreateCurve(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", args[0])
			return nil
		}),
	}
}

func newCurveDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a curve",
		Args:  cobra.ExactArgs(1),
		RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
			if err := ws.curves.DeleteCurve(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		}),
	}
}

func newCurveImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <name> <file>",
		Short: "Replace a curve with pairs read from a text file",
		Long: `Replace a curve with pairs read from a text file.

Each line holds a raw and a calibrated value separated by ';', ',' or a tab.
Blank lines, '#' comments and a single header line are skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
			pairs, err := ws.curves.ImportFromPath(args[1])
			if err != nil {
				return err
			}
			if err := ws.curves.SaveCurve(args[0], pairs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d pairs into %s\n", len(pairs), args[0])
			return nil
		}),
	}
}

func newCurveExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <name> <file>",
		Short: "Write a curve to a text file",
		Args:  cobra.ExactArgs(2),
		RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
			if err := ws.curves.ExportToPath(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", args[0], args[1])
			return nil
		}),
	}
}

func newCurveSetCommand() *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:     "set <name>",
		Short:   "Replace the pairs of a curve",
		Example: "  cpvmini curve set Calibration --pair 0:0 --pair 512:1000 --pair 1023:2000",
		Args:    cobra.ExactArgs(1),
		RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
			parsed, err := parsePairFlags(pairs)
			if err != nil {
				return err
			}
			if err := ws.curves.SaveCurve(args[0], parsed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d pairs to %s\n", len(parsed), args[0])
			return nil
		}),
	}
	cmd.Flags().StringArrayVar(&pairs, "pair", nil, "raw:calibrated pair, repeatable")
	return cmd
}

func newCurveFitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fit <name>",
		Short: "Print the quadratic fitted to a curve",
		Args:  cobra.ExactArgs(1),
		RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
			pairs, err := ws.curves.LoadCurve(args[0])
			if err != nil {
				return err
			}
			q, err := matrix.FitQuadratic(pairs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "y = %g*x^2 + %g*x + %g\n", q.A, q.B, q.C)
			return nil
		}),
	}
}

func parsePairFlags(in []string) ([]models.Pair, error) {
	out := make([]models.Pair, 0, len(in))
	for _, s := range in {
		raw, cal, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("invalid pair %q, want raw:calibrated", s)
		}
		r, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid raw value in %q: %v", s, err)
		}
		c, err := strconv.ParseFloat(strings.TrimSpace(cal), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid calibrated value in %q: %v", s, err)
		}
		if !finite(r) || !finite(c) {
			return nil, fmt.Errorf("invalid pair %q, values must be finite", s)
		}
		out = append(out, models.Pair{Raw: r, Calibrated: c})
	}
	return out, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
