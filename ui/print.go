package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/CK6170/CPVmini-go/models"
)

var (
	okColor   = color.New(color.Bold, color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.Bold, color.FgRed)
	dimColor  = color.New(color.Faint)
)

func Okf(w io.Writer, format string, a ...interface{}) {
	_, _ = okColor.Fprintf(w, format, a...)
}

func Warnf(w io.Writer, format string, a ...interface{}) {
	_, _ = warnColor.Fprintf(w, format, a...)
}

func Errorf(w io.Writer, format string, a ...interface{}) {
	_, _ = errColor.Fprintf(w, format, a...)
}

// StateString colours a connection state for status lines.
func StateString(s models.ConnectionState) string {
	switch s {
	case models.Connected:
		return color.GreenString(s.String())
	case models.Connecting:
		return color.YellowString(s.String())
	default:
		return color.RedString(s.String())
	}
}

// ControlString renders an end-of-travel or info notification.
func ControlString(c models.ControlEvent) string {
	switch c.Kind {
	case models.ReachedBeginning:
		return warnColor.Sprint("piston reached the beginning")
	case models.ReachedEnd:
		return warnColor.Sprint("piston reached the end")
	default:
		return dimColor.Sprint(c.Text)
	}
}

// ClearLine moves to the start of the line and erases it.
func ClearLine(w io.Writer) {
	fmt.Fprint(w, "\r\033[2K")
}
