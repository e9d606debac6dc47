package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/CK6170/CPVmini-go/config"
	"github.com/CK6170/CPVmini-go/events"
	"github.com/CK6170/CPVmini-go/models"
	"github.com/CK6170/CPVmini-go/modern"
	serialpkg "github.com/CK6170/CPVmini-go/serial"
)

func NewTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:     "tui",
		Short:   "Open the terminal control panel",
		GroupID: gBasic,
		RunE: func(_ *cobra.Command, _ []string) error {
			// the panel owns the terminal, so logs go to the user folder
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			sub := a.hub.Subscribe(events.DefaultBuffer)
			defer sub.Unsubscribe()

			m := newPanel(a.mgr, a.conf, sub.C(), serialpkg.ListPorts)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

// panelDevice is what the panel drives; *modern.Manager in production.
type panelDevice interface {
	Connect(port string) error
	Disconnect() error
	State() models.ConnectionState
	Port() string
	SetTargetPressure(v float64) error
	FillTank() error
	EmptyTank() error
}

type focus int

const (
	focusPort focus = iota
	focusTarget
)

type panel struct {
	dev       panelDevice
	conf      config.Config
	units     *modern.Units
	evs       <-chan events.Event
	listPorts func() ([]serialpkg.PortInfo, error)

	portInput   textinput.Model
	targetInput textinput.Model
	focus       focus

	state    models.ConnectionState
	pressure string
	ports    []serialpkg.PortInfo
	infoLine string
	lastErr  error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	pressureStyle = lipgloss.NewStyle().Bold(true).Padding(0, 2).Border(lipgloss.RoundedBorder())
)

func newPanel(dev panelDevice, conf config.Config, evs <-chan events.Event, listPorts func() ([]serialpkg.PortInfo, error)) panel {
	pi := textinput.New()
	pi.Placeholder = "Serial port"
	pi.CharLimit = 256
	pi.Width = 30
	pi.Focus()
	if p := conf.COMPort(); p != config.NoPort {
		pi.SetValue(p)
		pi.CursorEnd()
	}

	ti := textinput.New()
	ti.Placeholder = "Target pressure"
	ti.CharLimit = 16
	ti.Width = 16

	return panel{
		dev:         dev,
		conf:        conf,
		units:       modern.NewUnits(conf),
		evs:         evs,
		listPorts:   listPorts,
		portInput:   pi,
		targetInput: ti,
		state:       dev.State(),
		pressure:    "---",
	}
}

type errMsg struct{ err error }
type infoMsg struct{ s string }
type eventMsg struct{ e events.Event }
type eventsClosedMsg struct{}
type portsMsg struct{ ports []serialpkg.PortInfo }

func waitForEvent(evs <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-evs
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{e: e}
	}
}

func (m panel) refreshPorts() tea.Cmd {
	list := m.listPorts
	return func() tea.Msg {
		ports, err := list()
		if err != nil {
			return errMsg{err: err}
		}
		return portsMsg{ports: ports}
	}
}

func (m panel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.evs), m.refreshPorts())
}

func (m panel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			_ = m.dev.Disconnect()
			return m, tea.Quit
		case "tab", "shift+tab":
			m.toggleFocus()
			return m, nil
		case "enter":
			if m.focus == focusPort {
				return m, m.connectCmd()
			}
			return m, m.targetCmd()
		case "ctrl+f":
			return m, deviceCmd(m.dev.FillTank)
		case "ctrl+x":
			return m, deviceCmd(m.dev.EmptyTank)
		case "ctrl+d":
			dev := m.dev
			return m, func() tea.Msg {
				if err := dev.Disconnect(); err != nil {
					return errMsg{err: err}
				}
				return nil
			}
		case "ctrl+r":
			return m, m.refreshPorts()
		}

	case eventMsg:
		m.applyEvent(msg.e)
		return m, waitForEvent(m.evs)

	case eventsClosedMsg:
		return m, nil

	case portsMsg:
		m.ports = msg.ports
		if strings.TrimSpace(m.portInput.Value()) == "" && len(msg.ports) > 0 {
			m.portInput.SetValue(msg.ports[0].Device)
			m.portInput.CursorEnd()
		}
		return m, nil

	case errMsg:
		m.lastErr = msg.err
		return m, nil

	case infoMsg:
		m.infoLine = msg.s
		m.lastErr = nil
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusPort {
		m.portInput, cmd = m.portInput.Update(msg)
	} else {
		m.targetInput, cmd = m.targetInput.Update(msg)
	}
	return m, cmd
}

func (m *panel) toggleFocus() {
	if m.focus == focusPort {
		m.focus = focusTarget
		m.portInput.Blur()
		m.targetInput.Focus()
		return
	}
	m.focus = focusPort
	m.targetInput.Blur()
	m.portInput.Focus()
}

func (m *panel) applyEvent(e events.Event) {
	switch e.Kind {
	case events.KindReading:
		m.pressure = m.units.FormatPressure(e.Reading.Value)
	case events.KindControl:
		m.infoLine = controlText(*e.Control)
	case events.KindState:
		var s models.ConnectionState
		if err := s.UnmarshalText([]byte(e.State)); err == nil {
			m.state = s
		}
		if m.state == models.Disconnected {
			m.pressure = "---"
		}
	case events.KindError:
		m.lastErr = errors.New(e.Error)
	}
}

func controlText(c models.ControlEvent) string {
	switch c.Kind {
	case models.ReachedBeginning:
		return "Piston reached the beginning"
	case models.ReachedEnd:
		return "Piston reached the end"
	default:
		return c.Text
	}
}

func (m panel) connectCmd() tea.Cmd {
	port := strings.TrimSpace(m.portInput.Value())
	// accept a listed description as well as a device name
	if d := serialpkg.DeviceFor(m.ports, port); d != "" {
		port = d
	}
	dev, conf := m.dev, m.conf
	return func() tea.Msg {
		if err := dev.Connect(port); err != nil {
			return errMsg{err: err}
		}
		conf.SetCOMPort(port)
		if err := conf.Save(); err != nil {
			logrus.WithError(err).Warn("failed to save settings")
		}
		return infoMsg{s: "Connected on " + port}
	}
}

func (m panel) targetCmd() tea.Cmd {
	v, err := strconv.ParseFloat(strings.TrimSpace(m.targetInput.Value()), 64)
	lo, hi := m.units.PressureRange()
	if err != nil || math.IsNaN(v) || v < lo || v > hi {
		err := fmt.Errorf("target must be a number between %g and %g %s", lo, hi, m.units.PressureUnit())
		return func() tea.Msg { return errMsg{err: err} }
	}
	return deviceCmd(func() error { return m.dev.SetTargetPressure(v) })
}

func deviceCmd(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m panel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(appName) + "\n")
	b.WriteString(helpStyle.Render("Tab switch field  Enter connect/send  Ctrl+F fill  Ctrl+X empty  Ctrl+D disconnect  Ctrl+R ports  Ctrl+C quit") + "\n\n")

	switch m.state {
	case models.Connected:
		b.WriteString(okStyle.Render(fmt.Sprintf("Connected on %s", m.dev.Port())) + "\n")
	case models.Connecting:
		b.WriteString(warnStyle.Render("Connecting...") + "\n")
	default:
		b.WriteString(errStyle.Render("Disconnected") + "\n")
	}
	b.WriteString(pressureStyle.Render(m.pressure) + "\n\n")

	b.WriteString("Port:\n")
	b.WriteString(m.portInput.View() + "\n")
	for _, p := range m.ports {
		b.WriteString(helpStyle.Render("  "+p.Description) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Target (%s):\n", m.units.PressureUnit()))
	b.WriteString(m.targetInput.View() + "\n\n")

	if m.infoLine != "" {
		b.WriteString(warnStyle.Render(m.infoLine) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString(errStyle.Render("Error: "+m.lastErr.Error()) + "\n")
	}
	return b.String()
}
