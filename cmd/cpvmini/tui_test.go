package main

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CK6170/CPVmini-go/config"
	"github.com/CK6170/CPVmini-go/events"
	"github.com/CK6170/CPVmini-go/models"
	"github.com/CK6170/CPVmini-go/modern"
	serialpkg "github.com/CK6170/CPVmini-go/serial"
)

type fakePanelDevice struct {
	mu      sync.Mutex
	state   models.ConnectionState
	port    string
	targets []float64
	fills   int
	empties int
	connErr error
}

func (d *fakePanelDevice) Connect(port string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connErr != nil {
		return d.connErr
	}
	d.state, d.port = models.Connected, port
	return nil
}

func (d *fakePanelDevice) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = models.Disconnected
	return nil
}

func (d *fakePanelDevice) State() models.ConnectionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *fakePanelDevice) Port() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.port
}

func (d *fakePanelDevice) SetTargetPressure(v float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.targets = append(d.targets, v)
	return nil
}

func (d *fakePanelDevice) FillTank() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fills++
	return nil
}

func (d *fakePanelDevice) EmptyTank() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != models.Connected {
		return modern.ErrNotConnected
	}
	d.empties++
	return nil
}

func newTestPanel(t *testing.T) (panel, *fakePanelDevice, *config.File) {
	t.Helper()
	conf, err := config.NewFile(filepath.Join(t.TempDir(), "settings.json"), "test", "0")
	if err != nil {
		t.Fatal(err)
	}
	dev := &fakePanelDevice{}
	ports := []serialpkg.PortInfo{{Device: "/dev/ttyUSB0", Description: "CPV mini (/dev/ttyUSB0)"}}
	m := newPanel(dev, conf, make(chan events.Event), func() ([]serialpkg.PortInfo, error) { return ports, nil })
	return m, dev, conf
}

func update(t *testing.T, m panel, msg tea.Msg) (panel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	p, ok := next.(panel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return p, cmd
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func TestPanelEvents(t *testing.T) {
	m, _, conf := newTestPanel(t)
	units := modern.NewUnits(conf)

	m, cmd := update(t, m, eventMsg{e: events.StateEvent(models.Connected)})
	if m.state != models.Connected {
		t.Fatalf("state = %v", m.state)
	}
	if cmd == nil {
		t.Fatal("expected the panel to keep waiting for events")
	}

	m, _ = update(t, m, eventMsg{e: events.ReadingEvent(models.Reading{Value: 156.25, Raw: 12.5})})
	if want := units.FormatPressure(156.25); m.pressure != want {
		t.Fatalf("pressure = %q, want %q", m.pressure, want)
	}
	if !strings.Contains(m.View(), m.pressure) {
		t.Fatal("view does not show the pressure")
	}

	m, _ = update(t, m, eventMsg{e: events.ControlEventOf(models.ReachedEnd, "")})
	if m.infoLine != "Piston reached the end" {
		t.Fatalf("info = %q", m.infoLine)
	}

	m, _ = update(t, m, eventMsg{e: events.ErrorEvent(errors.New("port gone"))})
	if m.lastErr == nil || m.lastErr.Error() != "port gone" {
		t.Fatalf("err = %v", m.lastErr)
	}

	m, _ = update(t, m, eventMsg{e: events.StateEvent(models.Disconnected)})
	if m.state != models.Disconnected || m.pressure != "---" {
		t.Fatalf("state = %v pressure = %q", m.state, m.pressure)
	}
}

func TestPanelConnect(t *testing.T) {
	m, dev, conf := newTestPanel(t)

	m, _ = update(t, m, portsMsg{ports: []serialpkg.PortInfo{{Device: "/dev/ttyUSB0", Description: "CPV mini (/dev/ttyUSB0)"}}})
	if m.portInput.Value() != "/dev/ttyUSB0" {
		t.Fatalf("port input = %q", m.portInput.Value())
	}

	_, cmd := update(t, m, key(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a connect command")
	}
	msg := cmd()
	if _, ok := msg.(infoMsg); !ok {
		t.Fatalf("got %#v", msg)
	}
	if dev.Port() != "/dev/ttyUSB0" {
		t.Fatalf("connected to %q", dev.Port())
	}
	if conf.COMPort() != "/dev/ttyUSB0" {
		t.Fatalf("saved port %q", conf.COMPort())
	}
}

func TestPanelConnectError(t *testing.T) {
	m, dev, conf := newTestPanel(t)
	dev.connErr = modern.ErrPortOpen
	m.portInput.SetValue("/dev/ttyS9")

	_, cmd := update(t, m, key(tea.KeyEnter))
	msg, ok := cmd().(errMsg)
	if !ok || !errors.Is(msg.err, modern.ErrPortOpen) {
		t.Fatalf("got %#v", msg)
	}
	if conf.COMPort() != config.NoPort {
		t.Fatalf("port saved after failure: %q", conf.COMPort())
	}
}

func TestPanelTarget(t *testing.T) {
	tests := []struct {
		name  string
		input string
		sent  bool
	}{
		{name: "valid", input: "150", sent: true},
		{name: "fraction", input: "12.5", sent: true},
		{name: "not a number", input: "abc"},
		{name: "negative", input: "-1"},
		{name: "too high", input: "1e9"},
		{name: "nan", input: "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, dev, _ := newTestPanel(t)
			m, _ = update(t, m, key(tea.KeyTab))
			if m.focus != focusTarget {
				t.Fatal("tab did not move focus")
			}
			m.targetInput.SetValue(tt.input)

			_, cmd := update(t, m, key(tea.KeyEnter))
			msg := cmd()
			if tt.sent {
				if msg != nil {
					t.Fatalf("got %#v", msg)
				}
				if len(dev.targets) != 1 {
					t.Fatalf("targets = %v", dev.targets)
				}
				return
			}
			if _, ok := msg.(errMsg); !ok {
				t.Fatalf("got %#v", msg)
			}
			if len(dev.targets) != 0 {
				t.Fatalf("targets = %v", dev.targets)
			}
		})
	}
}

func TestPanelTankKeys(t *testing.T) {
	m, dev, _ := newTestPanel(t)

	_, cmd := update(t, m, key(tea.KeyCtrlF))
	if msg := cmd(); msg != nil {
		t.Fatalf("fill: %#v", msg)
	}
	if dev.fills != 1 {
		t.Fatalf("fills = %d", dev.fills)
	}

	_, cmd = update(t, m, key(tea.KeyCtrlX))
	msg, ok := cmd().(errMsg)
	if !ok || !errors.Is(msg.err, modern.ErrNotConnected) {
		t.Fatalf("empty while disconnected: %#v", msg)
	}
}
