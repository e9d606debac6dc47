package modern

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CK6170/CPVmini-go/config"
	"github.com/CK6170/CPVmini-go/events"
	"github.com/CK6170/CPVmini-go/matrix"
	"github.com/CK6170/CPVmini-go/models"
	serialpkg "github.com/CK6170/CPVmini-go/serial"
	"github.com/CK6170/CPVmini-go/store"
)

// CurveLoader supplies the calibration pairs for the active curve.
type CurveLoader interface {
	LoadCurve(name string) ([]models.Pair, error)
}

type Options struct {
	CurveName    string
	BaudRate     int
	PollInterval time.Duration
	ReadTimeout  time.Duration
	WriteQueue   int
	Open         serialpkg.Opener
}

func (o Options) withDefaults() Options {
	if o.CurveName == "" {
		o.CurveName = models.DefaultCurveName
	}
	if o.BaudRate <= 0 {
		o.BaudRate = serialpkg.BaudRate
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 200 * time.Millisecond
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 100 * time.Millisecond
	}
	if o.WriteQueue <= 0 {
		o.WriteQueue = 16
	}
	if o.Open == nil {
		o.Open = serialpkg.Open
	}
	return o
}

// session is one open connection. The worker goroutine owns port.
type session struct {
	port   serialpkg.Port
	name   string
	fit    *matrix.Quadratic
	cancel context.CancelFunc
	done   chan struct{}
	writes chan []byte
}

// Manager drives the link to one CPVmini controller.
type Manager struct {
	opts   Options
	curves CurveLoader
	hub    *events.Hub

	fitCurve func([]models.Pair) (*matrix.Quadratic, error)

	mu    sync.Mutex
	state models.ConnectionState
	sess  *session
	port  string
	// connecting is closed once an in-flight Connect has settled; aborted asks
	// it to close the port instead of going live.
	connecting chan struct{}
	aborted    bool
}

func NewManager(curves CurveLoader, hub *events.Hub, opts Options) *Manager {
	return &Manager{
		opts:     opts.withDefaults(),
		curves:   curves,
		hub:      hub,
		fitCurve: matrix.FitQuadratic,
	}
}

func (m *Manager) State() models.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Port is the name of the port last connected to.
func (m *Manager) Port() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port
}

// Fitted returns the model applied to readings, if any.
func (m *Manager) Fitted() (matrix.Quadratic, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil || m.sess.fit == nil {
		return matrix.Quadratic{}, false
	}
	return *m.sess.fit, true
}

// setStateLocked must be called with m.mu held so state events keep their order.
func (m *Manager) setStateLocked(s models.ConnectionState) {
	m.state = s
	m.hub.Publish(events.StateEvent(s))
}

// Connect opens portName and starts the worker. It returns once the worker is running.
func (m *Manager) Connect(portName string) error {
	portName = strings.TrimSpace(portName)

	m.mu.Lock()
	if m.state != models.Disconnected {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	if portName == "" || portName == config.NoPort {
		m.mu.Unlock()
		return ErrNoPort
	}
	m.setStateLocked(models.Connecting)
	settled := make(chan struct{})
	m.connecting = settled
	m.aborted = false
	m.mu.Unlock()
	defer close(settled)

	log := logrus.WithFields(logrus.Fields{"port": portName, "curve": m.opts.CurveName})

	fit, err := m.loadFit(log)
	if err != nil {
		m.connectFailed(err)
		return err
	}

	port, err := m.opts.Open(portName, m.opts.BaudRate, m.opts.ReadTimeout)
	if err != nil {
		err = newPortError(ErrPortOpen, portName, err)
		log.WithError(err).Error("connect failed")
		m.connectFailed(err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		port:   port,
		name:   portName,
		fit:    fit,
		cancel: cancel,
		done:   make(chan struct{}),
		writes: make(chan []byte, m.opts.WriteQueue),
	}

	m.mu.Lock()
	m.connecting = nil
	if m.aborted {
		m.aborted = false
		cancel()
		if err := port.Close(); err != nil {
			log.WithError(err).Warn("failed to close port")
		}
		m.setStateLocked(models.Disconnected)
		m.mu.Unlock()
		log.Info("connect aborted")
		return ErrConnectAborted
	}
	m.sess = s
	m.port = portName
	m.setStateLocked(models.Connected)
	go m.run(ctx, s)
	m.mu.Unlock()

	log.WithField("fitted", fit != nil).Info("connected")
	return nil
}

func (m *Manager) connectFailed(err error) {
	m.mu.Lock()
	m.connecting = nil
	m.aborted = false
	m.setStateLocked(models.Disconnected)
	m.mu.Unlock()
	m.hub.Publish(events.ErrorEvent(err))
}

// loadFit returns nil, nil when readings should pass through unchanged.
func (m *Manager) loadFit(log *logrus.Entry) (*matrix.Quadratic, error) {
	if m.curves == nil {
		return nil, nil
	}
	pairs, err := m.curves.LoadCurve(m.opts.CurveName)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("calibration curve not found, readings are not calibrated")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(pairs) <= matrix.Degree {
		log.WithField("pairs", len(pairs)).Info("not enough calibration pairs, readings are not calibrated")
		return nil, nil
	}
	fit, err := m.fitCurve(pairs)
	if errors.Is(err, matrix.ErrDegenerate) {
		log.WithError(err).Warn("calibration curve ignored")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !fit.Exact() {
		log.WithField("rank", fit.Rank).Warn("calibration curve does not determine a quadratic, using the least-squares fit")
	}
	log.WithFields(logrus.Fields{"a": fit.A, "b": fit.B, "c": fit.C}).Debug("calibration fitted")
	return fit, nil
}

// Disconnect stops the worker and waits until the port is closed. A Connect still in
// progress is aborted and waited for. It is safe to call at any time and from
// several goroutines.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	if c := m.connecting; c != nil {
		m.aborted = true
		m.mu.Unlock()
		<-c
		m.mu.Lock()
	}
	s := m.sess
	m.mu.Unlock()
	if s == nil {
		return nil
	}
	s.cancel()
	<-s.done
	return nil
}

func (m *Manager) SetTargetPressure(v float64) error {
	return m.enqueue(serialpkg.TargetPressureCommand(v), fmt.Sprintf("target pressure %d", int(v)))
}

func (m *Manager) FillTank() error {
	return m.enqueue(serialpkg.FillCommand, "filling tank")
}

func (m *Manager) EmptyTank() error {
	return m.enqueue(serialpkg.EmptyCommand, "emptying tank")
}

func (m *Manager) enqueue(cmd []byte, info string) error {
	m.mu.Lock()
	s := m.sess
	if s == nil || m.state != models.Connected {
		m.mu.Unlock()
		m.hub.Publish(events.ControlEventOf(models.InfoMessage, "no connection"))
		return ErrNotConnected
	}
	select {
	case s.writes <- cmd:
	default:
		m.mu.Unlock()
		return ErrWriteQueueFull
	}
	m.mu.Unlock()

	m.hub.Publish(events.ControlEventOf(models.InfoMessage, info))
	return nil
}
