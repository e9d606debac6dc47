package modern

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CK6170/CPVmini-go/events"
	"github.com/CK6170/CPVmini-go/models"
	serialpkg "github.com/CK6170/CPVmini-go/serial"
)

const readChunk = 1024

// run is the connection worker. It is the only goroutine touching s.port, and it
// closes the port before signalling s.done.
func (m *Manager) run(ctx context.Context, s *session) {
	log := logrus.WithField("port", s.name)
	defer func() {
		if err := s.port.Close(); err != nil {
			log.WithError(err).Warn("failed to close port")
		}
		m.mu.Lock()
		if m.sess == s {
			m.sess = nil
			m.setStateLocked(models.Disconnected)
		}
		m.mu.Unlock()
		close(s.done)
		log.Info("disconnected")
	}()

	buf := make([]byte, readChunk)
	var lines serialpkg.LineSplitter

	for {
		if ctx.Err() != nil {
			return
		}

		n, err := s.port.Read(buf)
		if n > 0 {
			for _, line := range lines.Feed(buf[:n]) {
				m.handleLine(log, s, line)
			}
		}
		// A read timeout surfaces as io.EOF with no data.
		if err != nil && !errors.Is(err, io.EOF) {
			m.portFailed(log, s, err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case cmd := <-s.writes:
			if _, err := s.port.Write(cmd); err != nil {
				m.portFailed(log, s, err)
				return
			}
			log.WithField("cmd", string(cmd)).Debug("sent")
		case <-time.After(m.opts.PollInterval):
		}
	}
}

func (m *Manager) portFailed(log *logrus.Entry, s *session, err error) {
	err = newPortError(ErrPortIO, s.name, err)
	log.WithError(err).Error("connection lost")
	m.hub.Publish(events.ErrorEvent(err))
}

func (m *Manager) handleLine(log *logrus.Entry, s *session, line string) {
	tok, err := serialpkg.DecodeToken(line)
	if err != nil {
		log.WithField("line", line).Debug("discarding unparseable line")
		return
	}
	switch tok.Kind {
	case serialpkg.TokenReachedBeginning:
		m.hub.Publish(events.ControlEventOf(models.ReachedBeginning, ""))
	case serialpkg.TokenReachedEnd:
		m.hub.Publish(events.ControlEventOf(models.ReachedEnd, ""))
	case serialpkg.TokenReading:
		v := tok.Value
		if s.fit != nil {
			v = s.fit.Eval(v)
		}
		m.hub.Publish(events.ReadingEvent(models.Reading{Value: v, Raw: tok.Value, Time: time.Now()}))
	}
}
