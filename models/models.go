package models

import (
	"fmt"
	"time"
)

// DefaultCurveName is the calibration curve used when nothing else is configured.
const DefaultCurveName = "Calibration"

// Pair is one calibration sample: what the device reports and what it should read.
type Pair struct {
	Raw        float64 `json:"raw"`
	Calibrated float64 `json:"calibrated"`
}

type Curve struct {
	Name  string `json:"name"`
	Pairs []Pair `json:"pairs"`
}

// Reading is a single pressure value produced by the connection worker.
type Reading struct {
	Value float64   `json:"value"`
	Raw   float64   `json:"raw"`
	Time  time.Time `json:"time"`
}

type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ConnectionState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "disconnected":
		*s = Disconnected
	case "connecting":
		*s = Connecting
	case "connected":
		*s = Connected
	default:
		return fmt.Errorf("unknown connection state %q", string(b))
	}
	return nil
}

type ControlKind string

const (
	ReachedBeginning ControlKind = "reached_beginning"
	ReachedEnd       ControlKind = "reached_end"
	InfoMessage      ControlKind = "info"
)

// ControlEvent carries an end-of-travel notification or a human readable note.
type ControlEvent struct {
	Kind ControlKind `json:"kind"`
	Text string      `json:"text,omitempty"`
}
