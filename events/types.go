package events

import (
	"time"

	"github.com/CK6170/CPVmini-go/models"
)

type Kind string

// Event kinds
const (
	KindReading Kind = "reading"
	KindControl Kind = "control"
	KindState   Kind = "state"
	KindError   Kind = "error"
)

// Event is what the connection worker tells its subscribers. Exactly one of the
// payload fields is set, matching Kind.
type Event struct {
	Kind    Kind                 `json:"kind"`
	Time    time.Time            `json:"time"`
	Reading *models.Reading      `json:"reading,omitempty"`
	Control *models.ControlEvent `json:"control,omitempty"`
	State   string               `json:"state,omitempty"`
	Error   string               `json:"error,omitempty"`
}

func ReadingEvent(r models.Reading) Event {
	return Event{Kind: KindReading, Time: r.Time, Reading: &r}
}

func ControlEventOf(kind models.ControlKind, text string) Event {
	return Event{Kind: KindControl, Time: time.Now(), Control: &models.ControlEvent{Kind: kind, Text: text}}
}

func StateEvent(s models.ConnectionState) Event {
	return Event{Kind: KindState, Time: time.Now(), State: s.String()}
}

func ErrorEvent(err error) Event {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Event{Kind: KindError, Time: time.Now(), Error: msg}
}
