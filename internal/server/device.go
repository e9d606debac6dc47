package server

import (
	"github.com/CK6170/CPVmini-go/matrix"
	"github.com/CK6170/CPVmini-go/models"
	"github.com/CK6170/CPVmini-go/modern"
)

// Device is the controller connection the HTTP surface drives.
type Device interface {
	Connect(port string) error
	Disconnect() error
	State() models.ConnectionState
	Port() string
	Fitted() (matrix.Quadratic, bool)

	SetTargetPressure(v float64) error
	FillTank() error
	EmptyTank() error
}

var _ Device = (*modern.Manager)(nil)
