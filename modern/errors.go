package modern

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrAlreadyConnected = errors.New("already connected")
	ErrNoPort           = errors.New("no serial port selected")
	ErrPortOpen         = errors.New("failed to open serial port")
	ErrPortIO           = errors.New("serial port I/O error")
	ErrNotConnected     = errors.New("not connected")
	ErrWriteQueueFull   = errors.New("write queue full")
	ErrConnectAborted   = errors.New("connect aborted by disconnect")
)

// PortError ties a serial failure to its port. It matches Kind (ErrPortOpen or
// ErrPortIO) with errors.Is and unwraps to the underlying cause.
type PortError struct {
	Kind error
	Port string
	Err  error
}

func newPortError(kind error, port string, err error) *PortError {
	return &PortError{Kind: kind, Port: port, Err: pkgerrors.WithStack(err)}
}

func (e *PortError) Error() string {
	return pkgerrors.WithMessage(e.Err, e.Kind.Error()+" "+e.Port).Error()
}

func (e *PortError) Is(target error) bool { return target == e.Kind }

func (e *PortError) Unwrap() error { return e.Err }
