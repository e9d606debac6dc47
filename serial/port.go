package serial

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/tarm/serial"
	"go.bug.st/serial/enumerator"
)

// BaudRate is the fixed line speed of the CPVmini controller.
const BaudRate = 9600

// Port is an open serial line. The connection worker is its only user.
type Port interface {
	io.ReadWriteCloser
}

// Opener opens a named port at the given speed. Reads return after at most readTimeout.
type Opener func(name string, baud int, readTimeout time.Duration) (Port, error)

var _ Opener = Open

// Open opens name as 8N1 with a bounded read timeout.
func Open(name string, baud int, readTimeout time.Duration) (Port, error) {
	config := &serial.Config{
		Name:        name,
		Baud:        baud,
		Parity:      serial.ParityNone,
		Size:        8,
		StopBits:    serial.Stop1,
		ReadTimeout: readTimeout,
	}
	sp, err := serial.OpenPort(config)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open %s", name)
	}
	return sp, nil
}

// PortInfo describes one serial device present on the host.
type PortInfo struct {
	Device       string `json:"device"`
	Description  string `json:"description"`
	IsUSB        bool   `json:"isUsb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
}

var getDetailedPortsList = enumerator.GetDetailedPortsList

// ListPorts returns the ports present right now, sorted by device name.
func ListPorts() ([]PortInfo, error) {
	details, err := getDetailedPortsList()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to enumerate serial ports")
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		ports = append(ports, PortInfo{
			Device:       d.Name,
			Description:  describe(d),
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
		})
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Device < ports[j].Device })
	return ports, nil
}

func describe(d *enumerator.PortDetails) string {
	if p := strings.TrimSpace(d.Product); p != "" {
		return fmt.Sprintf("%s (%s)", p, d.Name)
	}
	if d.IsUSB {
		return fmt.Sprintf("USB Serial %s:%s (%s)", d.VID, d.PID, d.Name)
	}
	return d.Name
}

// Describe returns the description of device, or "" when it is not listed.
func Describe(ports []PortInfo, device string) string {
	for _, p := range ports {
		if p.Device == device {
			return p.Description
		}
	}
	return ""
}

// DeviceFor maps a description back to its device name, or "" when nothing matches.
func DeviceFor(ports []PortInfo, description string) string {
	for _, p := range ports {
		if p.Description == description {
			return p.Device
		}
	}
	return ""
}
