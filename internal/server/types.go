package server

import (
	"time"

	"github.com/CK6170/CPVmini-go/matrix"
	"github.com/CK6170/CPVmini-go/models"
	serialpkg "github.com/CK6170/CPVmini-go/serial"
)

type APIError struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	OK        bool      `json:"ok"`
	Timestamp time.Time `json:"timestamp"`
}

type VersionResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type PortsResponse struct {
	Ports    []serialpkg.PortInfo `json:"ports"`
	Selected string               `json:"selected"`
}

type StateResponse struct {
	State  models.ConnectionState `json:"state"`
	Port   string                 `json:"port,omitempty"`
	Fitted *matrix.Quadratic      `json:"fitted,omitempty"`
}

type ConnectRequest struct {
	Port string `json:"port"`
}

type TargetRequest struct {
	Value *float64 `json:"value"`
}

type CreateCurveRequest struct {
	Name string `json:"name"`
}

type PutCurveRequest struct {
	Pairs []models.Pair `json:"pairs"`
}

type CurvesResponse struct {
	Curves []string `json:"curves"`
}

type Settings struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	Language          string `json:"language"`
	COMPort           string `json:"comPort"`
	PressureUnit      string `json:"pressureUnit"`
	PressurePrecision int    `json:"pressurePrecision"`
	VolumeUnit        string `json:"volumeUnit"`
	VolumePrecision   int    `json:"volumePrecision"`
}

// SettingsUpdate only changes the fields that are present.
type SettingsUpdate struct {
	Language          *string `json:"language"`
	PressureUnit      *string `json:"pressureUnit"`
	PressurePrecision *int    `json:"pressurePrecision"`
	VolumeUnit        *string `json:"volumeUnit"`
	VolumePrecision   *int    `json:"volumePrecision"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
