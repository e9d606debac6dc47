package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var defaultFileConfig = RawFileConfig{
	Language:          ptr("English"),
	COMPort:           ptr(NoPort),
	PressureUnit:      ptr("kPa"),
	PressurePrecision: ptr(2),
	VolumeUnit:        ptr("cm3"),
	VolumePrecision:   ptr(2),
}

func ptr[T any](v T) *T { return &v }

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
	name     string
	version  string
}

// RawFileConfig mirrors the JSON settings file. Key names are kept compatible with
// settings files written by earlier releases.
type RawFileConfig struct {
	Name              *string `json:"Name,omitempty"`
	Version           *string `json:"Version,omitempty"`
	Language          *string `json:"Language,omitempty"`
	COMPort           *string `json:"COM Port,omitempty"`
	PressureUnit      *string `json:"Unit Pressure,omitempty"`
	PressurePrecision *int    `json:"Precision Pressure,omitempty"`
	VolumeUnit        *string `json:"Unit Volume,omitempty"`
	VolumePrecision   *int    `json:"Precision Volume,omitempty"`
}

// NewFile loads configPath, fills in anything missing and writes the result back when
// it differs from what was on disk. Name and Version always describe the running binary.
func NewFile(configPath, name, version string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
		name:     name,
		version:  version,
	}
	if err := f.Load(); err != nil {
		return nil, err
	}
	if f.complete() {
		return f, nil
	}
	logrus.WithField("path", configPath).Info("settings incomplete, writing defaults")
	if err := f.Save(); err != nil {
		return nil, err
	}
	return f, nil
}

// complete fills missing keys and reports whether nothing had to change.
func (f *File) complete() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	changed := false
	fillString := func(dst **string, def *string) {
		if *dst == nil || strings.TrimSpace(**dst) == "" {
			*dst = ptr(*def)
			changed = true
		}
	}
	fillInt := func(dst **int, def *int) {
		if *dst == nil || **dst < 0 {
			*dst = ptr(*def)
			changed = true
		}
	}
	fillString(&f.c.Language, defaultFileConfig.Language)
	fillString(&f.c.COMPort, defaultFileConfig.COMPort)
	fillString(&f.c.PressureUnit, defaultFileConfig.PressureUnit)
	fillInt(&f.c.PressurePrecision, defaultFileConfig.PressurePrecision)
	fillString(&f.c.VolumeUnit, defaultFileConfig.VolumeUnit)
	fillInt(&f.c.VolumePrecision, defaultFileConfig.VolumePrecision)

	if f.c.Name == nil || *f.c.Name != f.name {
		f.c.Name = ptr(f.name)
		changed = true
	}
	if f.c.Version == nil || *f.c.Version != f.version {
		f.c.Version = ptr(f.version)
		changed = true
	}
	return !changed
}

func (f *File) str(field func(*RawFileConfig) *string, def *string) string {
	if f.c == nil {
		panic("config is nil")
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if v := field(f.c); v != nil {
		return *v
	}
	return *def
}

func (f *File) num(field func(*RawFileConfig) *int, def *int) int {
	if f.c == nil {
		panic("config is nil")
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if v := field(f.c); v != nil {
		return *v
	}
	return *def
}

func (f *File) Name() string {
	return f.name
}

func (f *File) Version() string {
	return f.version
}

func (f *File) Language() string {
	return f.str(func(c *RawFileConfig) *string { return c.Language }, defaultFileConfig.Language)
}

func (f *File) COMPort() string {
	return f.str(func(c *RawFileConfig) *string { return c.COMPort }, defaultFileConfig.COMPort)
}

func (f *File) PressureUnit() string {
	return f.str(func(c *RawFileConfig) *string { return c.PressureUnit }, defaultFileConfig.PressureUnit)
}

func (f *File) PressurePrecision() int {
	return f.num(func(c *RawFileConfig) *int { return c.PressurePrecision }, defaultFileConfig.PressurePrecision)
}

func (f *File) VolumeUnit() string {
	return f.str(func(c *RawFileConfig) *string { return c.VolumeUnit }, defaultFileConfig.VolumeUnit)
}

func (f *File) VolumePrecision() int {
	return f.num(func(c *RawFileConfig) *int { return c.VolumePrecision }, defaultFileConfig.VolumePrecision)
}

func (f *File) SetLanguage(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.Language = ptr(v)
}

func (f *File) SetCOMPort(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(v) == "" {
		v = NoPort
	}
	f.c.COMPort = ptr(v)
}

func (f *File) SetPressureUnit(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.PressureUnit = ptr(v)
}

func (f *File) SetPressurePrecision(v int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.PressurePrecision = ptr(max(v, 0))
}

func (f *File) SetVolumeUnit(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.VolumeUnit = ptr(v)
}

func (f *File) SetVolumePrecision(v int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.VolumePrecision = ptr(max(v, 0))
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing file means defaults; do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}
	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	if err := json.Unmarshal(b, &conf); err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "    ")
	if err := enc.Encode(f.c); err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"language":          f.Language(),
		"comPort":           f.COMPort(),
		"pressureUnit":      f.PressureUnit(),
		"pressurePrecision": f.PressurePrecision(),
		"volumeUnit":        f.VolumeUnit(),
		"volumePrecision":   f.VolumePrecision(),
	}
}
