package modern

import (
	"errors"
	"fmt"
	"slices"

	"github.com/CK6170/CPVmini-go/config"
)

var ErrUnknownUnit = errors.New("unknown unit")

// Pressures are kept in kPa and volumes in cm3; ratios convert into the display unit.
var (
	pressureUnits = []string{"kPa", "Pa"}
	volumeUnits   = []string{"cm3", "dm3", "m3", "ml", "l"}

	unitRatio = map[string]ratio{
		"kPa": {1, 1},
		"Pa":  {1000, 1},
		"cm3": {1, 1},
		"dm3": {1, 1000},
		"m3":  {1, 1e6},
		"ml":  {1, 1},
		"l":   {1, 1000},
	}
)

type ratio struct{ mul, div float64 }

func (r ratio) to(v float64) float64   { return v * r.mul / r.div }
func (r ratio) from(v float64) float64 { return v * r.div / r.mul }

const (
	maxPressureKPa = 2000.0
	maxVolumeCm3   = 1e6
)

// Units formats values using the unit and precision choices held in cfg.
type Units struct {
	cfg config.Config
}

func NewUnits(cfg config.Config) *Units { return &Units{cfg: cfg} }

func unitOf(unit string) ratio {
	if r, ok := unitRatio[unit]; ok {
		return r
	}
	return ratio{1, 1}
}

func (u *Units) PressureUnit() string { return u.cfg.PressureUnit() }
func (u *Units) VolumeUnit() string   { return u.cfg.VolumeUnit() }

func (u *Units) Pressure(kPa float64) float64 { return unitOf(u.cfg.PressureUnit()).to(kPa) }
func (u *Units) Volume(cm3 float64) float64   { return unitOf(u.cfg.VolumeUnit()).to(cm3) }

func (u *Units) FormatPressure(kPa float64) string {
	return fmt.Sprintf("%.*f %s", u.cfg.PressurePrecision(), u.Pressure(kPa), u.cfg.PressureUnit())
}

func (u *Units) FormatVolume(cm3 float64) string {
	return fmt.Sprintf("%.*f %s", u.cfg.VolumePrecision(), u.Volume(cm3), u.cfg.VolumeUnit())
}

// PressureRange is the valid set point range in the display unit.
func (u *Units) PressureRange() (float64, float64) { return 0, u.Pressure(maxPressureKPa) }
func (u *Units) VolumeRange() (float64, float64)   { return 0, u.Volume(maxVolumeCm3) }

// PressureToKPa converts a value typed in the display unit back to kPa.
func (u *Units) PressureToKPa(v float64) float64 { return unitOf(u.cfg.PressureUnit()).from(v) }

func PressureOptions() []string { return slices.Clone(pressureUnits) }
func VolumeOptions() []string   { return slices.Clone(volumeUnits) }

func (u *Units) SetPressureUnit(unit string) error {
	if !slices.Contains(pressureUnits, unit) {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
	u.cfg.SetPressureUnit(unit)
	return nil
}

func (u *Units) SetVolumeUnit(unit string) error {
	if !slices.Contains(volumeUnits, unit) {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
	u.cfg.SetVolumeUnit(unit)
	return nil
}
