package config

// Config is the persisted application settings.
type Config interface {
	Name() string
	Version() string
	Language() string
	COMPort() string
	PressureUnit() string
	PressurePrecision() int
	VolumeUnit() string
	VolumePrecision() int

	SetLanguage(string)
	SetCOMPort(string)
	SetPressureUnit(string)
	SetPressurePrecision(int)
	SetVolumeUnit(string)
	SetVolumePrecision(int)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}

// NoPort is the COM Port value meaning nothing has been chosen yet.
const NoPort = "None"
