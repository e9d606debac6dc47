package modern

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	userFolderName = ".CPVmini"
	logFileName    = "log.txt"
	settingsName   = "settings.json"
	curvesFolder   = "calibration"

	// MaxLogSize is the size above which log.txt is discarded at startup.
	MaxLogSize = 10 << 20
)

// UserFolder returns base, or ~/.CPVmini when base is empty, creating it if needed.
func UserFolder(base string) (string, error) {
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", pkgerrors.Wrap(err, "failed to locate home directory")
		}
		base = filepath.Join(home, userFolderName)
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to create user folder %s", base)
	}
	return base, nil
}

func SettingsPath(folder string) string { return filepath.Join(folder, settingsName) }
func CurvesDir(folder string) string    { return filepath.Join(folder, curvesFolder) }

// PrepareLogFile opens folder/log.txt for appending. An oversized log is removed first.
func PrepareLogFile(folder string) (*os.File, error) {
	path := filepath.Join(folder, logFileName)
	if st, err := os.Stat(path); err == nil && st.Size() > MaxLogSize {
		if err := os.Remove(path); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to remove oversized log %s", path)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open log %s", path)
	}
	return f, nil
}

// Banner logs the startup report.
func Banner(name, version, folder string) {
	logrus.WithFields(logrus.Fields{
		"platform": runtime.GOOS + "/" + runtime.GOARCH,
		"time":     time.Now().Format(time.ANSIC),
		"version":  version,
		"folder":   folder,
	}).Infof("%s starting", name)
}
