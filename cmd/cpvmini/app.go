package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/CK6170/CPVmini-go/config"
	"github.com/CK6170/CPVmini-go/events"
	"github.com/CK6170/CPVmini-go/modern"
	"github.com/CK6170/CPVmini-go/store"
)

// workspace is the user folder with its settings and calibration curves.
type workspace struct {
	folder  string
	conf    *config.File
	curves  *store.CurveStore
	logFile *os.File
}

func openWorkspace(forceLogFile bool) (*workspace, error) {
	folder, err := modern.UserFolder(homeDir)
	if err != nil {
		return nil, err
	}
	ws := &workspace{folder: folder}

	if logToFile || forceLogFile {
		f, err := modern.PrepareLogFile(folder)
		if err != nil {
			return nil, err
		}
		ws.logFile = f
		logrus.SetOutput(f)
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}

	ws.conf, err = config.NewFile(modern.SettingsPath(folder), appName, version)
	if err != nil {
		ws.close()
		return nil, err
	}
	ws.curves, err = store.NewCurveStore(modern.CurvesDir(folder))
	if err != nil {
		ws.close()
		return nil, err
	}
	names, err := ws.curves.ListCurveNames()
	if err != nil {
		ws.close()
		return nil, err
	}
	if len(names) == 0 {
		if err := ws.curves.EnsureCurve(curveName); err != nil {
			ws.close()
			return nil, err
		}
		logrus.WithField("curve", curveName).Info("created default calibration curve")
	}
	return ws, nil
}

func (ws *workspace) close() {
	if ws.logFile != nil {
		logrus.SetOutput(os.Stderr)
		_ = ws.logFile.Close()
	}
}

// app adds a live connection manager to the workspace.
type app struct {
	*workspace
	hub *events.Hub
	mgr *modern.Manager
}

func newApp(forceLogFile bool) (*app, error) {
	ws, err := openWorkspace(forceLogFile)
	if err != nil {
		return nil, err
	}
	modern.Banner(appName, version, ws.folder)
	logrus.WithFields(ws.conf.LogrusFields()).Debug("settings loaded")

	hub := events.NewHub()
	return &app{
		workspace: ws,
		hub:       hub,
		mgr:       modern.NewManager(ws.curves, hub, modern.Options{CurveName: curveName}),
	}, nil
}

// connect opens port, or the saved port when empty, and remembers it on success.
func (a *app) connect(port string) error {
	if port == "" {
		port = a.conf.COMPort()
	}
	if err := a.mgr.Connect(port); err != nil {
		return err
	}
	a.conf.SetCOMPort(port)
	if err := a.conf.Save(); err != nil {
		logrus.WithError(err).Warn("failed to save settings")
	}
	return nil
}

func (a *app) Close() {
	_ = a.mgr.Disconnect()
	a.hub.Close()
	if err := a.conf.Save(); err != nil {
		logrus.WithError(err).Warn("failed to save settings")
	}
	a.close()
}
