package server

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/CK6170/CPVmini-go/modern"
)

const maxPrecision = 6

func (s *Server) settings() Settings {
	return Settings{
		Name:              s.conf.Name(),
		Version:           s.conf.Version(),
		Language:          s.conf.Language(),
		COMPort:           s.conf.COMPort(),
		PressureUnit:      s.conf.PressureUnit(),
		PressurePrecision: s.conf.PressurePrecision(),
		VolumeUnit:        s.conf.VolumeUnit(),
		VolumePrecision:   s.conf.VolumePrecision(),
	}
}

func (s *Server) handleGetSettings(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.settings())
}

func (s *Server) handlePutSettings(c *gin.Context) {
	var req SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	for _, p := range []*int{req.PressurePrecision, req.VolumePrecision} {
		if p != nil && (*p < 0 || *p > maxPrecision) {
			s.abort(c, fmt.Errorf("%w: precision must be between 0 and %d", errBadRequest, maxPrecision))
			return
		}
	}
	if req.PressureUnit != nil && !slices.Contains(modern.PressureOptions(), *req.PressureUnit) {
		s.abort(c, fmt.Errorf("%w: pressure %q", modern.ErrUnknownUnit, *req.PressureUnit))
		return
	}
	if req.VolumeUnit != nil && !slices.Contains(modern.VolumeOptions(), *req.VolumeUnit) {
		s.abort(c, fmt.Errorf("%w: volume %q", modern.ErrUnknownUnit, *req.VolumeUnit))
		return
	}

	if req.PressureUnit != nil {
		_ = s.units.SetPressureUnit(*req.PressureUnit)
	}
	if req.VolumeUnit != nil {
		_ = s.units.SetVolumeUnit(*req.VolumeUnit)
	}
	if req.Language != nil {
		s.conf.SetLanguage(*req.Language)
	}
	if req.PressurePrecision != nil {
		s.conf.SetPressurePrecision(*req.PressurePrecision)
	}
	if req.VolumePrecision != nil {
		s.conf.SetVolumePrecision(*req.VolumePrecision)
	}

	if err := s.conf.Save(); err != nil {
		s.abort(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{
		"pressureUnit": s.conf.PressureUnit(),
		"volumeUnit":   s.conf.VolumeUnit(),
		"language":     s.conf.Language(),
	}).Info("settings updated")
	c.IndentedJSON(http.StatusOK, s.settings())
}
