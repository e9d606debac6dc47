package server

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (s *Server) stateResponse() StateResponse {
	resp := StateResponse{State: s.dev.State(), Port: s.dev.Port()}
	if q, ok := s.dev.Fitted(); ok {
		resp.Fitted = &q
	}
	return resp
}

func (s *Server) handleState(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.stateResponse())
}

func (s *Server) handleConnect(c *gin.Context) {
	var req ConnectRequest
	// An empty body means "use the saved port".
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.abort(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	port := strings.TrimSpace(req.Port)
	if port == "" {
		port = s.conf.COMPort()
	}

	if err := s.dev.Connect(port); err != nil {
		s.abort(c, err)
		return
	}

	s.conf.SetCOMPort(port)
	if err := s.conf.Save(); err != nil {
		logrus.WithError(err).Error("failed to save settings")
	}
	c.IndentedJSON(http.StatusOK, s.stateResponse())
}

func (s *Server) handleDisconnect(c *gin.Context) {
	if err := s.dev.Disconnect(); err != nil {
		s.abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, s.stateResponse())
}

func (s *Server) handleTarget(c *gin.Context) {
	var req TargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if req.Value == nil || math.IsNaN(*req.Value) || math.IsInf(*req.Value, 0) {
		s.abort(c, fmt.Errorf("%w: value must be a finite number", errBadRequest))
		return
	}
	lo, hi := s.units.PressureRange()
	if *req.Value < lo || *req.Value > hi {
		s.abort(c, fmt.Errorf("%w: value must be between %g and %g", errBadRequest, lo, hi))
		return
	}
	if err := s.dev.SetTargetPressure(*req.Value); err != nil {
		s.abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusAccepted, OKResponse{OK: true})
}

func (s *Server) handleFill(c *gin.Context) {
	if err := s.dev.FillTank(); err != nil {
		s.abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusAccepted, OKResponse{OK: true})
}

func (s *Server) handleEmpty(c *gin.Context) {
	if err := s.dev.EmptyTank(); err != nil {
		s.abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusAccepted, OKResponse{OK: true})
}
