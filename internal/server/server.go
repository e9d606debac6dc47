package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/CK6170/CPVmini-go/config"
	"github.com/CK6170/CPVmini-go/events"
	"github.com/CK6170/CPVmini-go/modern"
	serialpkg "github.com/CK6170/CPVmini-go/serial"
	"github.com/CK6170/CPVmini-go/store"
)

type Options struct {
	Name    string
	Version string
	// WebRoot, when set, is served for every path outside /api and /ws.
	WebRoot string
}

type Server struct {
	router *gin.Engine

	dev    Device
	curves *store.CurveStore
	conf   config.Config
	units  *modern.Units
	hub    *events.Hub
	sub    *events.Subscription
	ws     *WSHub
	opts   Options

	listPorts func() ([]serialpkg.PortInfo, error)
}

func New(dev Device, curves *store.CurveStore, conf config.Config, hub *events.Hub, opts Options) *Server {
	s := &Server{
		dev:       dev,
		curves:    curves,
		conf:      conf,
		units:     modern.NewUnits(conf),
		hub:       hub,
		sub:       hub.Subscribe(256),
		ws:        NewWSHub(),
		opts:      opts,
		listPorts: serialpkg.ListPorts,
	}
	s.router = s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))

	api := router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/version", s.handleVersion)
	api.GET("/ports", s.handlePorts)

	api.GET("/state", s.handleState)
	api.POST("/connect", s.handleConnect)
	api.POST("/disconnect", s.handleDisconnect)
	api.POST("/target", s.handleTarget)
	api.POST("/fill", s.handleFill)
	api.POST("/empty", s.handleEmpty)

	api.GET("/curves", s.handleListCurves)
	api.POST("/curves", s.handleCreateCurve)
	api.GET("/curves/:name", s.handleGetCurve)
	api.PUT("/curves/:name", s.handlePutCurve)
	api.DELETE("/curves/:name", s.handleDeleteCurve)
	api.POST("/curves/:name/import", s.handleImportCurve)
	api.GET("/curves/:name/export", s.handleExportCurve)

	api.GET("/settings", s.handleGetSettings)
	api.PUT("/settings", s.handlePutSettings)

	router.GET("/ws/events", s.handleWSEvents)

	if s.opts.WebRoot != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.opts.WebRoot))))
	}
	return router
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, HealthResponse{OK: true, Timestamp: time.Now()})
}

func (s *Server) handleVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, VersionResponse{Name: s.opts.Name, Version: s.opts.Version})
}

func (s *Server) handlePorts(c *gin.Context) {
	ports, err := s.listPorts()
	if err != nil {
		s.abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, PortsResponse{Ports: ports, Selected: s.conf.COMPort()})
}

// errBadRequest marks request validation failures.
var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyExists),
		errors.Is(err, modern.ErrAlreadyConnected),
		errors.Is(err, modern.ErrNotConnected),
		errors.Is(err, modern.ErrConnectAborted):
		return http.StatusConflict
	case errors.Is(err, store.ErrFormat),
		errors.Is(err, store.ErrInvalidName),
		errors.Is(err, modern.ErrUnknownUnit),
		errors.Is(err, modern.ErrNoPort),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, modern.ErrPortOpen):
		return http.StatusBadGateway
	case errors.Is(err, modern.ErrWriteQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) abort(c *gin.Context, err error) {
	status := statusFor(err)
	c.IndentedJSON(status, APIError{Error: err.Error()})
	_ = c.AbortWithError(status, err)
}
