package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/CK6170/CPVmini-go/models"
	"github.com/CK6170/CPVmini-go/store"
)

const maxImportSize = 4 << 20

func (s *Server) handleListCurves(c *gin.Context) {
	names, err := s.curves.ListCurveNames()
	if err != nil {
		s.abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, CurvesResponse{Curves: names})
}

func (s *Server) handleCreateCurve(c *gin.Context) {
	var req CreateCurveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := s.curves.CreateCurve(req.Name); err != nil {
		s.abort(c, err)
		return
	}
	logrus.WithField("curve", req.Name).Info("created calibration curve")
	c.IndentedJSON(http.StatusCreated, models.Curve{Name: req.Name, Pairs: []models.Pair{}})
}

func (s *Server) handleGetCurve(c *gin.Context) {
	name := c.Param("name")
	pairs, err := s.curves.LoadCurve(name)
	if err != nil {
		s.abort(c, err)
		return
	}
	if pairs == nil {
		pairs = []models.Pair{}
	}
	c.IndentedJSON(http.StatusOK, models.Curve{Name: name, Pairs: pairs})
}

func (s *Server) handlePutCurve(c *gin.Context) {
	name := c.Param("name")
	var req PutCurveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := s.curves.SaveCurve(name, req.Pairs); err != nil {
		s.abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, models.Curve{Name: name, Pairs: req.Pairs})
}

func (s *Server) handleDeleteCurve(c *gin.Context) {
	if err := s.curves.DeleteCurve(c.Param("name")); err != nil {
		s.abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, OKResponse{OK: true})
}

// handleImportCurve replaces :name with the pairs read from the uploaded "file".
func (s *Server) handleImportCurve(c *gin.Context) {
	name := c.Param("name")
	fh, err := c.FormFile("file")
	if err != nil {
		s.abort(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.abort(c, err)
		return
	}
	defer f.Close()

	pairs, err := store.ImportFrom(io.LimitReader(f, maxImportSize))
	if err != nil {
		s.abort(c, err)
		return
	}
	if err := s.curves.SaveCurve(name, pairs); err != nil {
		s.abort(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{"curve": name, "file": fh.Filename, "pairs": len(pairs)}).Info("imported calibration curve")
	c.IndentedJSON(http.StatusOK, models.Curve{Name: name, Pairs: pairs})
}

func (s *Server) handleExportCurve(c *gin.Context) {
	name := c.Param("name")
	var buf bytes.Buffer
	if err := s.curves.WriteTo(name, &buf); err != nil {
		s.abort(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".txt"))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}
