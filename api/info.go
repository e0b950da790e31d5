package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/Pragyan2004/pneumoscan/datastructures"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (s *Server) modelInfo(c *gin.Context) {
	modelInfo := s.store.Info()
	if !s.store.Loaded() || modelInfo == nil {
		c.JSON(http.StatusInternalServerError, datastructures.ErrorResult{Error: "Model info not available"})
		return
	}

	c.JSON(http.StatusOK, datastructures.ModelInfoResult{
		InputShape:  modelInfo.InputShape,
		ClassNames:  modelInfo.ClassNames,
		TestMetrics: modelInfo.TestMetrics,
		ModelLoaded: true,
	})
}

func (s *Server) health(c *gin.Context) {
	status := "healthy"
	if !s.store.Loaded() {
		status = "degraded"
	}

	c.JSON(http.StatusOK, datastructures.HealthResult{
		Status:      status,
		ModelLoaded: s.store.Loaded(),
		Timestamp:   s.now().Format("2006-01-02T15:04:05.000000"),
	})
}

func (s *Server) debug(c *gin.Context) {
	res := datastructures.DebugResult{
		ModelLoaded:     s.store.Loaded(),
		ModelExists:     s.store.Model() != nil,
		ModelInfoExists: s.store.Info() != nil,
		UploadFolder:    s.uploadDir,
	}
	if fi, err := os.Stat(s.uploadDir); err == nil && fi.IsDir() {
		res.UploadFolderExists = true
	}

	if s.store.Loaded() {
		in := shapeString(s.store.Model().InputShape())
		out := shapeString(s.store.Model().OutputShape())
		res.InputShape = &in
		res.OutputShape = &out
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) statisticsHandler(c *gin.Context) {
	stats := s.statistics
	stats.ModelLoaded = s.store.Loaded()
	c.JSON(http.StatusOK, stats)
}

func (s *Server) result(c *gin.Context) {
	if s.cache == nil {
		c.JSON(http.StatusServiceUnavailable, datastructures.ErrorResult{Error: "Result cache not configured"})
		return
	}

	name := c.Param("name")
	res, err := s.cache.Get(name)
	if err != nil {
		if errors.Is(err, ErrResultNotFound) {
			c.JSON(http.StatusNotFound, datastructures.ErrorResult{Error: "Result not found"})
			return
		}
		log.Error("[Results] Couldn't get result: ", err.Error())
		c.JSON(http.StatusInternalServerError, datastructures.ErrorResult{Error: "Couldn't get result - please try again later"})
		return
	}

	c.JSON(http.StatusOK, res)
}

// shapeString renders dims the way Keras prints them, e.g. "(None, 150, 150, 1)".
// The batch dim and unknown dims show as None.
func shapeString(dims []int64) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		if i == 0 || d < 0 {
			parts[i] = "None"
			continue
		}
		parts[i] = strconv.FormatInt(d, 10)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
