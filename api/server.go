package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/Pragyan2004/pneumoscan/chart"
	"github.com/Pragyan2004/pneumoscan/datastructures"
	"github.com/Pragyan2004/pneumoscan/predict"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// UploadURLPrefix is where saved uploads are served from.
const UploadURLPrefix = "/static/uploads/"

// Predictor runs a prediction for an image on disk. *predict.Dispatcher and
// *predict.Predictor both satisfy it.
type Predictor interface {
	Predict(filename string) predict.Outcome
}

type Options struct {
	Store          *predict.Store
	Predictor      Predictor
	UploadDir      string
	MaxUploadBytes int64
	Statistics     datastructures.Statistics
	Cache          ResultCache
	RenderChart    func(confidence float64) (string, error)
	Now            func() time.Time
}

type Server struct {
	store          *predict.Store
	predictor      Predictor
	uploadDir      string
	maxUploadBytes int64
	statistics     datastructures.Statistics
	cache          ResultCache
	renderChart    func(confidence float64) (string, error)
	now            func() time.Time

	uploadMu sync.Mutex
}

func NewServer(opts Options) *Server {
	s := &Server{
		store:          opts.Store,
		predictor:      opts.Predictor,
		uploadDir:      opts.UploadDir,
		maxUploadBytes: opts.MaxUploadBytes,
		statistics:     opts.Statistics,
		cache:          opts.Cache,
		renderChart:    opts.RenderChart,
		now:            opts.Now,
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = 16 << 20
	}
	if s.renderChart == nil {
		s.renderChart = chart.Render
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = s.maxUploadBytes
	router.Use(gin.LoggerWithWriter(log.StandardLogger().Writer()))
	router.Use(requestID(), cors(), recovery())

	router.POST("/predict", s.predict)

	router.GET("/api/model-info", s.modelInfo)
	router.GET("/api/health", s.health)
	router.GET("/api/debug", s.debug)
	router.GET("/api/statistics", s.statisticsHandler)
	router.GET("/api/results/:name", s.result)

	router.Static(UploadURLPrefix, s.uploadDir)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, datastructures.ErrorResult{Error: "Not found"})
	})

	return router
}
