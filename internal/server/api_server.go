package server

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIServer — HTTP API наблюдения за сервером трансляции.
type APIServer struct {
	server    *Server
	router    *gin.Engine
	startedAt time.Time
}

// ServerStatus — состояние сервера для API.
type ServerStatus struct {
	Status         string `json:"status"`
	ListenAddr     string `json:"listen_addr"`
	HasClient      bool   `json:"has_client"`
	EncoderWorkers int    `json:"encoder_workers"`
	Recording      bool   `json:"recording"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
}

// NewAPIServer создает API сервер с маршрутами наблюдения.
func NewAPIServer(server *Server) *APIServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := &APIServer{
		server:    server,
		router:    router,
		startedAt: time.Now(),
	}

	api.setupRoutes()
	return api
}

func (api *APIServer) setupRoutes() {
	if api.server.Config().APIServer.StaticDir != "" {
		api.router.Static("/static", api.server.Config().APIServer.StaticDir)
		api.router.StaticFile("/", filepath.Join(api.server.Config().APIServer.StaticDir, "index.html"))
	}

	v1 := api.router.Group("/api/v1")
	{
		v1.GET("/status", api.getStatus)
		v1.GET("/stats", api.getStats)
		v1.GET("/recordings", api.getRecordings)
		v1.GET("/recordings/:id", api.getRecording)
	}

	api.router.GET("/health", api.healthCheck)
	api.router.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(api.server.Metrics().Registry(), promhttp.HandlerOpts{})))
}

// Start запускает API сервер; блокирует вызывающего.
func (api *APIServer) Start() error {
	return api.router.Run(api.server.Config().APIServer.ListenAddr)
}

// Handler возвращает HTTP-обработчик (используется тестами).
func (api *APIServer) Handler() http.Handler {
	return api.router
}

func (api *APIServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "avo-stream-server",
		"time":    time.Now().UTC(),
	})
}

func (api *APIServer) getStatus(c *gin.Context) {
	config := api.server.Config()
	c.JSON(http.StatusOK, ServerStatus{
		Status:         "running",
		ListenAddr:     config.ListenAddr,
		HasClient:      api.server.HasClient(),
		EncoderWorkers: config.EncoderWorkers,
		Recording:      config.Recording.Enabled,
		UptimeSeconds:  int64(time.Since(api.startedAt).Seconds()),
	})
}

func (api *APIServer) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, api.server.Stats())
}

func (api *APIServer) getRecordings(c *gin.Context) {
	catalog := api.server.Catalog()
	if catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recording catalog not configured"})
		return
	}

	recordings, err := catalog.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if recordings == nil {
		recordings = []Recording{}
	}
	c.JSON(http.StatusOK, recordings)
}

func (api *APIServer) getRecording(c *gin.Context) {
	catalog := api.server.Catalog()
	if catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recording catalog not configured"})
		return
	}

	rec, err := catalog.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recording not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}
