package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docuquery/internal/bootstrap"
	"docuquery/internal/transport/http/handler"
	"docuquery/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.CORS(app.Config.CORS.AllowedOrigins))
	router.MaxMultipartMemory = 8 << 20

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})))

	askHandler := handler.NewAskHandler(app.RAG, app.Runs)
	uploadHandler := handler.NewUploadHandler(app.Uploads, app.Config.Upload.MaxBytes)
	runsHandler := handler.NewRunsHandler(app.Runs)

	v1 := router.Group("/api/v1")
	v1.POST("/upload", uploadHandler.Upload)
	v1.POST("/ask", askHandler.Ask)
	v1.GET("/runs", runsHandler.List)
	v1.GET("/runs/:id", runsHandler.Get)

	return router
}
