package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/plant-disease-api/internal/apierr"
	"github.com/Brownie44l1/plant-disease-api/internal/metrics"
)

type RouterOptions struct {
	CORSOrigins []string
	Metrics     *metrics.Metrics
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = h.maxUpload

	r.Use(
		RequestID(),
		Logger(),
		Instrument(opts.Metrics),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			h.fail(c, apierr.New(fmt.Sprint(recovered)))
		}),
		cors.New(corsConfig(opts.CORSOrigins)),
	)

	r.GET("/", h.Home)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/classes", h.Classes)
		api.POST("/predict", h.Predict)
	}

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{requestIDHeader},
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
