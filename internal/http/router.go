package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/cw-satou/astral-backend/internal/http/handlers"
	httpMW "github.com/cw-satou/astral-backend/internal/http/middleware"
	"github.com/cw-satou/astral-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	DiagnosisHandler *httpH.DiagnosisHandler
	WebhookHandler   *httpH.WebhookHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("astral-backend"))
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS())

	// Health
	r.GET("/healthcheck", httpH.Health)

	api := r.Group("/api")
	{
		if cfg.DiagnosisHandler != nil {
			api.POST("/diagnose", cfg.DiagnosisHandler.Diagnose)
			api.POST("/build-bracelet", cfg.DiagnosisHandler.BuildBracelet)
			api.POST("/fortune-detail", cfg.DiagnosisHandler.FortuneDetail)
		}

		if cfg.WebhookHandler != nil {
			api.POST("/line-webhook", cfg.WebhookHandler.Handle)
		}
	}

	return r
}
