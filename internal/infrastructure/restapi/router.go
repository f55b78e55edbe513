package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// RouterConfig carries the HTTP-facing settings of the router.
type RouterConfig struct {
	AllowedOrigins []string
	SwaggerEnabled bool
	SwaggerSpec    string
	Gatherer       prometheus.Gatherer
}

// Handlers groups every handler the router mounts.
type Handlers struct {
	Transfers *TransferHandler
	Balances  *BalanceHandler
	Health    *HealthHandler
}

// SetupRouter builds the gin engine with middleware and routes.
func SetupRouter(h Handlers, cfg RouterConfig, zapLogger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))
	router.Use(ZapLoggerMiddleware(zapLogger))
	router.Use(gin.Recovery())

	router.POST("/collect", h.Transfers.Collect)
	router.POST("/disperse", h.Transfers.Disperse)
	router.POST("/collect/preview", h.Transfers.PreviewCollect)
	router.POST("/disperse/preview", h.Transfers.PreviewDisperse)
	router.GET("/balances/:holder", h.Balances.GetHolderBalances)
	router.GET("/healthz", h.Health.Healthz)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if cfg.SwaggerEnabled && cfg.SwaggerSpec != "" {
		router.StaticFile("/docs/swagger.yaml", cfg.SwaggerSpec)
		swaggerURL := ginSwagger.URL("/docs/swagger.yaml")
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, swaggerURL))
	}

	return router
}
