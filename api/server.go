package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Server is the REST surface over the product and order services.
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	store    repository.Store
	products *service.ProductService
	orders   *service.OrderService
	gatherer prometheus.Gatherer
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	store repository.Store,
	products *service.ProductService,
	orders *service.OrderService,
	gatherer prometheus.Gatherer,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))
	router.Use(cors.Default())

	return &Server{
		config:   cfg,
		logger:   logger,
		router:   router,
		store:    store,
		products: products,
		orders:   orders,
		gatherer: gatherer,
	}
}

func (s *Server) SetupRoutes() {
	s.router.GET("/health", s.health)

	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := s.router.Group("/api")
	{
		products := api.Group("/products")
		{
			products.POST("", s.createProduct)
			products.GET("", s.listProducts)
			products.GET("/:id", s.getProduct)
			products.PUT("/:id", s.updateProduct)
			products.DELETE("/:id", s.deleteProduct)
			products.POST("/:id/images", s.attachImages)
			products.DELETE("/:id/images/:imageName", s.removeImage)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", s.createOrder)
			orders.GET("", s.listOrders)
			orders.GET("/:id", s.getOrder)
			orders.PUT("/:id/status", s.updateOrderStatus)
			orders.PUT("/:id/cancel", s.cancelOrder)
			orders.DELETE("/:id", s.deleteOrder)
		}
	}

	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("HTTP server starting", zap.String("address", addr))
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
