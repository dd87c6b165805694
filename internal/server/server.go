package server

import (
	"net/http"

	"github.com/cyphera/authority-proxy/internal/config"
	"github.com/cyphera/authority-proxy/internal/constants"
	"github.com/cyphera/authority-proxy/internal/handlers"
	"github.com/cyphera/authority-proxy/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server owns the router and the middleware that needs stopping.
type Server struct {
	Router  *gin.Engine
	limiter *middleware.RateLimiter
}

// New builds the router for service.
func New(cfg *config.Config, service handlers.DelegationService) *Server {
	if cfg.Stage == constants.ProdEnvironment {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		Router:  router,
		limiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
	s.initializeRoutes(cfg, service)
	return s
}

// ServeHTTP lets the server stand in for its router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// Close stops background middleware work.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) initializeRoutes(cfg *config.Config, service handlers.DelegationService) {
	healthHandler := handlers.NewHealthHandler()
	metadataHandler := handlers.NewMetadataHandler(service)
	delegationHandler := handlers.NewDelegationHandler(service)

	s.Router.Use(configureCORS(cfg))
	s.Router.Use(middleware.CorrelationIDMiddleware())
	s.Router.Use(s.limiter.Middleware())

	// Health check
	s.Router.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := s.Router.Group("/api/v1")
	{
		metadata := v1.Group("/metadata")
		{
			metadata.GET("/:mint", metadataHandler.GetMetadataStatus)
			metadata.GET("/:mint/address", metadataHandler.GetMetadataAddress)
		}

		delegations := v1.Group("/delegations")
		{
			delegations.POST("/plan", delegationHandler.PlanDelegation)
			delegations.POST("/transaction", delegationHandler.BuildDelegationTransaction)
		}
	}
}

// configureCORS returns a configured CORS middleware
func configureCORS(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.CorrelationIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.CorrelationIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	return cors.New(corsConfig)
}
