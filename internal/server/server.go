package server

import (
	"context"
	"net/http"

	"adnexus/internal/auth"
	"adnexus/internal/bidder"
	"adnexus/internal/campaign"
	"adnexus/internal/config"
	"adnexus/internal/ledger"
	"adnexus/internal/notify"
	"adnexus/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	notify *notify.Service
}

func New(db *sqlx.DB, cfg *config.Config, notifyService *notify.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(corsMiddleware())
	router.Use(MetricsMiddleware())

	bidderClient := bidder.NewClient(cfg.BidderHosts)
	gate := campaign.NewGate(cfg.MinDailyBudget)

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	ledgerHandler := ledger.NewHandler(db, cfg, notifyService)

	campaignRepo := campaign.NewRepository(db, gate)
	campaignService := campaign.NewService(campaignRepo, user.NewRepository(db), gate, bidderClient, notifyService)
	campaignHandler := campaign.NewHandler(campaignService)

	// Credential endpoints are the brute-force target, so they get the
	// tightest limiter.
	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)

		protected.GET("/credits", ledgerHandler.GetBalance)
		protected.POST("/credits/deposit", ledgerHandler.Deposit)
		protected.GET("/credits/transactions", ledgerHandler.ListTransactions)

		protected.POST("/campaigns", campaignHandler.Create)
		protected.GET("/campaigns", campaignHandler.List)
		protected.GET("/campaigns/:campaignID", campaignHandler.Get)
		protected.PUT("/campaigns/:campaignID", campaignHandler.Update)
		protected.DELETE("/campaigns/:campaignID", campaignHandler.Delete)
		protected.POST("/campaigns/:campaignID/activate", campaignHandler.Activate)
		protected.POST("/campaigns/:campaignID/pause", campaignHandler.Pause)
		protected.GET("/campaigns/:campaignID/serving", campaignHandler.ServingStatus)
	}

	adminMiddleware := auth.RequireRole("admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/accounts", ledgerHandler.AdminListAccounts)
		admin.POST("/users/:userID/credits", ledgerHandler.AdminAdjust)
		admin.GET("/users/:userID/transactions", ledgerHandler.AdminListTransactions)
		admin.GET("/campaigns/needs-pause", campaignHandler.AdminListNeedingPause)
	}

	router.GET("/health", Health)
	router.GET("/bidders/health", BidderHealth(bidderClient))
	router.GET("/metrics", Metrics())

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		notify: notifyService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
