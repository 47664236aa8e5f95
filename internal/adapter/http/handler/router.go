package handler

import (
	"net/http"

	"wager-escrow/internal/adapter/http/middleware"
	redisStore "wager-escrow/internal/adapter/storage/redis"
	"wager-escrow/internal/core/domain"
	"wager-escrow/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	EscrowSvc      ports.EscrowService
	CustodySvc     ports.CustodyService
	TokenSvc       ports.TokenService
	NonceStore     ports.NonceStore
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	HTTPMetrics    middleware.HTTPObserver // nil = request metrics disabled
	MetricsHandler http.Handler            // nil = no scrape endpoint
	MetricsPath    string
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(64 << 10))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.MetricsHandler != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(deps.MetricsHandler))
	}

	docs := r.Group("/swagger")
	{
		docs.GET("", SwaggerUI)
		docs.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	authorityOnly := middleware.RequireRole(domain.RoleAuthority)
	nonceGuard := middleware.NonceGuard(deps.NonceStore, deps.Logger)

	v1 := r.Group("/api/v1", jwtAuth)

	wagerHandler := NewWagerHandler(deps.EscrowSvc)
	wagers := v1.Group("/wagers")
	{
		wagers.POST("", rl("wagers_open"), middleware.RequireRole(domain.RolePlayer), wagerHandler.Open)
		wagers.GET("", rl("reads"), wagerHandler.List)
		wagers.GET("/:id", rl("reads"), wagerHandler.Get)
		wagers.POST("/:id/settle", rl("settlement"), authorityOnly, nonceGuard, wagerHandler.Settle)
		wagers.POST("/:id/cancel", rl("settlement"), authorityOnly, nonceGuard, wagerHandler.Cancel)
	}

	custodyHandler := NewCustodyHandler(deps.CustodySvc)
	custody := v1.Group("/custody")
	{
		custody.POST("/:id/deposit", rl("deposit"), nonceGuard, custodyHandler.Deposit)
		custody.GET("/:id/balance", rl("reads"), custodyHandler.Balance)
	}

	return r
}
