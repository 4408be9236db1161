package router

import (
	"github.com/gin-gonic/gin"
	"github.com/loyalty/backend/internal/infrastructure/logger"
	"github.com/loyalty/backend/internal/interfaces/http/handler"
	"github.com/loyalty/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// CronPath is where external schedulers trigger the daily automation
const CronPath = "/api/cron/daily-automation"

// Handlers are the HTTP handlers mounted by NewEngine. Cron may be nil when the
// external trigger is disabled.
type Handlers struct {
	Health *handler.HealthHandler
	Tier   *handler.TierHandler
	Boost  *handler.BoostHandler
	Admin  *handler.AdminHandler
	Cron   *handler.CronHandler
}

// EngineConfig carries the cross-cutting settings of the HTTP stack
type EngineConfig struct {
	Logger    *zap.Logger
	Validator middleware.TokenValidator
	// CronSecret guards CronPath
	CronSecret string
	// PaymentInfoLimiter throttles payment-info submissions per user. Nil disables it.
	PaymentInfoLimiter *middleware.RateLimiter
	Meter              metric.Meter
	ServiceName        string
	TracingEnabled     bool
	ProfilingEnabled   bool
	HSTS               bool
	CORS               middleware.CORSConfig
	MaxBodyBytes       int64
	TrustedProxies     []string
}

// NewEngine builds the gin engine with the global middleware chain and every route
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = middleware.DefaultMaxBodyBytes
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	middleware.SetupValidator()

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled),
		logger.GinMiddleware(log),
		middleware.Secure(cfg.HSTS),
		middleware.CORS(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodyBytes),
		middleware.HTTPMetrics(cfg.Meter, log),
	)

	if h.Health != nil {
		engine.GET("/health", h.Health.Live)
		engine.GET("/ready", h.Health.Ready)
	}
	if h.Cron != nil {
		engine.POST(CronPath, middleware.CronAuth(cfg.CronSecret, log), h.Cron.DailyAutomation)
	}

	r := NewRouter(engine)
	authenticated := []gin.HandlerFunc{
		middleware.JWTAuth(cfg.Validator, log),
		middleware.SpanEnricher(),
		middleware.Profiling(cfg.ProfilingEnabled),
	}

	if h.Tier != nil {
		tiers := NewDomainGroup("tiers", "/tiers").Use(authenticated...)
		tiers.GET("/me", h.Tier.Me).
			GET("/me/history", h.Tier.History)
		r.Register(tiers)
	}

	if h.Boost != nil {
		boosts := NewDomainGroup("boosts", "/boosts").Use(authenticated...)
		paymentInfo := []gin.HandlerFunc{h.Boost.SubmitPaymentInfo}
		if cfg.PaymentInfoLimiter != nil {
			paymentInfo = append([]gin.HandlerFunc{middleware.RateLimitByUser(cfg.PaymentInfoLimiter)}, paymentInfo...)
		}
		boosts.POST("", h.Boost.Schedule).
			GET("/:id", h.Boost.Get).
			POST("/:id/payment-info", paymentInfo...).
			GET("/:id/payment-info", h.Boost.GetPaymentInfo)
		r.Register(boosts)
	}

	if h.Admin != nil {
		admin := NewDomainGroup("admin", "/admin").Use(authenticated...).Use(middleware.RequireAdmin())
		admin.PUT("/program", h.Admin.ConfigureProgram).
			GET("/program", h.Admin.GetProgram).
			POST("/creators", h.Admin.EnrollCreator).
			POST("/performance", h.Admin.RecordPerformance).
			POST("/adjustments", h.Admin.QueueAdjustment).
			GET("/adjustments", h.Admin.ListPendingAdjustments)
		admin.Group("boosts", "/boosts").
			GET("/:id", h.Admin.GetBoost).
			POST("/:id/fulfill", h.Admin.FulfillPayout)
		r.Register(admin)
	}

	r.Setup()
	return engine, nil
}
