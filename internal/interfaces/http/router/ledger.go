package router

import (
	appbilling "github.com/backoffice/ledger/internal/application/billing"
	"github.com/backoffice/ledger/internal/infrastructure/logger"
	"github.com/backoffice/ledger/internal/infrastructure/telemetry"
	"github.com/backoffice/ledger/internal/interfaces/http/handler"
	"github.com/backoffice/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig configures the ledger HTTP engine
type EngineConfig struct {
	ServiceName    string
	Version        string
	TracingEnabled bool
	MaxBodySize    int64
	CORS           middleware.CORSConfig
	TrustedProxies []string
	DB             handler.Pinger
	// Meter enables HTTP request metrics when set
	Meter metric.Meter
}

// LedgerRoutes returns the resources of the billing API.
func LedgerRoutes(services *appbilling.Services) []Resource {
	plans := handler.NewPlanHandler(services)
	installments := handler.NewInstallmentHandler(services)
	cashFlow := handler.NewCashFlowHandler(services)

	return []Resource{
		{Name: "plans", Prefix: "/plans", Guards: tagID(telemetry.AttrPlanID), Routes: []Route{
			post("", plans.Create),
			get("/:id", plans.GetByID),
			post("/:id/cancel", plans.Cancel),
			post("/:id/mark-paid", plans.MarkPaid),
			post("/:id/start-date/preview", plans.PreviewStartDate),
			put("/:id/start-date", plans.ChangeStartDate),
		}},
		{Name: "installments", Prefix: "/installments", Guards: tagID(telemetry.AttrInstallmentID), Routes: []Route{
			get("", installments.List),
			get("/:id", installments.GetByID),
			patch("/:id", installments.Update),
			remove("/:id", installments.Delete),
			post("/:id/mark-paid", installments.MarkPaid),
			post("/:id/duplicate", installments.Duplicate),
			post("/:id/resequence", installments.Resequence),
		}},
		{Name: "cash-flow", Prefix: "/cash-flow", Routes: []Route{
			get("", cashFlow.List),
		}},
		{Name: "reconciliation", Prefix: "/reconciliation", Routes: []Route{
			get("", cashFlow.Reconcile),
			post("/repair", cashFlow.Repair),
		}},
	}
}

func tagID(key attribute.Key) []gin.HandlerFunc {
	return []gin.HandlerFunc{middleware.TagPathID(key)}
}

// NewEngine builds the gin engine with the standard middleware chain and
// every billing route mounted under /api/v1.
func NewEngine(cfg EngineConfig, services *appbilling.Services, log *zap.Logger) (*gin.Engine, error) {
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	httpMetrics, err := middleware.HTTPMetricsWithMeter(cfg.Meter)
	if err != nil {
		return nil, err
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.TracingEnabled}),
		middleware.SpanStatus(),
		httpMetrics,
		logger.AccessLog(log, "/health"),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	system := handler.NewSystemHandler(cfg.ServiceName, cfg.Version, cfg.DB)
	engine.GET("/health", system.Health)

	resources := append(LedgerRoutes(services), Resource{
		Name: "system", Prefix: "/system", Routes: []Route{get("/info", system.GetSystemInfo)},
	})
	Mount(engine.Group(APIPrefix), resources...)

	log.Info("HTTP routes registered", zap.Int("routes", len(engine.Routes())))
	log.Debug("Route table", zap.Strings("routes", RouteTable(APIPrefix, resources...)))
	return engine, nil
}
