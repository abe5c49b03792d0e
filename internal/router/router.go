package router

import (
	"time"

	"restopos/internal/config"
	"restopos/internal/handler"
	"restopos/internal/infra"
	"restopos/internal/middleware"
	"restopos/internal/repository"
	"restopos/internal/service"
	"restopos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, sunatCB *infra.CircuitBreaker, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	cajaRepo := repository.NewCajaRepository(db)
	pagoRepo := repository.NewPagoRepository(db)
	cierreRepo := repository.NewCierreRepository(db)
	ocupacionRepo := repository.NewOcupacionRepository(db)
	comprobanteRepo := repository.NewComprobanteRepository(db)
	personaRepo := repository.NewPersonaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	cierreSvc := service.NewCierreService(pagoRepo, cajaRepo, cierreRepo, ocupacionRepo, dispatcher)
	comprobanteSvc := service.NewComprobanteService(comprobanteRepo, personaRepo, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cierreH := handler.NewCierreHandler(cierreSvc)
	comprobanteH := handler.NewComprobanteHandler(comprobanteSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, sunatCB))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cajero, supervisor, administrador — declared per-endpoint
		cierres := v1.Group("/cierres")
		{
			cierres.GET("/preview", middleware.RequireRole("cajero", "supervisor", "administrador"), cierreH.Preview)
			cierres.POST("", middleware.RequireRole("cajero", "supervisor", "administrador"), cierreH.Cerrar)
			cierres.GET("", middleware.RequireRole("supervisor", "administrador"), cierreH.Historial)
		}

		v1.POST("/pagos/manual", middleware.RequireRole("cajero", "supervisor", "administrador"), cierreH.PagoManual)

		comprobantes := v1.Group("/comprobantes")
		{
			comprobantes.GET("", middleware.RequireRole("cajero", "supervisor", "administrador"), comprobanteH.Listar)
			comprobantes.GET("/:id", middleware.RequireRole("cajero", "supervisor", "administrador"), comprobanteH.Obtener)
			comprobantes.POST("/:id/anular", middleware.RequireRole("supervisor", "administrador"), comprobanteH.Anular)
			comprobantes.POST("/:id/reemitir", middleware.RequireRole("supervisor", "administrador"), comprobanteH.Reemitir)
			comprobantes.POST("/:id/reintentar", middleware.RequireRole("supervisor", "administrador"), comprobanteH.Reintentar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
