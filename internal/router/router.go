package router

import (
	"time"

	"distribuidora/internal/config"
	"distribuidora/internal/handler"
	"distribuidora/internal/middleware"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Infra groups the infrastructure the HTTP layer talks to directly.
type Infra struct {
	DB          *gorm.DB
	Redis       handler.RedisPinger
	Notificador handler.EstadoNotificador // nil when NOTIFIER_URL is empty
	Cola        handler.EncoladorVentas
}

// New wires the handlers and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, inf Infra, svcs *Servicios) *gin.Engine {
	if cfg.IsProduction() {
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

	// ── Handlers ─────────────────────────────────────────────────────────────
	eventosH := handler.NewEventosHandler(inf.Cola)
	creditosH := handler.NewCreditosHandler(svcs.Conciliacion, svcs.Credito, svcs.Catalogo.UmbralCritico())
	cajaH := handler.NewCajaHandler(svcs.Caja)
	auditoriaH := handler.NewAuditoriaHandler(svcs.Auditoria)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(inf.DB, inf.Redis, inf.Notificador))

	operadores := []string{middleware.RolCajero, middleware.RolSupervisor, middleware.RolAdministrador}

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		// Sales module publishes committed sales here
		v1.POST("/eventos/ventas", middleware.RequireRole(middleware.RolServicio), eventosH.VentaCreada)

		v1.POST("/cuentas/:id/pagos", middleware.RequireRole(operadores...), creditosH.RegistrarPago)
		v1.GET("/cuentas/:id", middleware.RequireRole(operadores...), creditosH.ObtenerCuenta)
		v1.GET("/clientes/:id/credito", middleware.RequireRole(operadores...), creditosH.EstadoCredito)
		v1.POST("/pagos/:id/anular", middleware.RequireRole(middleware.RolSupervisor, middleware.RolAdministrador), creditosH.AnularPago)

		caja := v1.Group("/caja")
		{
			caja.GET("/sesion-activa", middleware.RequireRole(operadores...), cajaH.SesionActiva)
			caja.GET("/sesiones/:id/resumen", middleware.RequireRole(middleware.RolSupervisor, middleware.RolAdministrador), cajaH.ObtenerResumen)
		}

		v1.GET("/auditoria", middleware.RequireRole(middleware.RolSupervisor, middleware.RolAdministrador), auditoriaH.Listar)
	}

	// Swagger UI: only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
