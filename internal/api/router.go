package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emirhncann/portable-thermal-printer/internal/api/handlers"
	"github.com/emirhncann/portable-thermal-printer/internal/api/middleware"
	"github.com/emirhncann/portable-thermal-printer/internal/config"
	"github.com/emirhncann/portable-thermal-printer/internal/core"
	"github.com/emirhncann/portable-thermal-printer/internal/tspl"
)

type RouterConfig struct {
	Manager     *core.Manager
	Config      *config.Config
	PrinterCaps tspl.Capabilities
	Logger      *zap.Logger
}

// NewRouter wires the HTTP surface. Auth endpoints are public; everything
// under /api/v1 requires a valid session.
func NewRouter(rc RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	if rc.Logger != nil {
		r.Use(requestLogger(rc.Logger))
	}

	auth, err := middleware.NewAuthMiddleware()
	if err != nil {
		return nil, err
	}

	r.POST("/auth/setup", auth.SetupHandler)
	r.POST("/auth/login", auth.LoginHandler)
	r.POST("/auth/logout", auth.LogoutHandler)
	r.GET("/auth/status", auth.StatusHandler)

	api := r.Group("/api/v1")
	api.Use(auth.RequireAuth())
	api.POST("/auth/password", auth.ChangePasswordHandler)

	jobHandler := handlers.NewJobHandler(rc.Manager)
	jobHandler.RegisterRoutes(api)

	webhookHandler := handlers.NewWebhookHandler()
	webhookHandler.RegisterRoutes(api)

	printerHandler := handlers.NewPrinterHandler(rc.Config.Printer, rc.PrinterCaps)
	printerHandler.RegisterRoutes(api)

	settingsHandler := handlers.NewSettingsHandler(rc.Config)
	settingsHandler.RegisterRoutes(api)

	return r, nil
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
