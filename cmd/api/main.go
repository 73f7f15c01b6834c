package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "taxflow/api/swagger" // swagger docs
	"taxflow/internal/authz"
	"taxflow/internal/config"
	"taxflow/internal/database"
	"taxflow/internal/handler"
	"taxflow/internal/middleware"
	"taxflow/internal/notify"
	"taxflow/internal/repository"
	"taxflow/internal/service"
	"taxflow/internal/tax"
	"taxflow/internal/token"
	"taxflow/internal/websocket"
	"taxflow/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Taxflow API
// @version         1.0
// @description     Tax calculation, approvals, notifications and role dashboards.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.Database, zapLogger)
	if err != nil {
		return err
	}
	zapLogger.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))

	schedule := tax.DefaultSchedule()
	if cfg.Tax.SchedulePath != "" {
		if schedule, err = tax.LoadSchedule(cfg.Tax.SchedulePath); err != nil {
			return err
		}
	}
	engine, err := tax.NewEngine(schedule)
	if err != nil {
		return err
	}

	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	authorizer, err := authz.NewAuthorizer(cfg.Authz.ModelPath, cfg.Authz.PolicyPath)
	if err != nil {
		return err
	}
	guard := middleware.NewGuard(tokens, authorizer, zapLogger)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(tokens, cfg.WebSocket.AllowedOrigins, zapLogger)
	go wsHub.Run(ctx)

	mailer := notify.New(cfg.Notify.ResendAPIKey, cfg.Notify.FromEmail, cfg.Notify.FromName, zapLogger)
	if !mailer.Enabled() {
		zapLogger.Info("e-mail delivery disabled, RESEND_API_KEY is not set")
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	ledgerRepo := repository.NewTaxTransactionRepository(db)
	aiSettingsRepo := repository.NewAISettingsRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo)
	authService := service.NewAuthService(userRepo, workspaceRepo, txManager, auditService, tokens, cfg.Auth.BcryptCost)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, wsHub, mailer, cfg.Notify.AppBaseURL, zapLogger)
	approvalService := service.NewApprovalService(approvalRepo, userRepo, txManager, notificationService, auditService, wsHub, zapLogger)
	taxService := service.NewTaxService(engine, ledgerRepo, txManager, auditService, zapLogger)
	aiSettingsService := service.NewAISettingsService(aiSettingsRepo, txManager, auditService)
	dashboardService := service.NewDashboardService(userRepo, approvalRepo, notificationRepo, ledgerRepo, auditRepo)

	// Set up Gin Router
	router := gin.New()
	router.Use(middleware.Recovery(zapLogger), middleware.RequestLogger(zapLogger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "websocket_clients": wsHub.Connected()})
	})

	router.GET("/ws", wsHub.ServeWs)

	// API Routing
	api := router.Group("")
	handler.NewAuthHandler(authService, guard).RegisterRoutes(api)
	handler.NewTaxHandler(taxService, guard).RegisterRoutes(api)
	handler.NewApprovalHandler(approvalService, guard).RegisterRoutes(api)
	handler.NewNotificationHandler(notificationService, guard).RegisterRoutes(api)
	handler.NewDashboardHandler(dashboardService, guard).RegisterRoutes(api)
	handler.NewAIHandler(aiSettingsService, guard).RegisterRoutes(api)
	handler.NewAuditHandler(auditService, guard).RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zapLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
