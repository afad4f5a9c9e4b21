package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/storefront-api/internal/config"
	"github.com/flicky/storefront-api/internal/credential"
	"github.com/flicky/storefront-api/internal/handler"
	"github.com/flicky/storefront-api/internal/middleware"
	"github.com/flicky/storefront-api/internal/payment"
	"github.com/flicky/storefront-api/internal/repository"
	"github.com/flicky/storefront-api/internal/service"
	"github.com/flicky/storefront-api/internal/storage"
	"github.com/flicky/storefront-api/internal/worker"
)

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	if cfg.DB.AutoMigrate {
		if err := storage.MigrateUp(cfg.DB.DSN()); err != nil {
			log.Error("migrate database", "error", err)
			os.Exit(1)
		}
		log.Info("database schema up to date")
	}

	dbPool, err := storage.NewPool(ctx, cfg.DB.DSN(), cfg.DB.MaxConns)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	log.Info("connected to PostgreSQL")

	// Redis (optional)
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("connected to Redis")
	}

	// Repositories
	tx := repository.NewTransactor(dbPool)
	userRepo := repository.NewUserRepository(dbPool)
	customerRepo := repository.NewCustomerRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	paymentRepo := repository.NewPaymentRepository(dbPool)
	roleRepo := repository.NewRoleRepository(dbPool)
	activityRepo := repository.NewActivityRepository(dbPool)
	reportRepo := repository.NewReportRepository(dbPool)

	// Activity log: through RabbitMQ when configured, otherwise direct.
	var activity service.ActivityRecorder = service.NewDirectActivityRecorder(activityRepo)
	var amqpConn *amqp.Connection
	var activityWorker *worker.ActivityWorker
	if cfg.RabbitMQ.URL != "" {
		amqpConn, err = amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error("connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer amqpConn.Close()

		pubCh, err := amqpConn.Channel()
		if err != nil {
			log.Error("open RabbitMQ channel", "error", err)
			os.Exit(1)
		}
		defer pubCh.Close()

		if err := worker.SetupRabbitMQ(pubCh); err != nil {
			log.Error("setup RabbitMQ", "error", err)
			os.Exit(1)
		}

		consumeCh, err := amqpConn.Channel()
		if err != nil {
			log.Error("open RabbitMQ channel", "error", err)
			os.Exit(1)
		}
		defer consumeCh.Close()

		activity = worker.NewActivityPublisher(pubCh, log)
		activityWorker = worker.NewActivityWorker(consumeCh, activityRepo, worker.NewRedisDeduper(redisClient), log)
		if err := activityWorker.Start(ctx); err != nil {
			log.Error("start activity worker", "error", err)
			os.Exit(1)
		}
		log.Info("connected to RabbitMQ")
	}

	// Services
	tokens := credential.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	cartSvc := service.NewCartService(cartRepo, productRepo, tx, activity)
	authSvc := service.NewAuthService(userRepo, roleRepo, cartSvc, tokens, activity)
	productSvc := service.NewProductService(productRepo, redisClient)
	orderSvc := service.NewOrderService(tx, customerRepo, orderRepo, paymentRepo, cartRepo, roleRepo, activity, cfg.Order.AllowEmpty)
	paymentSvc := service.NewPaymentService(orderRepo, paymentRepo,
		payment.NewSimulator(cfg.Payment.TestCardNumber, cfg.Payment.SimulatedDelay), activity)
	profileSvc := service.NewProfileService(customerRepo, roleRepo, activity)
	adminSvc := service.NewAdminService(roleRepo, orderRepo, reportRepo, activityRepo, userRepo, activity)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	productH := handler.NewProductHandler(productSvc)
	cartH := handler.NewCartHandler(cartSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	paymentH := handler.NewPaymentHandler(paymentSvc)
	profileH := handler.NewProfileHandler(profileSvc)
	adminH := handler.NewAdminHandler(adminSvc)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	// Router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.ClientInfo())
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	requireAuth := middleware.AuthMiddleware(authSvc)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/logout", requireAuth, authH.Logout)

		v1.GET("/products", productH.List)
		v1.GET("/products/:id", productH.GetByID)
		v1.GET("/categories", productH.Categories)

		cart := v1.Group("/cart")
		cart.POST("", cartH.NewCart)
		cart.PUT("/items", middleware.OptionalAuth(authSvc), cartH.SetItem)
		cart.GET("/:cartId", cartH.GetCart)
		cart.POST("/:cartId/merge", requireAuth, cartH.Merge)

		orders := v1.Group("/orders", requireAuth)
		orders.POST("", orderH.CreateOrder)
		orders.GET("", orderH.ListOrders)
		orders.GET("/:id", orderH.GetOrder)

		v1.POST("/payments", requireAuth, paymentH.Pay)

		me := v1.Group("/me", requireAuth)
		me.GET("/profile", profileH.Get)
		me.PUT("/profile", profileH.Update)
		me.PUT("/password", authH.ChangePassword)

		admin := v1.Group("/admin", requireAuth)
		admin.GET("/orders", adminH.RecentOrders)
		admin.PUT("/orders/:id/status", adminH.UpdateOrderStatus)
		admin.GET("/analytics", adminH.SalesAnalytics)
		admin.GET("/customers", adminH.Customers)
		admin.GET("/customers/:id/orders", adminH.CustomerOrders)
		admin.GET("/activity", adminH.ActivityLogs)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout + cfg.Payment.SimulatedDelay,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	if activityWorker != nil {
		activityWorker.Stop()
	}
	cancel()
	log.Info("server stopped")
}
