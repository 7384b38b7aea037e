package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/petalroad/storefront-service/config"
	"github.com/petalroad/storefront-service/pkg/broker"
	"github.com/petalroad/storefront-service/pkg/cache"
	"github.com/petalroad/storefront-service/pkg/logger"
	"github.com/petalroad/storefront-service/pkg/postgres"
	"github.com/petalroad/storefront-service/pkg/search"

	catH "github.com/petalroad/storefront-service/internal/catalog/handler"
	catRepoPkg "github.com/petalroad/storefront-service/internal/catalog/repository"
	catUCPkg "github.com/petalroad/storefront-service/internal/catalog/usecase"

	stockH "github.com/petalroad/storefront-service/internal/stock/handler"
	stockRepoPkg "github.com/petalroad/storefront-service/internal/stock/repository"
	stockUCPkg "github.com/petalroad/storefront-service/internal/stock/usecase"

	orderH "github.com/petalroad/storefront-service/internal/order/handler"
	orderRepoPkg "github.com/petalroad/storefront-service/internal/order/repository"
	orderUCPkg "github.com/petalroad/storefront-service/internal/order/usecase"

	"github.com/petalroad/storefront-service/internal/httpapi"
	"github.com/petalroad/storefront-service/internal/notify"
	notifyListenerPkg "github.com/petalroad/storefront-service/internal/notify/listener"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	logCfg := &logger.Config{
		Level:             "info",
		Encoding:          "json",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logCfg.IsDevelopment = true
		logCfg.Level = cfg.Logger.Level
		logCfg.Encoding = cfg.Logger.Encoding
	}
	appLogger := logger.New(logCfg)
	defer appLogger.Sync()

	db, err := postgres.New(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("connected to postgres", zap.String("db_name", cfg.Postgres.DBName))

	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("could not connect to redis, caching and locks disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLogger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	brokerCfg := &broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	}
	producer := broker.NewProducer(brokerCfg)
	defer producer.Close()
	consumer := broker.NewConsumer(brokerCfg)
	defer consumer.Close()
	appLogger.Info("connected to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("could not connect to elasticsearch, search falls back to the database", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("connected to elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	catRepo := catRepoPkg.NewPGRepository(db)
	stockRepo := stockRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)

	notifier := notify.NewKafkaNotifier(producer, func() string { return uuid.New().String() }, appLogger)

	catUC := catUCPkg.NewProductUseCase(catRepo, redisClient, esClient, appLogger)
	stockUC := stockUCPkg.NewStockUseCase(stockRepo, redisClient, appLogger)
	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, catRepo, notifier, appLogger)

	mailer := notify.NewLogMailer(appLogger)
	notifyListener := notifyListenerPkg.NewNotificationListener(consumer, mailer, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifyListener.Start(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	catH.NewProductHandler(catUC, appLogger).RegisterRoutes(mux)
	stockH.NewStockHandler(stockUC, appLogger).RegisterRoutes(mux)
	orderH.NewOrderHandler(orderUC, appLogger).RegisterRoutes(mux)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	server := &http.Server{
		Addr:              port,
		Handler:           httpapi.RequestLogger(appLogger, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("starting http server", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("shutdown error", zap.Error(err))
	}
	appLogger.Info("server stopped")
}
