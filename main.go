package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bondoutfit/cmd"
	"bondoutfit/internal/data/repository"
	"bondoutfit/internal/usecase"
	"bondoutfit/internal/wire"
	"bondoutfit/pkg/database"
	"bondoutfit/pkg/lock"
	"bondoutfit/pkg/metrics"
	"bondoutfit/pkg/notify"
	"bondoutfit/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("timezone", config.App.Timezone),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("Migrations applied", zap.Strings("files", applied))
	}

	repos := repository.NewRepository(db, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("bondoutfit", reg)

	var locker lock.Locker = lock.NewLocalLocker()
	if config.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		locker = lock.NewRedisLocker(rdb, config.App.Name+":lock:", logger)
		logger.Info("Redis connected, sweep lock is shared", zap.String("addr", config.Redis.Addr))
	} else {
		logger.Warn("REDIS_ADDR is not set, sweep lock is process-local")
	}

	sender := notify.NewRouter()
	if config.Email.IsConfigured() {
		sender.Register(notify.ChannelEmail, notify.NewSMTPSender(config.Email))
	} else {
		logger.Warn("SMTP is not configured, emails are written to the log")
		sender.Register(notify.ChannelEmail, notify.NewLogSender(logger))
	}
	if config.SMS.Enabled {
		sender.Register(notify.ChannelSMS, notify.NewLogSender(logger))
	}

	service, err := usecase.NewService(repos, config, usecase.Dependencies{
		Sender:  sender,
		Locker:  locker,
		Metrics: m,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to build services", zap.Error(err))
	}

	if config.Cron.SweepInterval > 0 {
		go usecase.RunSweepEvery(ctx, service.Sweep, config.Cron.SweepInterval, logger)
	}

	app := wire.Wiring(repos, service, config, wire.Observability{Metrics: m, Gatherer: reg}, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}

	service.Notifier.Wait()
	logger.Info("Shutdown complete")
}
