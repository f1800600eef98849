package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/admin"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/events"
	v1 "github.com/dmehra2102/prod-golang-projects/carelink/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/service"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/tracer"
)

const limiterSweepInterval = 5 * time.Minute

func runServer(parent context.Context, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	defer closeDB(db, log)

	if migrate {
		if err := database.Migrate(db, log); err != nil {
			return err
		}
	}

	m := metrics.NewCollector("carelink")
	if sqlDB, err := db.DB(); err == nil {
		if err := m.RegisterDB(sqlDB, cfg.Database.Name); err != nil {
			log.Warn("db stats collector not registered", zap.Error(err))
		}
	}

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App)
	if err != nil {
		return fmt.Errorf("initialising tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	repos := repository.New(db)
	auditSvc := service.NewAuditService(repos.Audit, log, m)
	defer auditSvc.Shutdown()

	bus := events.NewBus(log, m)
	notifications := service.NewNotificationService(repos.Notifications, m, log)
	notifications.Subscribe(bus)
	if cfg.Kafka.Enabled() {
		sink := events.NewKafkaSink(cfg.Kafka, log)
		defer func() {
			if err := sink.Close(); err != nil {
				log.Warn("closing kafka sink", zap.Error(err))
			}
		}()
		bus.Subscribe("kafka", sink.Handle)
		log.Info("exporting events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	jwtManager := auth.NewJWTManager(cfg.JWT)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := v1.NewRouter(v1.Deps{
		Config:  cfg,
		Log:     log,
		Metrics: m,
		Tokens:  jwtManager,
		Health: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Auth:          service.NewAuthService(repos.Users, jwtManager, auditSvc, m, cfg.JWT.Issuer, log),
		Profiles:      service.NewProfileService(repos.Users, repos.Profiles, repos.Connections, auditSvc, log),
		Connections:   service.NewConnectionService(repos.Connections, repos.Profiles, bus, auditSvc, m, log),
		Clinical:      service.NewClinicalService(repos.Connections, repos.Diagnoses, repos.Prescriptions, repos.Medications, bus, auditSvc, m, log),
		Medications:   service.NewMedicationService(repos.Medications, auditSvc, log),
		Notifications: notifications,
		Admin:         admin.NewRegistry(db),
	})

	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				router.SweepLimiters()
			}
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}
