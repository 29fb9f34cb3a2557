package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"github.com/youssefloay/comebac-sub002/internal/admission/handler"
	"github.com/youssefloay/comebac-sub002/internal/admission/metrics"
	"github.com/youssefloay/comebac-sub002/internal/admission/ports"
	capacitysvc "github.com/youssefloay/comebac-sub002/internal/admission/service/capacity"
	checkinsvc "github.com/youssefloay/comebac-sub002/internal/admission/service/checkin"
	consolesvc "github.com/youssefloay/comebac-sub002/internal/admission/service/console"
	gatewaysvc "github.com/youssefloay/comebac-sub002/internal/admission/service/gateway"
	guardsvc "github.com/youssefloay/comebac-sub002/internal/admission/service/guard"
	lifecyclesvc "github.com/youssefloay/comebac-sub002/internal/admission/service/lifecycle"
	availabilitystore "github.com/youssefloay/comebac-sub002/internal/admission/store/availability"
	capacitystore "github.com/youssefloay/comebac-sub002/internal/admission/store/capacity"
	requeststore "github.com/youssefloay/comebac-sub002/internal/admission/store/request"
	tokenstore "github.com/youssefloay/comebac-sub002/internal/admission/store/token"
	"github.com/youssefloay/comebac-sub002/internal/catalog"
	cataloghandler "github.com/youssefloay/comebac-sub002/internal/catalog/handler"
	"github.com/youssefloay/comebac-sub002/internal/platform/config"
	"github.com/youssefloay/comebac-sub002/internal/platform/httpserver"
	"github.com/youssefloay/comebac-sub002/internal/platform/logger"
	redisplatform "github.com/youssefloay/comebac-sub002/internal/platform/redis"
	"github.com/youssefloay/comebac-sub002/pkg/platform/audit"
	"github.com/youssefloay/comebac-sub002/pkg/platform/middleware/kioskauth"
	"github.com/youssefloay/comebac-sub002/pkg/platform/middleware/staffauth"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("admission service exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when configured, in-memory for single-node and dev.
	var (
		requests ports.RequestStore
		limits   ports.CapacityStore
		tokens   ports.TokenStore
		db       *sql.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		requests = requeststore.NewPostgres(db)
		limits = capacitystore.NewPostgres(db)
		tokens = tokenstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		requests = requeststore.NewInMemoryStore()
		limits = capacitystore.NewInMemoryStore()
		tokens = tokenstore.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("availability cache enabled")
	}

	// Audit sink: Kafka in production, in-memory store otherwise so audit
	// events are never silently dropped.
	var publisher ports.AuditPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			return fmt.Errorf("connect kafka audit sink: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = kafkaPublisher.Close(closeCtx)
		}()
		publisher = kafkaPublisher
		log.Info("audit events flow to kafka", "topic", cfg.Kafka.AuditTopic)
	} else {
		publisher = audit.NewStorePublisher(audit.NewInMemoryStore())
	}

	m := metrics.New()

	capacityOpts := []capacitysvc.Option{
		capacitysvc.WithLogger(log),
		capacitysvc.WithAuditPublisher(publisher),
		capacitysvc.WithMetrics(m),
	}
	if redisClient != nil {
		cache := availabilitystore.NewRedisCache(redisClient.Client, availabilitystore.DefaultTTL)
		capacityOpts = append(capacityOpts, capacitysvc.WithCache(cache))
	}
	capacity, err := capacitysvc.New(limits, requests, cfg.DefaultCapacityLimit, capacityOpts...)
	if err != nil {
		return fmt.Errorf("build capacity service: %w", err)
	}

	guard, err := guardsvc.New(requests,
		guardsvc.WithLogger(log),
		guardsvc.WithAuditPublisher(publisher),
		guardsvc.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("build duplicate guard: %w", err)
	}

	checkin, err := checkinsvc.New(requests, guard,
		checkinsvc.WithLogger(log),
		checkinsvc.WithAuditPublisher(publisher),
		checkinsvc.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("build checkin service: %w", err)
	}

	lifecycle, err := lifecyclesvc.New(requests, tokens, capacity,
		lifecyclesvc.WithLogger(log),
		lifecyclesvc.WithAuditPublisher(publisher),
		lifecyclesvc.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("build lifecycle service: %w", err)
	}

	gateway, err := gatewaysvc.New(tokens, requests, checkin,
		gatewaysvc.WithLogger(log),
		gatewaysvc.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("build token gateway: %w", err)
	}

	console, err := consolesvc.New(guard, capacity, lifecycle, checkin,
		consolesvc.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("build checkin console: %w", err)
	}

	catalogStore, err := loadCatalogStore(cfg.MatchSeedFile)
	if err != nil {
		return fmt.Errorf("seed match catalog: %w", err)
	}
	catalogService, err := catalog.NewService(catalogStore, capacity)
	if err != nil {
		return fmt.Errorf("build catalog service: %w", err)
	}

	staff := staffauth.RequireStaff(staffauth.NewValidator([]byte(cfg.StaffJWTSigningKey)), log)
	kiosks := kioskauth.NewVerifier(cfg.KioskAPIKeyHashes)
	if kiosks.Enabled() {
		log.Info("kiosk API keys configured", "keys", len(cfg.KioskAPIKeyHashes))
	}
	router := newRouter(routerDeps{
		logger:    log,
		admission: handler.New(lifecycle, capacity, gateway, console, log),
		catalog:   cataloghandler.New(catalogService, log),
		staff:     staff,
		gate:      kioskauth.AllowKiosk(kiosks, staff, log),
		db:        db,
		redis:     redisClient,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting admission service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
