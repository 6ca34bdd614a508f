package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"

	"invwe-data/common/database"
	"invwe-data/common/logger"
	commonmqtt "invwe-data/common/mqtt"
	commonredis "invwe-data/common/redis"
	"invwe-data/internal/auth"
	"invwe-data/internal/config"
	dbmigrate "invwe-data/internal/db"
	httpapi "invwe-data/internal/http"
	"invwe-data/internal/metrics"
	alertmqtt "invwe-data/internal/mqtt"
	"invwe-data/internal/repository"
	"invwe-data/internal/service"
	"invwe-data/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "invwe-data",
		zap.String("auth_mode", string(cfg.Auth.Mode)),
		zap.Bool("db_enabled", cfg.DBEnabled),
	)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	// Repositories：DB 可用时用 Postgres，否则回退到内存 repo
	var (
		db          *sql.DB
		tenants     repository.TenantsRepository
		memberships repository.MembershipsRepository
		stores      repository.StoresRepository
		products    repository.ProductsRepository
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			lg.Info("DB enabled for invwe-data")
		} else {
			lg.Warn("DB enabled but connection failed, falling back to memory repos", zap.Error(err))
		}
	}
	if db != nil {
		if cfg.RunMigrations {
			if err := dbmigrate.RunMigrations(db); err != nil {
				lg.Fatal("Failed to run migrations", zap.Error(err))
			}
		}
		tenants = repository.NewPostgresTenantsRepository(db)
		memberships = repository.NewPostgresMembershipsRepository(db)
		stores = repository.NewPostgresStoresRepository(db)
		products = repository.NewPostgresProductsRepository(db)
	} else {
		memTenants := repository.NewMemoryTenantsRepo()
		memInventory := repository.NewMemoryInventoryRepo()
		if cfg.SeedDemoData {
			seed, err := repository.SeedDemoData(ctx, memTenants, memInventory)
			if err != nil {
				lg.Fatal("Failed to seed demo data", zap.Error(err))
			}
			lg.Info("Seeded demo data",
				zap.String("tenant_id", seed.TenantID),
				zap.Strings("store_ids", seed.StoreIDs),
			)
		}
		tenants = memTenants
		memberships, stores, products = memInventory, memInventory, memInventory
	}

	// Redis：session 缓存与告警 Stream 共用，连接失败时各自降级
	var redisClient *commonredis.Client
	if cfg.NeedsRedis() {
		if c, err := commonredis.Connect(ctx, &cfg.Redis); err == nil {
			redisClient = c
		} else {
			lg.Warn("Redis unavailable", zap.Error(err))
		}
	}

	principals, err := newPrincipalResolver(ctx, cfg, redisClient, lg)
	if err != nil {
		lg.Fatal("Failed to configure auth", zap.Error(err))
	}

	// 低库存告警：MQTT / Redis Stream 都不可用时只写日志
	var (
		sinks      service.FanoutStockAlertNotifier
		mqttClient *commonmqtt.Client
	)
	if cfg.MQTT.Enabled {
		if c, err := commonmqtt.NewClient(&cfg.MQTT.MQTTConfig); err == nil {
			mqttClient = c
			sinks = append(sinks, alertmqtt.NewStockAlertPublisher(c, cfg.MQTT.TopicPrefix, lg))
			lg.Info("MQTT stock alerts enabled", zap.String("broker", cfg.MQTT.Broker))
		} else {
			lg.Warn("MQTT enabled but connection failed", zap.Error(err))
		}
	}
	if cfg.AlertStream.Enabled && redisClient != nil {
		sinks = append(sinks, store.NewStockAlertStream(redisClient, cfg.AlertStream.Stream, cfg.AlertStream.MaxLen, lg))
		lg.Info("Redis stream stock alerts enabled", zap.String("stream", cfg.AlertStream.Stream))
	}
	var notifier service.StockAlertNotifier = service.NewLogStockAlertNotifier(lg)
	switch len(sinks) {
	case 0:
	case 1:
		notifier = sinks[0]
	default:
		notifier = sinks
	}

	access := service.NewTenantAccessService(tenants, memberships, stores, m, lg)
	directory := service.NewStoreDirectoryService(tenants, memberships, stores, lg)
	inventory := service.NewInventoryService(products, notifier, m, lg)

	guard := httpapi.NewAccessGuard(principals, access, lg)
	guard.RedirectPaths = map[service.RedirectTarget]string{
		service.RedirectSignIn:          cfg.Redirects.SignIn,
		service.RedirectSelectInventory: cfg.Redirects.SelectInventory,
		service.RedirectPendingApproval: cfg.Redirects.PendingApproval,
	}

	router := httpapi.NewRouter(lg)
	router.RegisterInventoryRoutes(guard, httpapi.NewInventoryHandler(guard, directory, inventory, lg))
	if cfg.AdminAPIEnabled {
		router.RegisterAdminTenantRoutes(guard, cfg.AdminUserIDs, httpapi.NewTenantsHandler(tenants, lg))
	}
	var ping func(context.Context) error
	if db != nil {
		ping = db.PingContext
	}
	router.RegisterOpsRoutes(ping, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	handler := httpapi.Chain(router,
		httpapi.RequestID,
		httpapi.Timeout(cfg.HTTP.RequestTimeout),
		httpapi.AccessLog(lg, m),
	)
	srv := service.NewServer(cfg.HTTP.Addr, handler, cfg.HTTP.RequestTimeout, cfg.HTTP.ShutdownTimeout, lg)
	if err := srv.Run(ctx); err != nil {
		lg.Error("HTTP server failed", zap.Error(err))
	}
	stop()

	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	_ = commonredis.Close(redisClient)
	if db != nil {
		_ = database.Close(db)
	}
}

// newPrincipalResolver 按 AUTH_MODE 构建登录用户解析器
func newPrincipalResolver(ctx context.Context, cfg *config.Config, redisClient *commonredis.Client, lg *zap.Logger) (auth.PrincipalResolver, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeJWT:
		v, err := auth.NewHS256Validator(cfg.Auth.JWTSecret, cfg.Auth.JWTAudience)
		if err != nil {
			return nil, err
		}
		return auth.NewTokenResolver(v, lg), nil

	case config.AuthModeOIDC:
		v, err := auth.NewOIDCValidator(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCJWKSURL, cfg.Auth.OIDCAudience)
		if err != nil {
			return nil, err
		}
		return auth.NewTokenResolver(v, lg), nil

	case config.AuthModeSession:
		var kv store.KV = store.NewMemoryKV()
		if redisClient != nil {
			kv = store.NewRedisKV(redisClient)
		} else {
			lg.Warn("Caching sessions in memory")
		}
		idp := auth.NewIdPClient(cfg.Auth.IdPBaseURL, cfg.Auth.IdPAPIKey, lg)
		return auth.NewSessionResolver(kv, idp, cfg.Auth.SessionTTL, lg), nil

	default:
		lg.Warn("Using trusted header auth (X-User-Id); do not expose without a gateway")
		return auth.HeaderResolver{}, nil
	}
}
