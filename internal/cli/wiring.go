package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"ranczo-quiz/internal/app"
	"ranczo-quiz/internal/bank"
	"ranczo-quiz/internal/config"
	"ranczo-quiz/internal/infra/file"
	"ranczo-quiz/internal/infra/memory"
	pgloader "ranczo-quiz/internal/infra/postgres"
	rediscache "ranczo-quiz/internal/infra/redis"
	"ranczo-quiz/internal/infra/sqlite"
	"ranczo-quiz/internal/logging"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// runtime holds everything a command needs, built once from config.
type runtime struct {
	cfg      config.Config
	log      *logrus.Logger
	engine   *app.Engine
	progress *app.ProgressionStore
	bank     app.BankRepository
	closers  []func() error
}

func buildRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, redisClient.Close)
	}

	gateway, err := rt.openGateway(ctx, redisClient)
	if err != nil {
		rt.close()
		return nil, err
	}

	var loader memory.BankLoader = bank.Loader{Path: cfg.Quiz.BankPath}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, func() error { pool.Close(); return nil })
		loader = pgloader.NewBankLoader(pool)
	}

	bankTTL := config.TTLDuration(cfg.Quiz.BankTTL, 10*time.Minute)
	if redisClient != nil {
		rt.bank = rediscache.NewBankCache(redisClient, loader, cfg.Redis.Prefix, bankTTL)
	} else {
		rt.bank = memory.NewBankRepository(loader, bankTTL)
	}

	writer := app.NewWriteBehind(gateway, config.TTLDuration(cfg.Quiz.WriteTimeout, 5*time.Second), log)
	rt.progress = app.NewProgressionStore(gateway, writer, log, app.WithLocation(cfg.Location()))
	settings := app.NewSettingsStore(gateway, writer, log)
	rt.engine = app.NewEngine(rt.bank, rt.progress, settings, writer, log)

	if report := rt.engine.Init(ctx); !report.OK() {
		log.WithField("keys", report.Degraded).Warn("some progress could not be loaded; continuing with defaults")
	}
	log.WithFields(logrus.Fields{
		"storage":  cfg.Storage.Driver,
		"timezone": cfg.Location().String(),
	}).Debug("runtime ready")
	return rt, nil
}

func (rt *runtime) openGateway(ctx context.Context, redisClient *redis.Client) (app.Gateway, error) {
	switch rt.cfg.Storage.Driver {
	case "memory":
		return memory.NewGateway(), nil
	case "", "file":
		return file.NewGateway(rt.cfg.Storage.Dir)
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("storage driver redis requires redis.addr")
		}
		return rediscache.NewGateway(redisClient, rt.cfg.Redis.Prefix), nil
	case "sqlite":
		gw, err := sqlite.Open(ctx, rt.cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, gw.Close)
		return gw, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", rt.cfg.Storage.Driver)
	}
}

// shutdown drains pending writes before releasing connections.
func (rt *runtime) shutdown(ctx context.Context) error {
	err := rt.engine.Close(ctx)
	rt.close()
	return err
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.WithError(err).Warn("close resource")
		}
	}
	rt.closers = nil
}
