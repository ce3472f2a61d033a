package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/tradefin/cfaam/internal/agreement"
	"github.com/tradefin/cfaam/internal/notify"
	"github.com/tradefin/cfaam/internal/reminder"
	"github.com/tradefin/cfaam/pkg/config"
	"github.com/tradefin/cfaam/pkg/database"
	"github.com/tradefin/cfaam/pkg/logger"
	"github.com/tradefin/cfaam/pkg/redis"
)

// engineDeps bundles the constructed collaborators every command needs.
// Dependencies are built here and passed in explicitly; nothing holds
// process-global clients.
type engineDeps struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	rdb     *redis.Client
	cache   *redis.Cache
	limiter *redis.RateLimiter
	repo    *agreement.Repository
	service *reminder.Service
}

func (d *engineDeps) Close() {
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}

// initEngine builds the full engine stack from configuration. Any failure
// here is a configuration error: the command exits without sending anything.
func initEngine() (*engineDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	repo := agreement.NewRepository(db.Pool)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(ctx); err != nil {
		rdb.Close()
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	mailer, err := notify.NewMailer(cfg, log)
	if err != nil {
		rdb.Close()
		db.Close()
		return nil, fmt.Errorf("init mailer: %w", err)
	}

	dispatcher := notify.NewDispatcher(mailer, cfg.Mail.SendsPerSecond, log)
	scanner := reminder.NewScanner(repo, dispatcher, log)

	cache := redis.NewCache(rdb, "cfaam")
	limiter := redis.NewRateLimiter(rdb, "cfaam")
	service := reminder.NewService(scanner, cache, log)

	return &engineDeps{
		cfg:     cfg,
		log:     log,
		db:      db,
		rdb:     rdb,
		cache:   cache,
		limiter: limiter,
		repo:    repo,
		service: service,
	}, nil
}
