package container

import (
	"context"
	"fmt"
	"time"

	"libfaq/crawler/internal/client"
	"libfaq/crawler/internal/config"
	"libfaq/crawler/internal/crawl"
	"libfaq/crawler/internal/domain"
	"libfaq/crawler/internal/menu"
	"libfaq/crawler/internal/proxy"
	"libfaq/crawler/internal/repository"
	"libfaq/crawler/internal/service"
	"libfaq/crawler/internal/state"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config       *config.Config
	Fetcher      client.Fetcher
	MenuStore    repository.Store[domain.MenuEntry]
	DetailStore  repository.Store[domain.DetailRecord]
	StateManager state.StateManager

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	proxySupplier := proxy.NewProxySupplier(ctx, cfg.Fetcher.Proxies, cfg.Site.BaseURL)
	container.Fetcher = client.NewFetcher(cfg.Fetcher, proxySupplier)

	if err := container.initStores(ctx); err != nil {
		container.Close()
		return nil, err
	}

	if err := container.initState(ctx); err != nil {
		container.Close()
		return nil, err
	}

	discoverer, err := menu.NewDiscoverer(cfg.Site, container.Fetcher)
	if err != nil {
		container.Close()
		return nil, err
	}

	crawler, err := crawl.NewCrawler(cfg.Site, cfg.Crawl, container.Fetcher)
	if err != nil {
		container.Close()
		return nil, err
	}

	ids, err := snowflake.NewNode(1)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to create run id generator: %w", err)
	}

	container.Service = service.NewService(
		discoverer,
		crawler,
		container.MenuStore,
		container.DetailStore,
		container.StateManager,
		ids,
		time.Duration(cfg.Crawl.Deadline)*time.Second,
	)

	return container, nil
}

func (c *Container) initStores(ctx context.Context) error {
	storage := c.Config.Storage
	switch storage.Driver {
	case "postgres":
		db, err := pgxpool.New(ctx,
			fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				c.Config.Database.Host,
				c.Config.Database.Port,
				c.Config.Database.User,
				c.Config.Database.Password,
				c.Config.Database.Name,
			))
		if err != nil {
			return fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		c.db = db

		if err := repository.EnsureSchema(ctx, db); err != nil {
			return err
		}
		log.Info("✅ Connected to Postgres successfully")

		c.MenuStore = repository.NewPostgresStore[domain.MenuEntry](db, domain.SnapshotMenu.String())
		c.DetailStore = repository.NewPostgresStore[domain.DetailRecord](db, domain.SnapshotDetail.String())
	default:
		c.MenuStore = repository.NewFileStore[domain.MenuEntry](storage.Directory, storage.Filenames["menu"], storage.Format)
		c.DetailStore = repository.NewFileStore[domain.DetailRecord](storage.Directory, storage.Filenames["detail"], storage.Format)
	}
	return nil
}

func (c *Container) initState(ctx context.Context) error {
	if !c.Config.Redis.Enabled {
		c.StateManager = state.NewMemoryStateManager()
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", c.Config.Redis.Host, c.Config.Redis.Port),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.Database,
	})
	c.redis = rdb

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("✅ Connected to Redis successfully")

	c.StateManager = state.NewRedisStateManager(rdb)
	return nil
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close Redis client: %w", err)
		}
	}
	log.Debug("Container shut down")
	return nil
}
