package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
	"github.com/linemk/tkani-shop/internal/cache"
	"github.com/linemk/tkani-shop/internal/config"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB
	Cache  cache.Cache
}

// NewApp создаёт новый экземпляр App: подключение к Postgres и Redis.
// Если Redis недоступен, приложение работает на in-memory кэше
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD environment variable is not set")
	}
	// реализуем подключение к БД через DSN
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Database.User,
		dbPassword,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var c cache.Cache
	redisCache, err := cache.NewRedisCache(log, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Warn("redis unavailable, falling back to in-memory cache", slog.Any("error", err))
		c = cache.NewMemoryCache()
	} else {
		c = redisCache
	}

	app := &App{
		Config: cfg,
		Logger: log,
		DB:     db,
		Cache:  c,
	}

	return app, nil
}

// Close освобождает ресурсы приложения
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("failed to close database", slog.Any("error", err))
		}
	}
	if rc, ok := a.Cache.(*cache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			a.Logger.Error("failed to close redis", slog.Any("error", err))
		}
	}
}
