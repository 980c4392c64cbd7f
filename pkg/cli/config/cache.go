package config

import (
	"log/slog"
	"time"

	"github.com/hairlab/stylist/pkg/repository/sqlite"
	"github.com/hairlab/stylist/pkg/service/cache"
	"github.com/hairlab/stylist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Cache holds the recommendation cache settings
type Cache struct {
	ttl        time.Duration
	maxEntries int64
	sqlitePath string
}

func (x *Cache) Flags() []cli.Flag {
	category := "Cache"
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "cache-ttl",
			Usage:       "How long a recommendation is served from cache",
			Category:    category,
			Value:       cache.DefaultTTL,
			Sources:     cli.EnvVars("STYLIST_CACHE_TTL"),
			Destination: &x.ttl,
		},
		&cli.Int64Flag{
			Name:        "cache-max-entries",
			Usage:       "Maximum number of recommendations kept in memory",
			Category:    category,
			Value:       cache.DefaultMaxEntries,
			Sources:     cli.EnvVars("STYLIST_CACHE_MAX_ENTRIES"),
			Destination: &x.maxEntries,
		},
		&cli.StringFlag{
			Name:        "cache-sqlite-path",
			Usage:       "SQLite file that keeps cached recommendations across restarts (empty to disable)",
			Category:    category,
			Sources:     cli.EnvVars("STYLIST_CACHE_SQLITE_PATH"),
			Destination: &x.sqlitePath,
		},
	}
}

func (x Cache) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("ttl", x.ttl),
		slog.Int64("max_entries", x.maxEntries),
		slog.String("sqlite_path", x.sqlitePath),
	)
}

// Configure builds the recommendation cache. The returned store is nil when no SQLite path is
// set; otherwise the caller closes it.
func (x *Cache) Configure() (*cache.Cache, *sqlite.CacheStore, error) {
	opts := []cache.Option{
		cache.WithTTL(x.ttl),
		cache.WithMaxEntries(int(x.maxEntries)),
	}

	var store *sqlite.CacheStore
	if x.sqlitePath != "" {
		s, err := sqlite.New(x.sqlitePath)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to open cache store", goerr.V("path", x.sqlitePath))
		}
		store = s
		opts = append(opts, cache.WithStore(store))
		logging.Default().Info("Persistent recommendation cache enabled", "path", x.sqlitePath)
	}

	c, err := cache.New(opts...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, goerr.Wrap(err, "failed to create recommendation cache")
	}
	return c, store, nil
}
