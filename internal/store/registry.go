package store

import (
	"context"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"newsdesk/internal/config"
	"newsdesk/internal/model"
)

// Logical store names. Categories share the news store.
const (
	StoreUser     = "user"
	StoreReporter = "reporter"
	StoreAdmin    = "admin"
	StoreNews     = "news"
)

var storeNames = []string{StoreUser, StoreReporter, StoreAdmin, StoreNews}

// Registry owns one Badger handle per logical store plus the Redis client
// backing the news index. Handles are set once by ConnectAll and only read
// afterwards.
type Registry struct {
	dbs   map[string]*badger.DB
	index *redis.Client
}

// ConnectAll opens every store. If any of them fails the ones already opened
// are closed and the error is returned; there is no partial registry.
func ConnectAll(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Registry, error) {
	r := &Registry{dbs: make(map[string]*badger.DB, len(storeNames))}

	for _, name := range storeNames {
		db, err := openBadger(cfg, name)
		if err != nil {
			r.Close()
			return nil, errors.Wrapf(err, "failed to open %s store", name)
		}
		r.dbs[name] = db
		logger.Info("Store connected", zap.String("store", name), zap.Bool("in_memory", cfg.InMemory))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		r.Close()
		return nil, errors.Wrap(err, "failed to connect to redis")
	}
	r.index = rdb
	logger.Info("News index connected", zap.String("redis", cfg.RedisAddr))

	return r, nil
}

func openBadger(cfg config.StorageConfig, name string) (*badger.DB, error) {
	opts := badger.DefaultOptions(filepath.Join(cfg.DataDir, name))
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Silence default logger
	return badger.Open(opts)
}

// Get returns the handle of the named store.
func (r *Registry) Get(name string) (*badger.DB, error) {
	if r == nil {
		return nil, errors.Wrap(ErrNotConnected, name)
	}
	db, ok := r.dbs[name]
	if !ok || db == nil {
		return nil, errors.Wrap(ErrNotConnected, name)
	}
	return db, nil
}

// Index returns the Redis client of the news index.
func (r *Registry) Index() (*redis.Client, error) {
	if r == nil || r.index == nil {
		return nil, errors.Wrap(ErrNotConnected, "news index")
	}
	return r.index, nil
}

// Names lists the connected stores in connection order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	var names []string
	for _, name := range storeNames {
		if _, ok := r.dbs[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Close cleans up connections
func (r *Registry) Close() {
	if r == nil {
		return
	}
	if r.index != nil {
		r.index.Close()
		r.index = nil
	}
	for name, db := range r.dbs {
		db.Close()
		delete(r.dbs, name)
	}
}

// StoreFor maps an account role to the store holding its accounts.
func StoreFor(role model.Role) (string, error) {
	switch role {
	case model.RoleUser:
		return StoreUser, nil
	case model.RoleReporter:
		return StoreReporter, nil
	case model.RoleAdmin:
		return StoreAdmin, nil
	}
	return "", errors.Errorf("unknown role %q", role)
}
