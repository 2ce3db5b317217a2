package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Options selects and configures a cache backend.
type Options struct {
	Backend       string // file (default), redis, mongo or none
	Dir           string // file backend; defaults to [DefaultDir]
	RedisAddr     string
	MongoURI      string
	MongoDatabase string
}

// Open builds the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileCache(dir)
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis cache: no address configured")
		}
		return NewRedisCache(ctx, opts.RedisAddr)
	case BackendMongo:
		if opts.MongoURI == "" {
			return nil, fmt.Errorf("mongo cache: no URI configured")
		}
		db := opts.MongoDatabase
		if db == "" {
			db = "mvnresolve"
		}
		return NewMongoCache(ctx, opts.MongoURI, db)
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
