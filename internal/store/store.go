// Package store defines the key-value backends the sports catalog persists through.
package store

import (
	"context"

	"github.com/MrSnakeDoc/huddle/internal/catalog"
)

// Backend names accepted by HUDDLE_STORAGE_BACKEND.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Backend is a catalog.Persistence with an atomic read-modify-write that can
// also be health-checked and released.
type Backend interface {
	catalog.Persistence
	catalog.Modifier
	Ping(ctx context.Context) error
	Close() error
}
