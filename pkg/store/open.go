package store

import (
	"context"
	"fmt"
	"strings"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the store for driver. dsn is a file path for sqlite and a
// connection URL for postgres; memory ignores it.
func Open(ctx context.Context, driver, dsn string, metrics OperationRecorder) (ModelStore, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(metrics), nil
	case DriverSQLite:
		return OpenSQLite(ctx, dsn, metrics)
	case DriverPostgres:
		return NewPGStore(ctx, dsn, metrics)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// ParseTarget splits a "driver:dsn" flag value such as "sqlite:models.db".
func ParseTarget(target string) (driver, dsn string) {
	driver, dsn, ok := strings.Cut(target, ":")
	if !ok {
		return target, ""
	}
	if driver == DriverPostgres {
		// postgres URLs carry their own scheme.
		return driver, target
	}
	return driver, dsn
}
