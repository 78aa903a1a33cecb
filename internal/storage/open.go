package storage

import (
	"context"
	"fmt"
	"strings"

	logx "videobreak/pkg/logx"
)

// Store is the history API used by the app and the CLI.
type Store interface {
	AppendRun(ctx context.Context, r PlaybackRun) error
	// RecentRuns returns up to limit runs, newest first. limit <= 0 means all
	// retained runs.
	RecentRuns(ctx context.Context, limit int) ([]PlaybackRun, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	log = log.With(logx.Component("storage"), logx.String("driver", driver))

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}
}
