// Package worker provides initialization and setup utilities for Temporal workers.
// This package contains startup wiring that should be executed once during
// worker boot, keeping the step packages focused on pure activity logic.
package worker

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ahrav/go-greenlight/internal/media"
	"github.com/ahrav/go-greenlight/internal/store"
)

// Config carries everything a worker process needs to come up: the Temporal
// connection, the item store backing, the media root, and the callback token
// TTL applied to new review requests.
type Config struct {
	// TemporalHostPort is the frontend address, e.g. "localhost:7233".
	TemporalHostPort string
	// TemporalNamespace selects the Temporal namespace. Defaults to "default".
	TemporalNamespace string
	// TaskQueue is the queue both the worker and workflow starters use.
	TaskQueue string

	// StoreDSN is the SQLite DSN for the item store. Empty selects the
	// in-memory store, which only makes sense for local development.
	StoreDSN string
	// MediaDir is the filesystem root for staged and published media.
	// Empty selects the in-memory media store.
	MediaDir string

	// TokenTTL bounds how long a review callback token stays live.
	// Zero selects the review package default.
	TokenTTL time.Duration

	// MetricsAddr is the listen address for the Prometheus endpoint.
	// Empty disables the endpoint.
	MetricsAddr string
}

// DefaultTaskQueue is used when no queue is configured.
const DefaultTaskQueue = "greenlight-approvals"

// ConfigFromViper reads worker configuration from the process viper instance.
// Callers are expected to have bound flags and the environment beforehand.
func ConfigFromViper() Config {
	cfg := Config{
		TemporalHostPort:  strings.TrimSpace(viper.GetString("temporal.host_port")),
		TemporalNamespace: strings.TrimSpace(viper.GetString("temporal.namespace")),
		TaskQueue:         strings.TrimSpace(viper.GetString("temporal.task_queue")),
		StoreDSN:          strings.TrimSpace(viper.GetString("store.dsn")),
		MediaDir:          strings.TrimSpace(viper.GetString("media.dir")),
		TokenTTL:          viper.GetDuration("review.token_ttl"),
		MetricsAddr:       strings.TrimSpace(viper.GetString("metrics.addr")),
	}
	if cfg.TemporalHostPort == "" {
		cfg.TemporalHostPort = "localhost:7233"
	}
	if cfg.TemporalNamespace == "" {
		cfg.TemporalNamespace = "default"
	}
	if cfg.TaskQueue == "" {
		cfg.TaskQueue = DefaultTaskQueue
	}
	return cfg
}

// InitializeItemStore creates the item store backing for the worker.
// A non-empty DSN selects SQLite; otherwise an in-memory store is returned
// for development and testing.
func InitializeItemStore(dsn string) (store.ItemStore, error) {
	if dsn == "" {
		return store.NewInMemoryItemStore(), nil
	}
	s, err := store.NewSQLiteItemStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize item store: %w", err)
	}
	return s, nil
}

// InitializeMediaStore creates the media store backing for the worker.
// A non-empty dir selects the filesystem store rooted there; otherwise an
// in-memory store is returned for development and testing.
func InitializeMediaStore(dir string) (media.Store, error) {
	if dir == "" {
		return media.NewInMemoryStore(), nil
	}
	s, err := media.NewFSStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}
	return s, nil
}
