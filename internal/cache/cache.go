// Package cache holds rendered views for a short time so repeated requests
// within the window are served without touching the database.
//
// A Store keeps raw bytes under string keys with a per-entry TTL. Two
// stores exist: an in-process one for single-instance deployments and a
// Redis one for when several instances must share the window. Gate sits in
// front of a Store and turns it into a read-through cache for any JSON
// encodable value.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Store is a byte cache with per-entry expiry.
type Store interface {
	// Get returns the value and true on a hit. An expired entry is a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear drops every entry this store owns.
	Clear(ctx context.Context) error
}

// Gate is a read-through cache over a Store. A zero or negative TTL turns it
// into a pass-through.
type Gate struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewGate(store Store, ttl time.Duration, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{store: store, ttl: ttl, logger: logger}
}

func (g *Gate) TTL() time.Duration {
	return g.ttl
}

// Clear empties the underlying store. The next Fetch of every key reloads.
func (g *Gate) Clear(ctx context.Context) error {
	if err := g.store.Clear(ctx); err != nil {
		return fmt.Errorf("cache: clearing store: %w", err)
	}
	g.logger.Info("cache cleared")
	return nil
}

// Fetch returns the value cached under key, or calls load, caches its result
// for the gate's TTL and returns it. Store failures are logged and the value
// is loaded directly; a broken cache never fails a request.
func Fetch[T any](ctx context.Context, g *Gate, key string, load func(context.Context) (T, error)) (T, error) {
	if g == nil || g.ttl <= 0 {
		return load(ctx)
	}

	raw, ok, err := g.store.Get(ctx, key)
	if err != nil {
		g.logger.Warn("cache read failed", "key", key, "error", err)
	}
	if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		g.logger.Warn("cache entry undecodable, reloading", "key", key)
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		g.logger.Warn("cache encode failed", "key", key, "error", err)
		return value, nil
	}
	if err := g.store.Set(ctx, key, encoded, g.ttl); err != nil {
		g.logger.Warn("cache write failed", "key", key, "error", err)
	}

	return value, nil
}
