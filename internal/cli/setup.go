// Package cli — setup.go holds the shared wiring the mapping and
// listing commands go through: locate the configuration directories,
// load the snapshot, and open (or rebuild) the compiled cache.
package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/JohanChane/cmdbridge/internal/bridge"
	"github.com/JohanChane/cmdbridge/internal/cache"
	"github.com/JohanChane/cmdbridge/internal/config"
)

// loadSnapshot resolves the default paths and loads the full
// configuration tree.
func loadSnapshot() (config.Paths, *config.Snapshot, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return config.Paths{}, nil, err
	}
	snap, err := config.LoadSnapshot(paths)
	if err != nil {
		return config.Paths{}, nil, err
	}
	return paths, snap, nil
}

// openCache returns a compiled cache matching the snapshot. The cache
// on disk is used when its fingerprint matches; a missing or stale
// cache is rebuilt in memory so mapping never works from outdated
// templates. Only `cache refresh` persists a build.
func openCache(ctx context.Context, paths config.Paths, snap *config.Snapshot) (*cache.Cache, error) {
	c, err := cache.Open(paths)
	if errors.Is(err, cache.ErrNoCache) {
		slog.Debug("no compiled cache on disk, building in memory")
		return cache.Build(ctx, snap, slog.Default())
	}
	if err != nil {
		return nil, err
	}

	if c.Fingerprint() != cache.Fingerprint(snap.Files) {
		slog.Warn("compiled cache is stale, rebuilding in memory; run `cmdbridge cache refresh` to persist")
		return cache.Build(ctx, snap, slog.Default())
	}
	slog.Debug("opened compiled cache",
		"built_at", c.BuiltAt(),
		"sets", len(c.Sets()),
	)
	return c, nil
}

// openBridge composes the full pipeline: paths, snapshot, cache,
// bridge.
func openBridge(ctx context.Context) (*bridge.Bridge, error) {
	paths, snap, err := loadSnapshot()
	if err != nil {
		return nil, err
	}
	c, err := openCache(ctx, paths, snap)
	if err != nil {
		return nil, err
	}
	return bridge.New(snap, c, slog.Default()), nil
}

// snapshotForCompletion loads the snapshot for dynamic shell
// completion, swallowing errors: completion must never break the
// shell, so a failed load completes to nothing.
func snapshotForCompletion() *config.Snapshot {
	_, snap, err := loadSnapshot()
	if err != nil {
		return nil
	}
	return snap
}
