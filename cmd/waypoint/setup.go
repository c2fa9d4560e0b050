package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/manifest"
	"github.com/vango-dev/waypoint/pkg/modules"
)

// app is everything a command needs once config and manifest are loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  modules.Store
	man    *manifest.Manifest
}

// persistentBindings maps config keys to the root command's flags.
var persistentBindings = map[string]string{
	"manifest":   "manifest",
	"log.level":  "log-level",
	"log.format": "log-format",
}

// loadConfig layers config file, environment and the flags named in
// bindings (config key -> flag name).
func loadConfig(cmd *cobra.Command, flags *globalFlags, bindings map[string]string) (*config.Config, error) {
	l := config.NewLoader()
	for _, b := range []map[string]string{persistentBindings, bindings} {
		for key, name := range b {
			if err := l.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
				return nil, err
			}
		}
	}
	return l.Load(flags.config, ".")
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore returns the module store selected by store.kind.
func openStore(ctx context.Context, cfg *config.Config) (modules.Store, error) {
	switch cfg.Store.Kind {
	case config.StoreS3:
		s, err := modules.NewS3StoreFromEnv(ctx, cfg.Store.Bucket, cfg.Store.Prefix, cfg.Store.Region)
		if err != nil {
			return nil, errors.New("W120").
				WithDetail("AWS configuration could not be loaded for the s3 store.").
				Wrap(err)
		}
		return s.WithTimeout(cfg.Store.Timeout), nil
	case config.StoreFS:
		return modules.NewDirStore(cfg.StoreDir()), nil
	default:
		return nil, errors.New("W121").WithMessage("Unsupported module store %q", cfg.Store.Kind)
	}
}

// loadManifest reads the manifest from disk for the fs store, or from the
// bucket for the s3 store, where the manifest path is an object key.
func loadManifest(ctx context.Context, cfg *config.Config, store modules.Store) (*manifest.Manifest, error) {
	if cfg.Store.Kind == config.StoreS3 {
		return manifest.Fetch(ctx, store, cfg.Manifest)
	}
	return manifest.Load(cfg.ManifestPath())
}

// setup loads config, logger, store and manifest for cmd.
func setup(cmd *cobra.Command, flags *globalFlags, bindings map[string]string) (*app, error) {
	cfg, err := loadConfig(cmd, flags, bindings)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	man, err := loadManifest(ctx, cfg, store)
	if err != nil {
		return nil, err
	}
	logger.Debug("manifest loaded",
		"routes", len(man.Routes),
		"nodes", len(man.Nodes),
		"store", cfg.Store.Kind)

	return &app{cfg: cfg, logger: logger, store: store, man: man}, nil
}

// build wires the manifest to the store.
func (a *app) build(opts ...manifest.BuildOption) (*manifest.Bundle, error) {
	loader := modules.NewLoader(a.store, a.man.MimeTypes)
	opts = append([]manifest.BuildOption{manifest.WithLogger(a.logger)}, opts...)
	return manifest.Build(a.man, loader, opts...)
}
