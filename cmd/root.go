package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/adapters"
	"github.com/brettbedarf/simfs/config"
	"github.com/brettbedarf/simfs/filesystem"
	"github.com/brettbedarf/simfs/internal/util"
	"github.com/brettbedarf/simfs/metrics"
	"github.com/brettbedarf/simfs/requests"
)

var rootCmd = &cobra.Command{
	Use:   "simfs",
	Short: "A simulated file system with permissions, corruption and snapshots",
	Long: `simfs keeps a tree of files and folders with owner/group/others permission
bits, random corruption and repair, and whole-tree snapshots.

Without a subcommand it starts an interactive shell. The tree is saved after
every change to the configured store (memory, file, sqlite, postgres or s3).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runShell,
}

func init() {
	registerGlobalFlags(rootCmd)
}

func registerGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", "", "path to a YAML or JSON config file")
	flags.IntP("verbose", "v", config.InfoVerbose, "log verbosity between 1 (error) and 5 (trace)")
	flags.StringP("nodes", "n", "", "node definition file seeding a store that holds no tree yet")
	flags.StringP("user", "u", "", "acting user (default from config, else \"user\")")
	flags.Bool("admin", false, "bypass permission checks")
	flags.Bool("privileged", false, "use group permissions on nodes owned by others")
	flags.String("store", "", "store type: memory, file, sqlite, postgres or s3")
	flags.String("store-path", "", "directory (file) or database file (sqlite) of the store")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address, i.e. :9090")
}

// app is the wired file system shared by every subcommand
type app struct {
	cfg     *config.Config
	fs      *filesystem.FileSystem
	gateway simfs.Gateway
	metrics *http.Server
}

// loadConfig builds the config from the optional file and the flags set on cmd
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	cfg := config.NewDefaultConfig()
	if path, _ := flags.GetString("config"); path != "" {
		fileCfg, err := config.NewConfigFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("config %q: %w", path, err)
		}
		cfg = fileCfg
	}

	override := &config.ConfigOverride{}
	if flags.Changed("verbose") {
		v, _ := flags.GetInt("verbose")
		override.LogLvl = &v
	}
	if flags.Changed("user") {
		u, _ := flags.GetString("user")
		override.Actor = &u
	}
	if flags.Changed("admin") {
		a, _ := flags.GetBool("admin")
		override.Admin = &a
	}
	if flags.Changed("privileged") {
		p, _ := flags.GetBool("privileged")
		override.Privileged = &p
	}
	if flags.Changed("metrics-addr") {
		addr, _ := flags.GetString("metrics-addr")
		override.MetricsAddr = &addr
	}
	if flags.Changed("store") || flags.Changed("store-path") {
		store := cfg.Store
		if flags.Changed("store") {
			store.Type, _ = flags.GetString("store")
		}
		if flags.Changed("store-path") {
			store.Path, _ = flags.GetString("store-path")
		}
		override.Store = &store
	}
	cfg.Merge(override)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads config, opens the store and loads or seeds the tree
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	util.InitializeLogger(cfg.LogLvl, os.Stderr)
	logger := util.GetLogger("main")

	registry := adapters.NewRegistry()
	adapters.RegisterBuiltins(registry)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	gw, err := registry.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	fs := filesystem.NewFS(cfg, filesystem.WithGateway(gw))
	found, err := fs.Load(ctx)
	if err != nil {
		_ = gw.Close()
		return nil, err
	}
	nodesDef, _ := cmd.Flags().GetString("nodes")
	switch {
	case !found && nodesDef != "":
		reqs, err := requests.LoadNodeRequestsFile(nodesDef)
		if err != nil {
			_ = gw.Close()
			return nil, err
		}
		if err := fs.Reset(reqs); err != nil {
			_ = gw.Close()
			return nil, err
		}
		logger.Info().Str("nodes", nodesDef).Int("requests", len(reqs)).Msg("Seeded tree from node definitions")
	case found && nodesDef != "":
		logger.Warn().Str("nodes", nodesDef).Msg("Store already holds a tree; ignoring node definitions")
	}

	a := &app{cfg: cfg, fs: fs, gateway: gw}
	if cfg.MetricsAddr != "" {
		a.metrics = startMetricsServer(cfg.MetricsAddr)
	}
	logger.Debug().Str("store", cfg.Store.Type).Str("actor", cfg.Actor).Bool("admin", cfg.Admin).Msg("simfs ready")
	return a, nil
}

func (a *app) Close() {
	logger := util.GetLogger("main")
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metrics.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to stop metrics server")
		}
	}
	if err := a.gateway.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close store")
	}
}

func startMetricsServer(addr string) *http.Server {
	logger := util.GetLogger("metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("Metrics server stopped")
		}
	}()
	logger.Info().Str("addr", addr).Msg("Serving metrics")
	return srv
}
