package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/critterchain/critterchain/internal/config"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/injector"
	"github.com/critterchain/critterchain/internal/persistence/snapshot"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer func() { _ = app.Log.Sync() }()

	if app.Journal != nil {
		sub := app.Journal.Attach(app.Events)
		defer sub.Cancel()
		defer func() { _ = app.Journal.Close() }()
	}

	if dir := cfg.Journal.SnapshotDir; dir != "" {
		path, err := snapshot.Latest(dir)
		if err != nil {
			return fmt.Errorf("locate snapshot: %w", err)
		}
		if path != "" {
			st, err := snapshot.Read(path)
			if err != nil {
				return fmt.Errorf("read snapshot %s: %w", path, err)
			}
			app.Engine.Restore(st)
			app.Log.Info("state restored",
				log.String("snapshot", path),
				log.Int("critters", app.Engine.CritterCount()),
			)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-stopCh
		app.Log.Info("shutting down", log.String("signal", sig.String()))
		app.Server.Stop()
		cancel()
	}()

	err = app.Server.Start(ctx)

	if dir := cfg.Journal.SnapshotDir; dir != "" {
		path, snapErr := snapshot.Write(dir, app.Engine.Export(), app.Chain.Now())
		if snapErr != nil {
			app.Log.Error("snapshot on shutdown failed", log.Error(snapErr))
		} else {
			app.Log.Info("snapshot written", log.String("path", path))
		}
	}
	return err
}
