package injector

import (
	"time"

	"github.com/critterchain/critterchain/internal/config"
	"github.com/critterchain/critterchain/internal/core/chain"
	"github.com/critterchain/critterchain/internal/core/engine"
	"github.com/critterchain/critterchain/internal/core/events/bus"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/core/registry"
	"github.com/critterchain/critterchain/internal/persistence/journal"
	"github.com/critterchain/critterchain/internal/server"
)

// App bundles the wired process components.
type App struct {
	Config  config.Config
	Log     *log.Logger
	Chain   *chain.Sim
	Events  bus.EventBus
	Engine  *engine.Engine
	Journal *journal.Journal
	Server  *server.Server
}

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(log.ParseLevel(cfg.LogLevel))
}

func ProvideChain(cfg config.Config) *chain.Sim {
	return chain.NewSim(cfg.Chain.NetworkSeed, time.Now().UTC())
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

// ProvideEngineConfig translates the file-level rule settings into the
// engine's native units.
func ProvideEngineConfig(cfg config.Config) (engine.Config, error) {
	fee, err := cfg.LevelUpFeeBaseUnits()
	if err != nil {
		return engine.Config{}, err
	}
	ec := engine.DefaultConfig()
	ec.Cooldown = cfg.Engine.Cooldown
	ec.LevelUpFee = fee
	ec.WinThreshold = cfg.Engine.WinThreshold
	ec.HybridSpecies = cfg.Engine.HybridSpecies
	if cfg.Engine.Admin != "" {
		admin, err := registry.ParseAccount(cfg.Engine.Admin)
		if err != nil {
			return engine.Config{}, err
		}
		ec.Admin = admin
	}
	return ec, nil
}

func ProvideEngine(ec engine.Config, sim *chain.Sim, events bus.EventBus, logger *log.Logger) *engine.Engine {
	return engine.New(ec, sim, events, logger)
}

// ProvideJournal opens the audit journal, or returns nil when no path
// is configured.
func ProvideJournal(cfg config.Config, logger *log.Logger) (*journal.Journal, error) {
	if cfg.Journal.Path == "" {
		return nil, nil
	}
	return journal.Open(cfg.Journal.Path, logger)
}

func ProvideServer(cfg config.Config, eng *engine.Engine, sim *chain.Sim, events bus.EventBus, jrnl *journal.Journal, logger *log.Logger) *server.Server {
	return server.New(cfg, eng, sim, events, jrnl, logger)
}
