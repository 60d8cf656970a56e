// Package server exposes the engine over HTTP: one JSON endpoint per
// engine operation, read-only queries and a WebSocket stream of
// committed-state events. The server is also the process's sequencer:
// it delivers one operation at a time to the engine and advances the
// simulated substrate around it.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/critterchain/critterchain/internal/config"
	"github.com/critterchain/critterchain/internal/core/chain"
	"github.com/critterchain/critterchain/internal/core/engine"
	"github.com/critterchain/critterchain/internal/core/events/bus"
	"github.com/critterchain/critterchain/internal/core/observability/log"
	"github.com/critterchain/critterchain/internal/persistence/journal"
)

// Server wires the engine, substrate sim, event hub and audit journal
// behind one listener.
type Server struct {
	cfg config.ServerConfig

	engine  *engine.Engine
	chain   *chain.Sim
	events  bus.EventBus
	journal *journal.Journal // nil when auditing is disabled
	log     log.Log

	hub        *eventHub
	httpServer *http.Server

	blockInterval time.Duration
	stopChan      chan struct{}
}

// New builds a server. journal may be nil.
func New(cfg config.Config, eng *engine.Engine, sim *chain.Sim, events bus.EventBus, jrnl *journal.Journal, logger log.Log) *Server {
	s := &Server{
		cfg:           cfg.Server,
		engine:        eng,
		chain:         sim,
		events:        events,
		journal:       jrnl,
		log:           logger.With(log.String("component", "server")),
		blockInterval: cfg.Chain.BlockInterval,
		stopChan:      make(chan struct{}),
	}
	s.hub = newEventHub(events, cfg.Server.EventBuffer, s.log)
	s.httpServer = &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: s.routes(),
	}
	return s
}

// Handler exposes the HTTP surface for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the listener and the block sealer until ctx is cancelled
// or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("listening", log.String("addr", s.cfg.ListenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.sealBlocks(ctx)
		return nil
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-s.stopChan:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Stop shuts the listener down and detaches the event hub.
func (s *Server) Stop() {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.hub.close()
}

// sealBlocks advances the simulated substrate on a fixed cadence: the
// clock tracks wall time and a fresh block hash keeps randomness
// snapshots changing even on an idle chain.
func (s *Server) sealBlocks(ctx context.Context) {
	if s.blockInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.blockInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.chain.SetNow(time.Now().UTC())
			s.chain.SealBlock()
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}
