// Package app provides the top-level application lifecycle for the exchange
// service. It wires infrastructure (stores, caches, blob storage), builds the
// matching engine and its policy components, and runs the HTTP and WebSocket
// API until the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"

	"github.com/arcmarket/arcx/internal/config"
	"github.com/arcmarket/arcx/internal/currency"
	"github.com/arcmarket/arcx/internal/domain"
	"github.com/arcmarket/arcx/internal/exchange"
	"github.com/arcmarket/arcx/internal/execution"
	"github.com/arcmarket/arcx/internal/ledger"
	"github.com/arcmarket/arcx/internal/nonce"
	"github.com/arcmarket/arcx/internal/royalty"
	"github.com/arcmarket/arcx/internal/server"
	"github.com/arcmarket/arcx/internal/server/handler"
	"github.com/arcmarket/arcx/internal/server/ws"
	"github.com/arcmarket/arcx/internal/strategy"
	"github.com/arcmarket/arcx/internal/transfer"
)

// shutdownTimeout bounds how long in-flight HTTP requests may run after the
// stop signal.
const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, builds the matching
// engine, starts the API server, and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting exchange service",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)
	a.logger.DebugContext(ctx, "active configuration",
		slog.Any("config", config.RedactedConfig(a.cfg)),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	core, err := a.buildCore(ctx, deps)
	if err != nil {
		return fmt.Errorf("app: build exchange core: %w", err)
	}

	return a.serve(ctx, deps, core)
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down exchange service")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// core holds the assembled exchange domain graph.
type core struct {
	ledgers    *ledger.Set
	engine     *exchange.Engine
	currencies *currency.Manager
	strategies *strategyDirectory
	royalties  *royalty.Registry
}

// buildCore assembles the matching engine and its policy components from the
// exchange configuration, restoring persisted nonce and royalty state when
// stores are wired.
func (a *App) buildCore(ctx context.Context, deps *Dependencies) (*core, error) {
	ex := a.cfg.Exchange

	// The in-memory ledger set backs local mode and serves as the settlement
	// reference; production ledger adapters are registered on it.
	set := ledger.NewSet()
	wrapped := common.HexToAddress(ex.WrappedNative)
	set.CreateWrappedNative(wrapped)

	currencies := currency.NewManager()
	if err := currencies.Add(wrapped); err != nil {
		return nil, fmt.Errorf("whitelist wrapped native: %w", err)
	}
	for _, raw := range ex.Currencies {
		addr := common.HexToAddress(raw)
		if addr != wrapped {
			set.CreateToken(addr)
		}
		if err := currencies.Add(addr); err != nil {
			return nil, fmt.Errorf("whitelist currency %s: %w", raw, err)
		}
	}

	nonces := nonce.NewRegistry(deps.NonceStore)
	if err := nonces.Load(ctx); err != nil {
		return nil, err
	}

	royalties := royalty.NewRegistry(uint16(ex.RoyaltyFeeCeilingBps), deps.RoyaltyStore)
	if err := royalties.Load(ctx); err != nil {
		return nil, err
	}
	feeManager := royalty.NewFeeManager(royalties, set)

	selector := transfer.NewSelector(
		transfer.NewSingleUnitManager(),
		transfer.NewAmountManager(),
		set,
	)

	executions := execution.NewManager()
	strategies := newStrategyDirectory(executions,
		strategy.NewStandardSaleForFixedPrice(
			strategyAddress("standard_sale_fixed_price"), uint16(ex.ProtocolFeeBps)),
		strategy.NewAnyItemFromCollectionForFixedPrice(
			strategyAddress("any_item_from_collection_fixed_price"), uint16(ex.ProtocolFeeBps)),
		strategy.NewPrivateSale(
			strategyAddress("private_sale"), uint16(ex.PrivateSaleFeeBps)),
	)
	if err := strategies.enableAll(); err != nil {
		return nil, err
	}

	engine, err := exchange.NewEngine(
		exchange.Config{
			ChainID:              big.NewInt(ex.ChainID),
			Address:              common.HexToAddress(ex.ContractAddress),
			WrappedNative:        wrapped,
			ProtocolFeeRecipient: common.HexToAddress(ex.ProtocolFeeRecipient),
		},
		exchange.Deps{
			Nonces:     nonces,
			Currencies: currencies,
			Executions: executions,
			Royalties:  feeManager,
			Selector:   selector,
			Ledgers:    set,
			Matches:    deps.MatchStore,
			Bus:        deps.SignalBus,
			Locks:      deps.LockManager,
		},
		a.logger,
	)
	if err != nil {
		return nil, err
	}
	for _, raw := range ex.Relays {
		if err := engine.AddRelay(common.HexToAddress(raw)); err != nil {
			return nil, fmt.Errorf("authorize relay %s: %w", raw, err)
		}
	}

	return &core{
		ledgers:    set,
		engine:     engine,
		currencies: currencies,
		strategies: strategies,
		royalties:  royalties,
	}, nil
}

// serve runs the HTTP server, the WebSocket hub, and the periodic archiver
// until the context is cancelled.
func (a *App) serve(ctx context.Context, deps *Dependencies, c *core) error {
	handlers := server.Handlers{
		Health:  handler.NewHealthHandler(deps.Health, a.logger),
		Matches: handler.NewMatchHandler(c.engine, deps.MatchStore, a.logger),
		Orders:  handler.NewOrderHandler(c.engine, a.logger),
		Admin: handler.NewAdminHandler(
			c.currencies,
			c.strategies,
			c.royalties,
			c.engine,
			deps.Archiver,
			deps.AuditStore,
			a.logger,
		),
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger, ws.Config{
			Mode:      a.cfg.Mode,
			StartedAt: time.Now().UTC(),
		})
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		AdminAPIKey:     a.cfg.Server.AdminAPIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: time.Duration(a.cfg.Server.RateLimitWindow) * time.Second,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if hub != nil {
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	if deps.Archiver != nil && a.cfg.Archive.Enabled {
		g.Go(func() error {
			a.archiveLoop(ctx, deps.Archiver)
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// archiveLoop moves matches past the retention window to cold storage once a
// day. Failures are logged and retried on the next tick.
func (a *App) archiveLoop(ctx context.Context, archiver domain.Archiver) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := time.Now().UTC().AddDate(0, 0, -a.cfg.Archive.RetentionDays)
			count, err := archiver.ArchiveMatches(ctx, before)
			if err != nil {
				a.logger.ErrorContext(ctx, "archive matches",
					slog.String("error", err.Error()),
				)
				continue
			}
			if count > 0 {
				a.logger.InfoContext(ctx, "matches archived",
					slog.Int64("count", count),
					slog.String("before", before.Format(time.RFC3339)),
				)
			}
		}
	}
}

// strategyDirectory tracks the strategy instances built at startup so a
// delisted strategy can be re-admitted by address through the admin API.
type strategyDirectory struct {
	manager *execution.Manager
	known   map[common.Address]strategy.Strategy
}

func newStrategyDirectory(manager *execution.Manager, strategies ...strategy.Strategy) *strategyDirectory {
	known := make(map[common.Address]strategy.Strategy, len(strategies))
	for _, s := range strategies {
		known[s.Address()] = s
	}
	return &strategyDirectory{manager: manager, known: known}
}

// enableAll whitelists every known strategy.
func (d *strategyDirectory) enableAll() error {
	for _, s := range d.known {
		if err := d.manager.Add(s); err != nil {
			return fmt.Errorf("whitelist strategy %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Enable re-admits a known strategy to the whitelist.
func (d *strategyDirectory) Enable(addr common.Address) error {
	s, ok := d.known[addr]
	if !ok {
		return domain.ErrNotFound
	}
	return d.manager.Add(s)
}

// Remove delists a strategy. The instance stays known for later re-admission.
func (d *strategyDirectory) Remove(addr common.Address) error {
	return d.manager.Remove(addr)
}

// List returns the currently whitelisted strategy addresses.
func (d *strategyDirectory) List() []common.Address {
	return d.manager.List()
}

// strategyAddress derives a stable address for a built-in strategy from its
// name, mirroring how deployed strategy modules are identified on chain.
func strategyAddress(name string) common.Address {
	hash := ethcrypto.Keccak256([]byte("arcx/strategy/" + strings.ToLower(name)))
	return common.BytesToAddress(hash[12:])
}
