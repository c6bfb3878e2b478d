// Package exchange implements the order matching engine: it validates
// signed maker orders against taker orders, dispatches to the agreed
// strategy, computes the fee split, settles currency and asset transfers
// atomically, and consumes the maker nonce exactly once.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/crypto"
	"github.com/arcmarket/arcx/internal/domain"
	"github.com/arcmarket/arcx/internal/nonce"
	"github.com/arcmarket/arcx/internal/strategy"
	"github.com/arcmarket/arcx/internal/transfer"
)

// matchLockTTL bounds how long a distributed (signer, nonce) lock is held
// when an engine instance dies mid-settlement.
const matchLockTTL = 30 * time.Second

// CurrencyWhitelist is the currency policy surface the engine consults.
type CurrencyWhitelist interface {
	IsWhitelisted(addr common.Address) bool
}

// StrategyWhitelist is the strategy policy surface the engine consults.
type StrategyWhitelist interface {
	IsWhitelisted(addr common.Address) bool
	Strategy(addr common.Address) (strategy.Strategy, bool)
}

// RoyaltyCalculator resolves the royalty split for a sale.
type RoyaltyCalculator interface {
	CalculateRoyaltyFee(ctx context.Context, collection common.Address, tokenID, salePrice *big.Int) (common.Address, *big.Int, error)
}

// TransferSelector resolves the transfer manager for a collection.
type TransferSelector interface {
	Resolve(collection common.Address) (domain.Collection, transfer.Manager, error)
}

// Config carries the engine's immutable identity and settlement parameters.
type Config struct {
	ChainID              *big.Int
	Address              common.Address // verifying contract identity in the signing domain
	WrappedNative        common.Address
	ProtocolFeeRecipient common.Address
}

// Deps bundles the engine's collaborators. Matches, Bus, and Locks are
// optional; a nil value disables persistence, event publishing, or
// distributed locking respectively (in-process exclusivity always applies).
type Deps struct {
	Nonces     *nonce.Registry
	Currencies CurrencyWhitelist
	Executions StrategyWhitelist
	Royalties  RoyaltyCalculator
	Selector   TransferSelector
	Ledgers    domain.CurrencyResolver

	Matches domain.MatchStore
	Bus     domain.SignalBus
	Locks   domain.LockManager
}

// Engine is the order matching and authorization engine.
type Engine struct {
	signingDomain *crypto.Domain
	verifier      *crypto.Verifier
	nonces        *nonce.Registry

	// Swappable policy components, guarded by mu so admin updates do not
	// tear a match in progress.
	mu                   sync.RWMutex
	currencies           CurrencyWhitelist
	executions           StrategyWhitelist
	royalties            RoyaltyCalculator
	selector             TransferSelector
	protocolFeeRecipient common.Address
	relays               map[common.Address]struct{}

	ledgers       domain.CurrencyResolver
	wrappedNative common.Address

	matches domain.MatchStore
	bus     domain.SignalBus
	locks   domain.LockManager

	inflight keyedMutex
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine creates an Engine bound to the signing domain derived from
// cfg.ChainID and cfg.Address.
func NewEngine(cfg Config, deps Deps, logger *slog.Logger) (*Engine, error) {
	if cfg.ProtocolFeeRecipient == (common.Address{}) {
		return nil, fmt.Errorf("exchange: protocol fee recipient: %w", domain.ErrZeroAddress)
	}
	if cfg.WrappedNative == (common.Address{}) {
		return nil, fmt.Errorf("exchange: wrapped native token: %w", domain.ErrZeroAddress)
	}

	signingDomain := crypto.NewDomain(cfg.ChainID, cfg.Address)
	return &Engine{
		signingDomain:        signingDomain,
		verifier:             crypto.NewVerifier(signingDomain),
		nonces:               deps.Nonces,
		currencies:           deps.Currencies,
		executions:           deps.Executions,
		royalties:            deps.Royalties,
		selector:             deps.Selector,
		protocolFeeRecipient: cfg.ProtocolFeeRecipient,
		relays:               make(map[common.Address]struct{}),
		ledgers:              deps.Ledgers,
		wrappedNative:        cfg.WrappedNative,
		matches:              deps.Matches,
		bus:                  deps.Bus,
		locks:                deps.Locks,
		logger:               logger.With(slog.String("component", "exchange")),
		now:                  time.Now,
	}, nil
}

// SigningDomain returns the engine's EIP-712 domain, for order producers.
func (e *Engine) SigningDomain() *crypto.Domain {
	return e.signingDomain
}

// --------------------------------------------------------------------------
// Cancellation
// --------------------------------------------------------------------------

// CancelAllOrdersForSender raises the signer's minimum order nonce,
// invalidating every outstanding order below it, and publishes the
// cancellation event.
func (e *Engine) CancelAllOrdersForSender(ctx context.Context, signer common.Address, newMinNonce uint64) error {
	if err := e.nonces.CancelAllOrdersForSender(ctx, signer, newMinNonce); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "all orders cancelled",
		slog.String("signer", signer.Hex()),
		slog.Uint64("new_min_nonce", newMinNonce),
	)
	e.publishCancel(ctx, domain.CancelEvent{
		Signer:      signer,
		NewMinNonce: newMinNonce,
		CancelledAt: e.now().UTC(),
	})
	return nil
}

// CancelMultipleMakerOrders cancels the listed nonces for the signer and
// publishes the cancellation event.
func (e *Engine) CancelMultipleMakerOrders(ctx context.Context, signer common.Address, nonces []uint64) error {
	if err := e.nonces.CancelMultipleMakerOrders(ctx, signer, nonces); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "maker orders cancelled",
		slog.String("signer", signer.Hex()),
		slog.Int("count", len(nonces)),
	)
	e.publishCancel(ctx, domain.CancelEvent{
		Signer:      signer,
		Nonces:      nonces,
		CancelledAt: e.now().UTC(),
	})
	return nil
}

// IsNonceValid reports whether the (signer, nonce) pair is still usable.
func (e *Engine) IsNonceValid(signer common.Address, n uint64) bool {
	return e.nonces.IsNonceValid(signer, n)
}

// MinOrderNonce returns the signer's current cancellation floor.
func (e *Engine) MinOrderNonce(signer common.Address) uint64 {
	return e.nonces.MinOrderNonce(signer)
}

// IsUserOrderNonceExecutedOrCancelled reports explicit-set membership for
// the (signer, nonce) pair.
func (e *Engine) IsUserOrderNonceExecutedOrCancelled(signer common.Address, n uint64) bool {
	return e.nonces.IsExecutedOrCancelled(signer, n)
}

// --------------------------------------------------------------------------
// Administrative surface (owner-gated at the API layer)
// --------------------------------------------------------------------------

// UpdateCurrencyManager swaps the currency whitelist.
func (e *Engine) UpdateCurrencyManager(m CurrencyWhitelist) error {
	if m == nil {
		return domain.ErrZeroAddress
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.currencies = m
	return nil
}

// UpdateExecutionManager swaps the strategy whitelist.
func (e *Engine) UpdateExecutionManager(m StrategyWhitelist) error {
	if m == nil {
		return domain.ErrZeroAddress
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executions = m
	return nil
}

// UpdateRoyaltyFeeManager swaps the royalty calculator.
func (e *Engine) UpdateRoyaltyFeeManager(m RoyaltyCalculator) error {
	if m == nil {
		return domain.ErrZeroAddress
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.royalties = m
	return nil
}

// UpdateTransferSelector swaps the transfer selector.
func (e *Engine) UpdateTransferSelector(s TransferSelector) error {
	if s == nil {
		return domain.ErrZeroAddress
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selector = s
	return nil
}

// UpdateProtocolFeeRecipient changes where the protocol's cut is paid.
func (e *Engine) UpdateProtocolFeeRecipient(addr common.Address) error {
	if addr == (common.Address{}) {
		return domain.ErrZeroAddress
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.protocolFeeRecipient = addr
	return nil
}

// ProtocolFeeRecipient returns the current protocol fee recipient.
func (e *Engine) ProtocolFeeRecipient() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.protocolFeeRecipient
}

// AddRelay authorizes an address to submit taker orders on behalf of other
// takers (payment-gateway style modules).
func (e *Engine) AddRelay(addr common.Address) error {
	if addr == (common.Address{}) {
		return domain.ErrZeroAddress
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.relays[addr] = struct{}{}
	return nil
}

// RemoveRelay revokes a relay authorization.
func (e *Engine) RemoveRelay(addr common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.relays[addr]; !ok {
		return domain.ErrNotFound
	}
	delete(e.relays, addr)
	return nil
}

func (e *Engine) isRelay(addr common.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.relays[addr]
	return ok
}

// --------------------------------------------------------------------------
// Event plumbing
// --------------------------------------------------------------------------

func (e *Engine) publishCancel(ctx context.Context, ev domain.CancelEvent) {
	if e.bus == nil {
		return
	}
	payload, err := marshalEvent(ev)
	if err != nil {
		e.logger.ErrorContext(ctx, "marshal cancel event", slog.String("error", err.Error()))
		return
	}
	if err := e.bus.Publish(ctx, domain.ChannelCancel, payload); err != nil {
		e.logger.WarnContext(ctx, "publish cancel event", slog.String("error", err.Error()))
	}
}
