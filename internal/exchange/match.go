package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/arcmarket/arcx/internal/crypto"
	"github.com/arcmarket/arcx/internal/domain"
	"github.com/arcmarket/arcx/internal/strategy"
)

// MatchAskWithTakerBid settles a maker ask against a taker bid paid in the
// maker's whitelisted currency. caller is the authenticated submitter and
// must be the taker unless it is an authorized relay.
func (e *Engine) MatchAskWithTakerBid(ctx context.Context, caller common.Address, taker domain.TakerOrder, maker domain.MakerOrder) (domain.MatchEvent, error) {
	return e.match(ctx, caller, domain.MatchSideTakerBid, taker, maker, nil)
}

// MatchBidWithTakerAsk settles a maker bid against a taker ask. The maker
// pays in the order currency; the taker delivers the asset.
func (e *Engine) MatchBidWithTakerAsk(ctx context.Context, caller common.Address, taker domain.TakerOrder, maker domain.MakerOrder) (domain.MatchEvent, error) {
	return e.match(ctx, caller, domain.MatchSideTakerAsk, taker, maker, nil)
}

// MatchAskWithTakerBidUsingNative settles a maker ask against a taker bid
// funded from the taker's native balance. The maker order must be priced in
// the wrapped native token; value is deposited into it before settlement and
// the seller's net proceeds are unwrapped back to native.
func (e *Engine) MatchAskWithTakerBidUsingNative(ctx context.Context, caller common.Address, taker domain.TakerOrder, maker domain.MakerOrder, value *big.Int) (domain.MatchEvent, error) {
	if value == nil {
		value = new(big.Int)
	}
	return e.match(ctx, caller, domain.MatchSideTakerBid, taker, maker, value)
}

// policies is a consistent snapshot of the engine's swappable components,
// taken once per match so an admin update cannot tear a settlement.
type policies struct {
	currencies           CurrencyWhitelist
	executions           StrategyWhitelist
	royalties            RoyaltyCalculator
	selector             TransferSelector
	protocolFeeRecipient common.Address
}

func (e *Engine) snapshotPolicies() policies {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return policies{
		currencies:           e.currencies,
		executions:           e.executions,
		royalties:            e.royalties,
		selector:             e.selector,
		protocolFeeRecipient: e.protocolFeeRecipient,
	}
}

func (e *Engine) match(ctx context.Context, caller common.Address, side domain.MatchSide, taker domain.TakerOrder, maker domain.MakerOrder, nativeValue *big.Int) (domain.MatchEvent, error) {
	// Received: structural checks that need no shared state.
	if err := checkSides(side, taker, maker); err != nil {
		return domain.MatchEvent{}, err
	}
	if caller != taker.Taker && !e.isRelay(caller) {
		return domain.MatchEvent{}, domain.ErrNotTaker
	}
	if nativeValue != nil {
		if maker.Currency != e.wrappedNative {
			return domain.MatchEvent{}, domain.ErrCurrencyMismatchForNative
		}
		if taker.Price != nil && nativeValue.Cmp(taker.Price) > 0 {
			return domain.MatchEvent{}, domain.ErrOverpaymentRejected
		}
	}

	// One settlement at a time per (signer, nonce): in-process exclusion
	// always, plus the distributed lock when configured.
	key := matchKey(maker.Signer, maker.Nonce)
	release := e.inflight.lock(key)
	defer release()
	if e.locks != nil {
		unlock, err := e.locks.Acquire(ctx, key, matchLockTTL)
		if err != nil {
			return domain.MatchEvent{}, fmt.Errorf("exchange: acquire settlement lock: %w", err)
		}
		defer unlock()
	}

	pol := e.snapshotPolicies()

	// Authorized: the maker order itself must be live and policy-compliant.
	if err := e.validateMakerOrder(pol, maker); err != nil {
		return domain.MatchEvent{}, err
	}

	// Priced: the agreed strategy decides whether the pair executes and at
	// what terms.
	strat, ok := pol.executions.Strategy(maker.Strategy)
	if !ok {
		return domain.MatchEvent{}, domain.ErrStrategyNotWhitelisted
	}
	exec := strat.CanExecute(maker, taker)
	if !exec.OK {
		return domain.MatchEvent{}, domain.ErrStrategyMismatch
	}

	split, err := e.computeFeeSplit(ctx, pol, strat, maker.Collection, exec)
	if err != nil {
		return domain.MatchEvent{}, err
	}
	if err := checkMinPercentage(side, taker, maker, split); err != nil {
		return domain.MatchEvent{}, err
	}

	// Settled: move funds and the asset, all or nothing.
	ev, err := e.settle(ctx, pol, side, taker, maker, exec, split, nativeValue)
	if err != nil {
		return domain.MatchEvent{}, err
	}

	e.logger.InfoContext(ctx, "order matched",
		slog.String("match_id", ev.ID),
		slog.String("side", string(ev.Side)),
		slog.String("maker", ev.Maker.Hex()),
		slog.String("taker", ev.Taker.Hex()),
		slog.String("collection", ev.Collection.Hex()),
		slog.String("token_id", ev.TokenID.String()),
		slog.String("price", ev.Price.String()),
	)
	e.recordMatch(ctx, ev)
	return ev, nil
}

func checkSides(side domain.MatchSide, taker domain.TakerOrder, maker domain.MakerOrder) error {
	switch side {
	case domain.MatchSideTakerBid:
		if !maker.IsOrderAsk || taker.IsOrderAsk {
			return domain.ErrWrongSides
		}
	case domain.MatchSideTakerAsk:
		if maker.IsOrderAsk || !taker.IsOrderAsk {
			return domain.ErrWrongSides
		}
	default:
		return domain.ErrWrongSides
	}
	return nil
}

// validateMakerOrder runs the authorization gate: amount, signature, nonce,
// time window, and both whitelists, in that order.
func (e *Engine) validateMakerOrder(pol policies, maker domain.MakerOrder) error {
	if maker.Amount == nil || maker.Amount.Sign() <= 0 {
		return domain.ErrZeroAmount
	}
	if err := e.verifier.Verify(maker); err != nil {
		return err
	}
	if !e.nonces.IsNonceValid(maker.Signer, maker.Nonce) {
		return domain.ErrOrderExpiredOrCancelled
	}
	now := uint64(e.now().Unix())
	if now < maker.StartTime || now > maker.EndTime {
		return domain.ErrOrderNotInWindow
	}
	if !pol.currencies.IsWhitelisted(maker.Currency) {
		return domain.ErrCurrencyNotWhitelisted
	}
	if _, ok := e.ledgers.Currency(maker.Currency); !ok {
		return domain.ErrCurrencyNotWhitelisted
	}
	if !pol.executions.IsWhitelisted(maker.Strategy) {
		return domain.ErrStrategyNotWhitelisted
	}
	return nil
}

func (e *Engine) computeFeeSplit(ctx context.Context, pol policies, strat strategy.Strategy, collection common.Address, exec domain.Execution) (domain.FeeSplit, error) {
	protocolFee := new(big.Int).Mul(exec.Price, big.NewInt(int64(strat.ProtocolFeeBps())))
	protocolFee.Quo(protocolFee, big.NewInt(domain.BasisPointsDenominator))

	royaltyReceiver, royaltyFee, err := pol.royalties.CalculateRoyaltyFee(ctx, collection, exec.TokenID, exec.Price)
	if err != nil {
		return domain.FeeSplit{}, fmt.Errorf("exchange: royalty lookup for %s: %w", collection, err)
	}
	if royaltyFee == nil {
		royaltyFee = new(big.Int)
	}

	net := new(big.Int).Sub(exec.Price, protocolFee)
	net.Sub(net, royaltyFee)
	return domain.FeeSplit{
		Price:           exec.Price,
		ProtocolFee:     protocolFee,
		RoyaltyFee:      royaltyFee,
		RoyaltyReceiver: royaltyReceiver,
		Net:             net,
	}, nil
}

// checkMinPercentage enforces the seller's slippage floor. The seller is
// whichever side asks: the maker on a taker bid, the taker on a taker ask.
func checkMinPercentage(side domain.MatchSide, taker domain.TakerOrder, maker domain.MakerOrder, split domain.FeeSplit) error {
	minBps := maker.MinPercentageToAsk
	if side == domain.MatchSideTakerAsk {
		minBps = taker.MinPercentageToAsk
	}
	scaledNet := new(big.Int).Mul(split.Net, big.NewInt(domain.BasisPointsDenominator))
	floor := new(big.Int).Mul(split.Price, big.NewInt(int64(minBps)))
	if scaledNet.Cmp(floor) < 0 {
		return domain.ErrMinPercentageViolated
	}
	return nil
}

// settlement tracks applied transfer steps so a mid-settlement failure can
// be compensated in reverse order.
type settlement struct {
	undos []func(context.Context) error
}

func (s *settlement) applied(undo func(context.Context) error) {
	s.undos = append(s.undos, undo)
}

func (s *settlement) rollback(ctx context.Context, logger *slog.Logger) {
	for i := len(s.undos) - 1; i >= 0; i-- {
		if err := s.undos[i](ctx); err != nil {
			logger.ErrorContext(ctx, "settlement compensation failed", slog.String("error", err.Error()))
		}
	}
}

func (e *Engine) settle(ctx context.Context, pol policies, side domain.MatchSide, taker domain.TakerOrder, maker domain.MakerOrder, exec domain.Execution, split domain.FeeSplit, nativeValue *big.Int) (domain.MatchEvent, error) {
	collection, assetManager, err := pol.selector.Resolve(maker.Collection)
	if err != nil {
		return domain.MatchEvent{}, err
	}
	currency, ok := e.ledgers.Currency(maker.Currency)
	if !ok {
		return domain.MatchEvent{}, domain.ErrCurrencyNotWhitelisted
	}

	buyer, seller := maker.Signer, taker.Taker
	if side == domain.MatchSideTakerBid {
		buyer, seller = taker.Taker, maker.Signer
	}

	var st settlement
	fail := func(cause error) (domain.MatchEvent, error) {
		st.rollback(ctx, e.logger)
		return domain.MatchEvent{}, cause
	}

	var wrapped domain.WrappedNativeLedger
	if nativeValue != nil {
		wrapped, ok = currency.(domain.WrappedNativeLedger)
		if !ok {
			return domain.MatchEvent{}, domain.ErrCurrencyMismatchForNative
		}
		if err := wrapped.Deposit(ctx, buyer, nativeValue); err != nil {
			return fail(fmt.Errorf("%w: deposit native: %v", domain.ErrTransferFailed, err))
		}
		st.applied(func(ctx context.Context) error {
			return wrapped.Withdraw(ctx, buyer, nativeValue)
		})
	}

	pay := func(to common.Address, amount *big.Int) error {
		if amount.Sign() == 0 {
			return nil
		}
		if err := currency.Transfer(ctx, buyer, to, amount); err != nil {
			return fmt.Errorf("%w: pay %s: %v", domain.ErrTransferFailed, to, err)
		}
		st.applied(func(ctx context.Context) error {
			return currency.Transfer(ctx, to, buyer, amount)
		})
		return nil
	}

	if err := pay(pol.protocolFeeRecipient, split.ProtocolFee); err != nil {
		return fail(err)
	}
	if split.RoyaltyReceiver != (common.Address{}) {
		if err := pay(split.RoyaltyReceiver, split.RoyaltyFee); err != nil {
			return fail(err)
		}
	}
	if err := pay(seller, split.Net); err != nil {
		return fail(err)
	}

	if err := assetManager.Transfer(ctx, collection, seller, buyer, exec.TokenID, exec.Amount); err != nil {
		return fail(err)
	}
	st.applied(func(ctx context.Context) error {
		return assetManager.Transfer(ctx, collection, buyer, seller, exec.TokenID, exec.Amount)
	})

	// Native path: the seller takes proceeds in native, not wrapped.
	if wrapped != nil && split.Net.Sign() > 0 {
		if err := wrapped.Withdraw(ctx, seller, split.Net); err != nil {
			return fail(fmt.Errorf("%w: unwrap seller proceeds: %v", domain.ErrTransferFailed, err))
		}
		st.applied(func(ctx context.Context) error {
			return wrapped.Deposit(ctx, seller, split.Net)
		})
	}

	// The nonce is consumed only after every transfer landed; a consumption
	// failure compensates the transfers so nothing half-settles.
	if err := e.nonces.Consume(ctx, maker.Signer, maker.Nonce); err != nil {
		return fail(err)
	}

	return domain.MatchEvent{
		ID:              uuid.NewString(),
		Side:            side,
		OrderHash:       crypto.OrderStructHash(maker),
		OrderNonce:      maker.Nonce,
		Maker:           maker.Signer,
		Taker:           taker.Taker,
		Strategy:        maker.Strategy,
		Currency:        maker.Currency,
		Collection:      maker.Collection,
		TokenID:         exec.TokenID,
		Amount:          exec.Amount,
		Price:           split.Price,
		ProtocolFee:     split.ProtocolFee,
		RoyaltyFee:      split.RoyaltyFee,
		RoyaltyReceiver: split.RoyaltyReceiver,
		MatchedAt:       e.now().UTC(),
	}, nil
}

// recordMatch persists and publishes the event best-effort. The settlement
// itself already committed; failures here degrade the audit trail and are
// surfaced in logs rather than unwinding the match.
func (e *Engine) recordMatch(ctx context.Context, ev domain.MatchEvent) {
	if e.matches != nil {
		if err := e.matches.Insert(ctx, ev); err != nil {
			e.logger.ErrorContext(ctx, "persist match event",
				slog.String("match_id", ev.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	if e.bus == nil {
		return
	}
	payload, err := marshalEvent(ev)
	if err != nil {
		e.logger.ErrorContext(ctx, "marshal match event", slog.String("error", err.Error()))
		return
	}
	if err := e.bus.Publish(ctx, domain.ChannelMatch, payload); err != nil {
		e.logger.WarnContext(ctx, "publish match event", slog.String("error", err.Error()))
	}
	if err := e.bus.StreamAppend(ctx, domain.ChannelMatch, payload); err != nil {
		e.logger.WarnContext(ctx, "append match stream", slog.String("error", err.Error()))
	}
}

func matchKey(signer common.Address, nonce uint64) string {
	return fmt.Sprintf("match:%s:%d", signer.Hex(), nonce)
}
