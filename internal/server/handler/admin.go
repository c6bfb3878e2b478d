package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// CurrencyAdmin manages the settlement currency whitelist.
type CurrencyAdmin interface {
	Add(addr common.Address) error
	Remove(addr common.Address) error
	List() []common.Address
}

// StrategyAdmin manages the execution strategy whitelist. Enable re-admits a
// previously configured strategy by address.
type StrategyAdmin interface {
	Enable(addr common.Address) error
	Remove(addr common.Address) error
	List() []common.Address
}

// RoyaltyAdmin manages the royalty registry.
type RoyaltyAdmin interface {
	UpdateRoyaltyInfoForCollection(ctx context.Context, info domain.RoyaltyInfo) error
	RoyaltyInfo(collection common.Address) (domain.RoyaltyInfo, bool)
}

// ExchangeAdmin is the engine's owner-only surface.
type ExchangeAdmin interface {
	UpdateProtocolFeeRecipient(addr common.Address) error
	ProtocolFeeRecipient() common.Address
	AddRelay(addr common.Address) error
	RemoveRelay(addr common.Address) error
}

// AdminHandler serves the owner-gated administrative endpoints.
type AdminHandler struct {
	currencies CurrencyAdmin
	strategies StrategyAdmin
	royalties  RoyaltyAdmin
	exchange   ExchangeAdmin
	archiver   domain.Archiver   // nil when archival is not configured
	audit      domain.AuditStore // nil when auditing is not configured
	logger     *slog.Logger
}

// NewAdminHandler creates an AdminHandler. archiver and audit may be nil.
func NewAdminHandler(
	currencies CurrencyAdmin,
	strategies StrategyAdmin,
	royalties RoyaltyAdmin,
	exchange ExchangeAdmin,
	archiver domain.Archiver,
	audit domain.AuditStore,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		currencies: currencies,
		strategies: strategies,
		royalties:  royalties,
		exchange:   exchange,
		archiver:   archiver,
		audit:      audit,
		logger:     logHandler(logger, "admin"),
	}
}

// record writes an audit entry best-effort.
func (h *AdminHandler) record(ctx context.Context, event string, detail map[string]any) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Log(ctx, event, detail); err != nil {
		h.logger.WarnContext(ctx, "audit log", slog.String("event", event), slog.String("error", err.Error()))
	}
}

type addressRequest struct {
	Address common.Address `json:"address"`
}

// AddCurrency whitelists a settlement currency.
// POST /api/admin/currencies
func (h *AdminHandler) AddCurrency(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.currencies.Add(req.Address); err != nil {
		writeDomainError(w, err)
		return
	}
	h.record(r.Context(), "admin.currency.add", map[string]any{"address": req.Address.Hex()})
	writeJSON(w, http.StatusCreated, map[string]any{"address": req.Address})
}

// RemoveCurrency removes a currency from the whitelist.
// DELETE /api/admin/currencies/{address}
func (h *AdminHandler) RemoveCurrency(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(r, "address")
	if !ok {
		writeError(w, http.StatusBadRequest, "address must be a hex address")
		return
	}
	if err := h.currencies.Remove(addr); err != nil {
		writeDomainError(w, err)
		return
	}
	h.record(r.Context(), "admin.currency.remove", map[string]any{"address": addr.Hex()})
	writeJSON(w, http.StatusOK, map[string]any{"address": addr})
}

// ListCurrencies returns the currency whitelist.
// GET /api/admin/currencies
func (h *AdminHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"currencies": h.currencies.List()})
}

// EnableStrategy re-admits a configured strategy to the whitelist.
// POST /api/admin/strategies
func (h *AdminHandler) EnableStrategy(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.strategies.Enable(req.Address); err != nil {
		writeDomainError(w, err)
		return
	}
	h.record(r.Context(), "admin.strategy.enable", map[string]any{"address": req.Address.Hex()})
	writeJSON(w, http.StatusCreated, map[string]any{"address": req.Address})
}

// RemoveStrategy removes a strategy from the whitelist.
// DELETE /api/admin/strategies/{address}
func (h *AdminHandler) RemoveStrategy(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(r, "address")
	if !ok {
		writeError(w, http.StatusBadRequest, "address must be a hex address")
		return
	}
	if err := h.strategies.Remove(addr); err != nil {
		writeDomainError(w, err)
		return
	}
	h.record(r.Context(), "admin.strategy.remove", map[string]any{"address": addr.Hex()})
	writeJSON(w, http.StatusOK, map[string]any{"address": addr})
}

// ListStrategies returns the strategy whitelist.
// GET /api/admin/strategies
func (h *AdminHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"strategies": h.strategies.List()})
}

// UpdateRoyalty registers or replaces the royalty policy for a collection.
// POST /api/admin/royalties
func (h *AdminHandler) UpdateRoyalty(w http.ResponseWriter, r *http.Request) {
	var info domain.RoyaltyInfo
	if err := decodeJSON(r, &info); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.royalties.UpdateRoyaltyInfoForCollection(r.Context(), info); err != nil {
		writeDomainError(w, err)
		return
	}
	h.record(r.Context(), "admin.royalty.update", map[string]any{
		"collection": info.Collection.Hex(),
		"receiver":   info.Receiver.Hex(),
		"feeBps":     info.FeeBps,
	})
	writeJSON(w, http.StatusOK, info)
}

// GetRoyalty returns the registered royalty policy for a collection.
// GET /api/admin/royalties/{address}
func (h *AdminHandler) GetRoyalty(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(r, "address")
	if !ok {
		writeError(w, http.StatusBadRequest, "address must be a hex address")
		return
	}
	info, found := h.royalties.RoyaltyInfo(addr)
	if !found {
		writeError(w, http.StatusNotFound, "no royalty registered for collection")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// UpdateFeeRecipient changes where the protocol's cut is paid.
// PUT /api/admin/fee-recipient
func (h *AdminHandler) UpdateFeeRecipient(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.exchange.UpdateProtocolFeeRecipient(req.Address); err != nil {
		writeDomainError(w, err)
		return
	}
	h.record(r.Context(), "admin.fee_recipient.update", map[string]any{"address": req.Address.Hex()})
	writeJSON(w, http.StatusOK, map[string]any{"feeRecipient": h.exchange.ProtocolFeeRecipient()})
}

// AddRelay authorizes an address to submit taker orders for other takers.
// POST /api/admin/relays
func (h *AdminHandler) AddRelay(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.exchange.AddRelay(req.Address); err != nil {
		writeDomainError(w, err)
		return
	}
	h.record(r.Context(), "admin.relay.add", map[string]any{"address": req.Address.Hex()})
	writeJSON(w, http.StatusCreated, map[string]any{"address": req.Address})
}

// RemoveRelay revokes a relay authorization.
// DELETE /api/admin/relays/{address}
func (h *AdminHandler) RemoveRelay(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(r, "address")
	if !ok {
		writeError(w, http.StatusBadRequest, "address must be a hex address")
		return
	}
	if err := h.exchange.RemoveRelay(addr); err != nil {
		writeDomainError(w, err)
		return
	}
	h.record(r.Context(), "admin.relay.remove", map[string]any{"address": addr.Hex()})
	writeJSON(w, http.StatusOK, map[string]any{"address": addr})
}

type archiveRequest struct {
	RetentionDays int `json:"retentionDays"`
}

// TriggerArchive moves matches older than the retention window to cold
// storage.
// POST /api/admin/archive
func (h *AdminHandler) TriggerArchive(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "archival is not configured")
		return
	}

	var req archiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.RetentionDays < 1 {
		writeError(w, http.StatusBadRequest, "retentionDays must be >= 1")
		return
	}

	before := time.Now().UTC().AddDate(0, 0, -req.RetentionDays)
	count, err := h.archiver.ArchiveMatches(r.Context(), before)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "archive matches", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "archive failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"archived": count,
		"before":   before.Format(time.RFC3339),
	})
}

// ListAudit returns recent audit log entries.
// GET /api/admin/audit
func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeError(w, http.StatusServiceUnavailable, "audit log is not configured")
		return
	}
	entries, err := h.audit.List(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list audit entries", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}
