package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// NonceEngine is the cancellation surface the order handler drives.
type NonceEngine interface {
	CancelAllOrdersForSender(ctx context.Context, signer common.Address, newMinNonce uint64) error
	CancelMultipleMakerOrders(ctx context.Context, signer common.Address, nonces []uint64) error
	IsNonceValid(signer common.Address, nonce uint64) bool
	MinOrderNonce(signer common.Address) uint64
	IsUserOrderNonceExecutedOrCancelled(signer common.Address, nonce uint64) bool
}

// OrderHandler serves order cancellation and nonce inspection endpoints.
type OrderHandler struct {
	engine NonceEngine
	logger *slog.Logger
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(engine NonceEngine, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		engine: engine,
		logger: logHandler(logger, "order"),
	}
}

type cancelAllRequest struct {
	Signer   common.Address `json:"signer"`
	MinNonce uint64         `json:"minNonce"`
}

type cancelRequest struct {
	Signer common.Address `json:"signer"`
	Nonces []uint64       `json:"nonces"`
}

// CancelAll raises the signer's minimum order nonce.
// POST /api/orders/cancel-all
func (h *OrderHandler) CancelAll(w http.ResponseWriter, r *http.Request) {
	var req cancelAllRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.engine.CancelAllOrdersForSender(r.Context(), req.Signer, req.MinNonce); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"signer":   req.Signer,
		"minNonce": req.MinNonce,
	})
}

// Cancel invalidates the listed order nonces for the signer.
// POST /api/orders/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.engine.CancelMultipleMakerOrders(r.Context(), req.Signer, req.Nonces); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"signer":    req.Signer,
		"cancelled": len(req.Nonces),
	})
}

// NonceStatus reports the signer's cancellation floor and, when a nonce is
// given, whether that nonce is still usable.
// GET /api/orders/nonce?signer=0x..&nonce=N
func (h *OrderHandler) NonceStatus(w http.ResponseWriter, r *http.Request) {
	signer, ok := queryAddress(r, "signer")
	if !ok {
		writeError(w, http.StatusBadRequest, "signer must be a hex address")
		return
	}

	resp := map[string]any{
		"signer":   signer,
		"minNonce": h.engine.MinOrderNonce(signer),
	}

	if v := r.URL.Query().Get("nonce"); v != "" {
		nonce, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "nonce must be an unsigned integer")
			return
		}
		resp["nonce"] = nonce
		resp["valid"] = h.engine.IsNonceValid(signer, nonce)
		resp["executedOrCancelled"] = h.engine.IsUserOrderNonceExecutedOrCancelled(signer, nonce)
	}

	writeJSON(w, http.StatusOK, resp)
}
