package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// MatchEngine is the exchange surface the match handler drives.
type MatchEngine interface {
	MatchAskWithTakerBid(ctx context.Context, caller common.Address, taker domain.TakerOrder, maker domain.MakerOrder) (domain.MatchEvent, error)
	MatchBidWithTakerAsk(ctx context.Context, caller common.Address, taker domain.TakerOrder, maker domain.MakerOrder) (domain.MatchEvent, error)
	MatchAskWithTakerBidUsingNative(ctx context.Context, caller common.Address, taker domain.TakerOrder, maker domain.MakerOrder, value *big.Int) (domain.MatchEvent, error)
}

// MatchHandler serves match submission and match history endpoints.
type MatchHandler struct {
	engine  MatchEngine
	matches domain.MatchStore // nil when no match store is configured
	logger  *slog.Logger
}

// NewMatchHandler creates a MatchHandler. matches may be nil; history
// endpoints then return 503.
func NewMatchHandler(engine MatchEngine, matches domain.MatchStore, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		engine:  engine,
		matches: matches,
		logger:  logHandler(logger, "match"),
	}
}

// matchRequest is the payload for all three match endpoints. Caller is the
// authenticated submitter; Value is only read on the native endpoint.
type matchRequest struct {
	Caller common.Address    `json:"caller"`
	Taker  domain.TakerOrder `json:"taker"`
	Maker  domain.MakerOrder `json:"maker"`
	Value  *big.Int          `json:"value,omitempty"`
}

// TakerBid settles a maker ask against a taker bid.
// POST /api/matches/taker-bid
func (h *MatchHandler) TakerBid(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ev, err := h.engine.MatchAskWithTakerBid(r.Context(), req.Caller, req.Taker, req.Maker)
	if err != nil {
		h.logger.WarnContext(r.Context(), "taker bid rejected", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// TakerAsk settles a maker bid against a taker ask.
// POST /api/matches/taker-ask
func (h *MatchHandler) TakerAsk(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ev, err := h.engine.MatchBidWithTakerAsk(r.Context(), req.Caller, req.Taker, req.Maker)
	if err != nil {
		h.logger.WarnContext(r.Context(), "taker ask rejected", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// TakerBidNative settles a maker ask against a taker bid funded from the
// taker's native balance.
// POST /api/matches/taker-bid-native
func (h *MatchHandler) TakerBidNative(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required for native settlement")
		return
	}

	ev, err := h.engine.MatchAskWithTakerBidUsingNative(r.Context(), req.Caller, req.Taker, req.Maker, req.Value)
	if err != nil {
		h.logger.WarnContext(r.Context(), "native taker bid rejected", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// ListMatches returns recent matches, optionally filtered by collection.
// GET /api/matches?collection=0x..&limit=&offset=
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	if h.matches == nil {
		writeError(w, http.StatusServiceUnavailable, "match history is not configured")
		return
	}

	opts := parseListOpts(r)

	var events []domain.MatchEvent
	var err error
	if collection, ok := queryAddress(r, "collection"); ok {
		events, err = h.matches.ListByCollection(r.Context(), collection, opts)
	} else {
		events, err = h.matches.ListRecent(r.Context(), opts)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list matches", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}
	if events == nil {
		events = []domain.MatchEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": events, "count": len(events)})
}

// GetMatch returns a single match by id.
// GET /api/matches/{id}
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	if h.matches == nil {
		writeError(w, http.StatusServiceUnavailable, "match history is not configured")
		return
	}

	ev, err := h.matches.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
