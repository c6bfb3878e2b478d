package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcmarket/arcx/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	signerAddr = common.HexToAddress("0xa1")
	callerAddr = common.HexToAddress("0xb1")
)

// stubNonceEngine records calls and returns a scripted error.
type stubNonceEngine struct {
	err      error
	minNonce uint64
	valid    bool
	used     bool
}

func (s *stubNonceEngine) CancelAllOrdersForSender(context.Context, common.Address, uint64) error {
	return s.err
}
func (s *stubNonceEngine) CancelMultipleMakerOrders(context.Context, common.Address, []uint64) error {
	return s.err
}
func (s *stubNonceEngine) IsNonceValid(common.Address, uint64) bool { return s.valid }
func (s *stubNonceEngine) MinOrderNonce(common.Address) uint64      { return s.minNonce }
func (s *stubNonceEngine) IsUserOrderNonceExecutedOrCancelled(common.Address, uint64) bool {
	return s.used
}

func TestOrderCancelAll(t *testing.T) {
	h := NewOrderHandler(&stubNonceEngine{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/orders/cancel-all",
		strings.NewReader(`{"signer":"`+signerAddr.Hex()+`","minNonce":100}`))
	rec := httptest.NewRecorder()
	h.CancelAll(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(100), body["minNonce"])
}

func TestOrderCancelAllMapsDomainErrors(t *testing.T) {
	h := NewOrderHandler(&stubNonceEngine{err: domain.ErrNonceTooLow}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/orders/cancel-all",
		strings.NewReader(`{"signer":"`+signerAddr.Hex()+`","minNonce":1}`))
	rec := httptest.NewRecorder()
	h.CancelAll(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderCancelRejectsUnknownFields(t *testing.T) {
	h := NewOrderHandler(&stubNonceEngine{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/orders/cancel",
		strings.NewReader(`{"signer":"`+signerAddr.Hex()+`","nonces":[1],"bogus":true}`))
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderNonceStatus(t *testing.T) {
	h := NewOrderHandler(&stubNonceEngine{minNonce: 42, valid: true}, testLogger())

	t.Run("signer only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders/nonce?signer="+signerAddr.Hex(), nil)
		rec := httptest.NewRecorder()
		h.NonceStatus(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, float64(42), body["minNonce"])
		assert.NotContains(t, body, "valid")
	})

	t.Run("with nonce", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders/nonce?signer="+signerAddr.Hex()+"&nonce=7", nil)
		rec := httptest.NewRecorder()
		h.NonceStatus(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["valid"])
		assert.Equal(t, false, body["executedOrCancelled"])
	})

	t.Run("bad signer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders/nonce?signer=nope", nil)
		rec := httptest.NewRecorder()
		h.NonceStatus(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad nonce", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders/nonce?signer="+signerAddr.Hex()+"&nonce=-1", nil)
		rec := httptest.NewRecorder()
		h.NonceStatus(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// stubMatchEngine returns a fixed event or a scripted error.
type stubMatchEngine struct {
	ev  domain.MatchEvent
	err error

	gotValue *big.Int
}

func (s *stubMatchEngine) MatchAskWithTakerBid(context.Context, common.Address, domain.TakerOrder, domain.MakerOrder) (domain.MatchEvent, error) {
	return s.ev, s.err
}
func (s *stubMatchEngine) MatchBidWithTakerAsk(context.Context, common.Address, domain.TakerOrder, domain.MakerOrder) (domain.MatchEvent, error) {
	return s.ev, s.err
}
func (s *stubMatchEngine) MatchAskWithTakerBidUsingNative(_ context.Context, _ common.Address, _ domain.TakerOrder, _ domain.MakerOrder, value *big.Int) (domain.MatchEvent, error) {
	s.gotValue = value
	return s.ev, s.err
}

func matchBody() string {
	return `{"caller":"` + callerAddr.Hex() + `","taker":{"taker":"` + callerAddr.Hex() + `"},"maker":{"signer":"` + signerAddr.Hex() + `"}}`
}

func TestMatchTakerBid(t *testing.T) {
	engine := &stubMatchEngine{ev: domain.MatchEvent{ID: "m-1", Side: domain.MatchSideTakerBid}}
	h := NewMatchHandler(engine, nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/matches/taker-bid", strings.NewReader(matchBody()))
	rec := httptest.NewRecorder()
	h.TakerBid(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var ev domain.MatchEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.Equal(t, "m-1", ev.ID)
}

func TestMatchErrorsMapToStatus(t *testing.T) {
	cases := map[error]int{
		domain.ErrNotTaker:                http.StatusForbidden,
		domain.ErrOrderExpiredOrCancelled: http.StatusConflict,
		domain.ErrTransferFailed:          http.StatusConflict,
		domain.ErrInvalidSignature:        http.StatusBadRequest,
		domain.ErrStrategyMismatch:        http.StatusBadRequest,
		errors.New("boom"):                http.StatusInternalServerError,
	}
	for err, want := range cases {
		h := NewMatchHandler(&stubMatchEngine{err: err}, nil, testLogger())
		req := httptest.NewRequest(http.MethodPost, "/api/matches/taker-bid", strings.NewReader(matchBody()))
		rec := httptest.NewRecorder()
		h.TakerBid(rec, req)
		assert.Equal(t, want, rec.Code, "error %v", err)
	}
}

func TestMatchTakerBidNativeRequiresValue(t *testing.T) {
	engine := &stubMatchEngine{ev: domain.MatchEvent{ID: "m-2"}}
	h := NewMatchHandler(engine, nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/matches/taker-bid-native", strings.NewReader(matchBody()))
	rec := httptest.NewRecorder()
	h.TakerBidNative(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := `{"caller":"` + callerAddr.Hex() + `","taker":{},"maker":{},"value":10000}`
	req = httptest.NewRequest(http.MethodPost, "/api/matches/taker-bid-native", strings.NewReader(body))
	rec = httptest.NewRecorder()
	h.TakerBidNative(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, int64(10000), engine.gotValue.Int64())
}

func TestMatchHistoryUnconfigured(t *testing.T) {
	h := NewMatchHandler(&stubMatchEngine{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/matches", nil)
	rec := httptest.NewRecorder()
	h.ListMatches(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		h := NewHealthHandler(map[string]HealthChecker{
			"postgres": func(context.Context) error { return nil },
		}, testLogger())
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()
		h.HealthCheck(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("degraded", func(t *testing.T) {
		h := NewHealthHandler(map[string]HealthChecker{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("down") },
		}, testLogger())
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()
		h.HealthCheck(rec, req)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body["status"])
	})

	t.Run("no checks configured", func(t *testing.T) {
		h := NewHealthHandler(nil, testLogger())
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()
		h.HealthCheck(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestParseListOpts(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?limit=10&offset=20", nil)
	opts := parseListOpts(req)
	assert.Equal(t, 10, opts.Limit)
	assert.Equal(t, 20, opts.Offset)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	opts = parseListOpts(req)
	assert.Equal(t, 50, opts.Limit)
	assert.Equal(t, 0, opts.Offset)

	req = httptest.NewRequest(http.MethodGet, "/x?limit=9999&offset=-3", nil)
	opts = parseListOpts(req)
	assert.Equal(t, 500, opts.Limit)
	assert.Equal(t, 0, opts.Offset)
}
