package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a domain error to its HTTP status and writes it.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err.Error())
}

// statusForError maps domain sentinel errors to HTTP status codes. Rejections
// of the request itself are 400, authorization failures 403, conflicts with
// current exchange state 409, unknown resources 404, everything else 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotTaker):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOrderExpiredOrCancelled),
		errors.Is(err, domain.ErrNonceAlreadyUsed),
		errors.Is(err, domain.ErrLockHeld),
		errors.Is(err, domain.ErrTransferFailed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidSignature),
		errors.Is(err, domain.ErrOrderNotInWindow),
		errors.Is(err, domain.ErrWrongSides),
		errors.Is(err, domain.ErrZeroAmount),
		errors.Is(err, domain.ErrCurrencyNotWhitelisted),
		errors.Is(err, domain.ErrStrategyNotWhitelisted),
		errors.Is(err, domain.ErrStrategyMismatch),
		errors.Is(err, domain.ErrMinPercentageViolated),
		errors.Is(err, domain.ErrUnsupportedCollection),
		errors.Is(err, domain.ErrNonceTooLow),
		errors.Is(err, domain.ErrNonceCeilingExceeded),
		errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, domain.ErrOverpaymentRejected),
		errors.Is(err, domain.ErrCurrencyMismatchForNative),
		errors.Is(err, domain.ErrZeroAddress),
		errors.Is(err, domain.ErrRoyaltyFeeTooHigh):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON parses the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// parseListOpts extracts standard pagination parameters from the query string.
// Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
}

// pathAddress extracts a named path parameter and parses it as a hex address.
func pathAddress(r *http.Request, name string) (common.Address, bool) {
	v := r.PathValue(name)
	if !common.IsHexAddress(v) {
		return common.Address{}, false
	}
	return common.HexToAddress(v), true
}

// queryAddress parses a hex address from the query string.
func queryAddress(r *http.Request, name string) (common.Address, bool) {
	v := r.URL.Query().Get(name)
	if !common.IsHexAddress(v) {
		return common.Address{}, false
	}
	return common.HexToAddress(v), true
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
