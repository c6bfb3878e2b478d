package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcmarket/arcx/internal/domain"
)

// MatchStore implements domain.MatchStore using PostgreSQL.
type MatchStore struct {
	pool *pgxpool.Pool
}

// NewMatchStore creates a new MatchStore backed by the given connection pool.
func NewMatchStore(pool *pgxpool.Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

const matchColumns = `id, side, order_hash, order_nonce, maker, taker, strategy,
	currency, collection, token_id, amount, price, protocol_fee, royalty_fee,
	royalty_receiver, matched_at`

// Insert stores a completed match event. The (maker, order_nonce) unique
// index doubles as a database-level guard against double settlement.
func (s *MatchStore) Insert(ctx context.Context, ev domain.MatchEvent) error {
	const query = `
		INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := s.pool.Exec(ctx, query,
		ev.ID,
		string(ev.Side),
		ev.OrderHash.Hex(),
		int64(ev.OrderNonce),
		ev.Maker.Hex(),
		ev.Taker.Hex(),
		ev.Strategy.Hex(),
		ev.Currency.Hex(),
		ev.Collection.Hex(),
		ev.TokenID.String(),
		ev.Amount.String(),
		ev.Price.String(),
		ev.ProtocolFee.String(),
		ev.RoyaltyFee.String(),
		ev.RoyaltyReceiver.Hex(),
		ev.MatchedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert match %s: %w", ev.ID, err)
	}
	return nil
}

// GetByID returns the match with the given id, or domain.ErrNotFound.
func (s *MatchStore) GetByID(ctx context.Context, id string) (domain.MatchEvent, error) {
	const query = `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	ev, err := scanMatch(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MatchEvent{}, domain.ErrNotFound
		}
		return domain.MatchEvent{}, fmt.Errorf("postgres: get match %s: %w", id, err)
	}
	return ev, nil
}

// ListRecent returns matches ordered newest first with pagination and
// optional time filtering.
func (s *MatchStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.MatchEvent, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND matched_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND matched_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY matched_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	return s.queryMatches(ctx, query, args...)
}

// ListBefore returns every match settled strictly before the cutoff, oldest
// first, for the archiver.
func (s *MatchStore) ListBefore(ctx context.Context, before time.Time) ([]domain.MatchEvent, error) {
	const query = `SELECT ` + matchColumns + ` FROM matches
		WHERE matched_at < $1 ORDER BY matched_at ASC`
	return s.queryMatches(ctx, query, before)
}

// ListByCollection returns matches for one collection, newest first.
func (s *MatchStore) ListByCollection(ctx context.Context, collection common.Address, opts domain.ListOpts) ([]domain.MatchEvent, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE collection = $1`
	args := []any{collection.Hex()}
	argIdx := 2

	query += " ORDER BY matched_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	return s.queryMatches(ctx, query, args...)
}

// DeleteBefore removes matches settled strictly before the cutoff and
// returns the number deleted. Used by the archiver after a successful
// upload.
func (s *MatchStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM matches WHERE matched_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete matches before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

func (s *MatchStore) queryMatches(ctx context.Context, query string, args ...any) ([]domain.MatchEvent, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list matches: %w", err)
	}
	defer rows.Close()

	var events []domain.MatchEvent
	for rows.Next() {
		ev, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan match: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list matches rows: %w", err)
	}
	return events, nil
}

func scanMatch(row pgx.Row) (domain.MatchEvent, error) {
	var ev domain.MatchEvent
	var side, orderHash, maker, taker string
	var strategy, currency, collection string
	var tokenID, amount, price string
	var protocolFee, royaltyFee, royaltyRcv string
	var orderNonce int64
	err := row.Scan(
		&ev.ID, &side, &orderHash, &orderNonce, &maker, &taker, &strategy,
		&currency, &collection, &tokenID, &amount, &price, &protocolFee,
		&royaltyFee, &royaltyRcv, &ev.MatchedAt,
	)
	if err != nil {
		return domain.MatchEvent{}, err
	}

	ev.Side = domain.MatchSide(side)
	ev.OrderHash = common.HexToHash(orderHash)
	ev.OrderNonce = uint64(orderNonce)
	ev.Maker = common.HexToAddress(maker)
	ev.Taker = common.HexToAddress(taker)
	ev.Strategy = common.HexToAddress(strategy)
	ev.Currency = common.HexToAddress(currency)
	ev.Collection = common.HexToAddress(collection)
	ev.RoyaltyReceiver = common.HexToAddress(royaltyRcv)

	for _, field := range []struct {
		dst **big.Int
		src string
	}{
		{&ev.TokenID, tokenID},
		{&ev.Amount, amount},
		{&ev.Price, price},
		{&ev.ProtocolFee, protocolFee},
		{&ev.RoyaltyFee, royaltyFee},
	} {
		v, ok := new(big.Int).SetString(field.src, 10)
		if !ok {
			return domain.MatchEvent{}, fmt.Errorf("invalid numeric %q", field.src)
		}
		*field.dst = v
	}
	return ev, nil
}

// Compile-time interface check.
var _ domain.MatchStore = (*MatchStore)(nil)
