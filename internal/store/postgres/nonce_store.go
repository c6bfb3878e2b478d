package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcmarket/arcx/internal/domain"
)

// NonceStore implements domain.NonceStore using PostgreSQL. The in-memory
// nonce registry is authoritative at runtime; this store is its write-through
// backing so cancellation state survives restarts.
type NonceStore struct {
	pool *pgxpool.Pool
}

// NewNonceStore creates a new NonceStore backed by the given connection pool.
func NewNonceStore(pool *pgxpool.Pool) *NonceStore {
	return &NonceStore{pool: pool}
}

// SetMinNonce raises the signer's persisted cancellation floor.
func (s *NonceStore) SetMinNonce(ctx context.Context, signer common.Address, nonce uint64) error {
	const query = `
		INSERT INTO nonce_floors (signer, min_nonce, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (signer) DO UPDATE
		SET min_nonce = EXCLUDED.min_nonce, updated_at = NOW()`

	if _, err := s.pool.Exec(ctx, query, signer.Hex(), int64(nonce)); err != nil {
		return fmt.Errorf("postgres: set min nonce for %s: %w", signer.Hex(), err)
	}
	return nil
}

// AddUsedNonces marks the listed nonces executed or cancelled for the signer.
func (s *NonceStore) AddUsedNonces(ctx context.Context, signer common.Address, nonces []uint64) error {
	if len(nonces) == 0 {
		return nil
	}

	batchValues := make([]int64, 0, len(nonces))
	for _, n := range nonces {
		batchValues = append(batchValues, int64(n))
	}

	const query = `
		INSERT INTO used_nonces (signer, nonce)
		SELECT $1, unnest($2::BIGINT[])
		ON CONFLICT (signer, nonce) DO NOTHING`

	if _, err := s.pool.Exec(ctx, query, signer.Hex(), batchValues); err != nil {
		return fmt.Errorf("postgres: add used nonces for %s: %w", signer.Hex(), err)
	}
	return nil
}

// LoadAll returns the full persisted cancellation state, one snapshot per
// signer that has any floor or used nonce on record.
func (s *NonceStore) LoadAll(ctx context.Context) ([]domain.NonceSnapshot, error) {
	snapshots := make(map[common.Address]*domain.NonceSnapshot)

	floorRows, err := s.pool.Query(ctx, `SELECT signer, min_nonce FROM nonce_floors`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load nonce floors: %w", err)
	}
	defer floorRows.Close()

	for floorRows.Next() {
		var signerHex string
		var minNonce int64
		if err := floorRows.Scan(&signerHex, &minNonce); err != nil {
			return nil, fmt.Errorf("postgres: scan nonce floor: %w", err)
		}
		signer := common.HexToAddress(signerHex)
		snapshots[signer] = &domain.NonceSnapshot{Signer: signer, MinNonce: uint64(minNonce)}
	}
	if err := floorRows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load nonce floors rows: %w", err)
	}

	usedRows, err := s.pool.Query(ctx, `SELECT signer, nonce FROM used_nonces`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load used nonces: %w", err)
	}
	defer usedRows.Close()

	for usedRows.Next() {
		var signerHex string
		var nonce int64
		if err := usedRows.Scan(&signerHex, &nonce); err != nil {
			return nil, fmt.Errorf("postgres: scan used nonce: %w", err)
		}
		signer := common.HexToAddress(signerHex)
		snap, ok := snapshots[signer]
		if !ok {
			snap = &domain.NonceSnapshot{Signer: signer}
			snapshots[signer] = snap
		}
		snap.UsedNonces = append(snap.UsedNonces, uint64(nonce))
	}
	if err := usedRows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load used nonces rows: %w", err)
	}

	out := make([]domain.NonceSnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, *snap)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.NonceStore = (*NonceStore)(nil)
