package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcmarket/arcx/internal/domain"
)

// RoyaltyStore implements domain.RoyaltyStore using PostgreSQL.
type RoyaltyStore struct {
	pool *pgxpool.Pool
}

// NewRoyaltyStore creates a new RoyaltyStore backed by the given connection
// pool.
func NewRoyaltyStore(pool *pgxpool.Pool) *RoyaltyStore {
	return &RoyaltyStore{pool: pool}
}

// Upsert stores or replaces the royalty policy for a collection.
func (s *RoyaltyStore) Upsert(ctx context.Context, info domain.RoyaltyInfo) error {
	const query = `
		INSERT INTO royalties (collection, setter, receiver, fee_bps, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (collection) DO UPDATE
		SET setter = EXCLUDED.setter,
		    receiver = EXCLUDED.receiver,
		    fee_bps = EXCLUDED.fee_bps,
		    updated_at = NOW()`

	_, err := s.pool.Exec(ctx, query,
		info.Collection.Hex(),
		info.Setter.Hex(),
		info.Receiver.Hex(),
		int32(info.FeeBps),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert royalty for %s: %w", info.Collection.Hex(), err)
	}
	return nil
}

// LoadAll returns every persisted royalty policy.
func (s *RoyaltyStore) LoadAll(ctx context.Context) ([]domain.RoyaltyInfo, error) {
	rows, err := s.pool.Query(ctx, `SELECT collection, setter, receiver, fee_bps FROM royalties`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load royalties: %w", err)
	}
	defer rows.Close()

	var infos []domain.RoyaltyInfo
	for rows.Next() {
		var collection, setter, receiver string
		var feeBps int32
		if err := rows.Scan(&collection, &setter, &receiver, &feeBps); err != nil {
			return nil, fmt.Errorf("postgres: scan royalty: %w", err)
		}
		infos = append(infos, domain.RoyaltyInfo{
			Collection: common.HexToAddress(collection),
			Setter:     common.HexToAddress(setter),
			Receiver:   common.HexToAddress(receiver),
			FeeBps:     uint16(feeBps),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load royalties rows: %w", err)
	}
	return infos, nil
}

// Compile-time interface check.
var _ domain.RoyaltyStore = (*RoyaltyStore)(nil)
