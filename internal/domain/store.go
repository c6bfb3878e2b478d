package domain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// MatchStore persists completed match events, the durable audit trail.
type MatchStore interface {
	Insert(ctx context.Context, ev MatchEvent) error
	GetByID(ctx context.Context, id string) (MatchEvent, error)
	ListRecent(ctx context.Context, opts ListOpts) ([]MatchEvent, error)
	ListBefore(ctx context.Context, before time.Time) ([]MatchEvent, error)
	ListByCollection(ctx context.Context, collection common.Address, opts ListOpts) ([]MatchEvent, error)
}

// NonceSnapshot is the persisted cancellation state for one signer.
type NonceSnapshot struct {
	Signer     common.Address
	MinNonce   uint64
	UsedNonces []uint64
}

// NonceStore persists per-signer cancellation state so the registry survives
// restarts. The in-memory registry is authoritative during operation; writes
// go through before the corresponding memory mutation is acknowledged.
type NonceStore interface {
	SetMinNonce(ctx context.Context, signer common.Address, nonce uint64) error
	AddUsedNonces(ctx context.Context, signer common.Address, nonces []uint64) error
	LoadAll(ctx context.Context) ([]NonceSnapshot, error)
}

// RoyaltyStore persists the royalty fee registry.
type RoyaltyStore interface {
	Upsert(ctx context.Context, info RoyaltyInfo) error
	LoadAll(ctx context.Context) ([]RoyaltyInfo, error)
}

// AuditEntry is one recorded administrative or archival action.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// AuditStore records administrative and archival actions.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
