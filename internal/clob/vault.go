package clob

import "context"

// TokenVault is the opaque token-transfer collaborator named in §6: two
// entry points, both assumed atomic with the surrounding call. Market
// never inspects vault internals; internal/vault supplies the concrete
// in-memory ledger used by cmd/clobd, wrapped in a circuit breaker since a
// real vault call would cross a process boundary.
type TokenVault interface {
	TransferIn(ctx context.Context, owner string, side AssetSide, amount uint64) error
	TransferOut(ctx context.Context, owner string, side AssetSide, amount uint64) error
}
