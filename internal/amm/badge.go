package amm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Badge marks an address as a recognised liquidity provider.
type Badge struct {
	Owner       common.Address
	TokenID     uint64
	MetadataURI string
}

type badgeRegistry struct {
	baseURI string
	nextID  uint64
	byOwner map[common.Address]Badge
	logger  *zap.Logger
}

func newBadgeRegistry(baseURI string, logger *zap.Logger) *badgeRegistry {
	return &badgeRegistry{
		baseURI: baseURI,
		nextID:  1,
		byOwner: make(map[common.Address]Badge),
		logger:  logger,
	}
}

func (r *badgeRegistry) badgeOf(owner common.Address) (Badge, bool) {
	badge, ok := r.byOwner[owner]
	return badge, ok
}

// registerIfAbsent returns the owner's badge, minting one with the next
// sequential id on first call. A BadgeIssuedEvent is queued only when minted.
func (r *badgeRegistry) registerIfAbsent(tx *txn, owner common.Address) Badge {
	if badge, ok := r.byOwner[owner]; ok {
		return badge
	}

	badge := Badge{
		Owner:       owner,
		TokenID:     r.nextID,
		MetadataURI: r.metadataURI(r.nextID),
	}
	r.byOwner[owner] = badge
	r.nextID++
	tx.record(func() {
		delete(r.byOwner, owner)
		r.nextID--
	})
	tx.emit(BadgeIssuedEvent{Badge: badge})

	r.logger.Debug("badge issued", zap.String("owner", owner.Hex()), zap.Uint64("token_id", badge.TokenID))
	return badge
}

func (r *badgeRegistry) metadataURI(tokenID uint64) string {
	return fmt.Sprintf("%s%d.json", r.baseURI, tokenID)
}
