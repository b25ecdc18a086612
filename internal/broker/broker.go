// Package broker provides the boundary to market-data and trade-book
// providers. Implementations normalize venue data into models types; the
// analytics engines never talk to a venue directly.
package broker

import (
	"context"
	"time"

	"options-toolbox/internal/models"
)

// SnapshotSource supplies normalized option-chain snapshots. Callers thread
// a context with a deadline; implementations must return
// errors.ErrSnapshotTimeout (wrapped) when the deadline expires, and the
// caller skips the symbol for that round rather than retrying.
type SnapshotSource interface {
	GetOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error)
}

// TradeSource supplies the normalized trade tape for reconciliation. Fills
// are returned in ascending trade-time order.
type TradeSource interface {
	GetTradeBook(ctx context.Context, from, to time.Time) ([]models.TradeFill, error)
}
