package checkout

import "context"

// Cache bridges the client-computed cart total at "begin checkout" to the
// server-side payment confirmation. Entries live for a fixed TTL and are
// cleared explicitly after a successful confirm.
type Cache interface {
	Store(ctx context.Context, calc Calculation) error
	Get(ctx context.Context, orderNo string) (Calculation, error)
	Clear(ctx context.Context, orderNo string) error
}
