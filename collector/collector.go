// Package collector defines the contract between inventory sources and the
// snapshot pipeline.
package collector

import (
	"context"

	"f0oster/zbxspy/inventory"
)

// Source produces the current host inventory. Implementations hold a live
// session against the upstream system; callers must Close an opened source
// on every exit path.
type Source interface {
	// Hosts returns every enabled host known to the source. Optional
	// attributes are normalized to the "N/A" sentinel.
	Hosts(ctx context.Context) ([]inventory.Host, error)

	// Close releases the upstream session.
	Close() error
}
