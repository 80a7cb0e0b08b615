// Package database provides Postgres repository helpers shared across the
// position, inventory, limit, locate, and rule engine stores.
package database

import (
	"context"
)

// HealthChecker is satisfied by any store that can report its own
// connectivity, independent of the domain-specific queries it exposes.
// Domain repository interfaces (position ladder, inventory availability,
// limit headroom, locate request, rule, event log) are defined alongside
// their aggregates rather than in this generic toolkit package.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Ensure Repository implements HealthChecker.
var _ HealthChecker = (*Repository)(nil)
