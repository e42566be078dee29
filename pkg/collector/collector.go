// Package collector produces candidate items from upstream sources. Each
// collector is one origin/query variant and yields a bounded batch of staged
// items that already carry their source URL, context and title text.
package collector

import (
	"context"

	"membrain/pkg/domain"
)

// Collector extracts a bounded batch of candidate items from one upstream
// source. The returned slice preserves upstream order; an extraction failure
// affects only this collector's batch.
type Collector interface {
	Name() string
	Extract(ctx context.Context, limit int) ([]*domain.Item, error)
}
