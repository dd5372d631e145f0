package access

import (
	"context"

	models "dealdesk/internal/domain/models/access"
)

// cacheContextKey is the type for decision cache context keys
type cacheContextKey string

// cacheKey is the context key for storing the per-request decision cache
const cacheKey cacheContextKey = "access_decisions"

// decisionCache memoizes evaluator verdicts for the lifetime of one request
// or transaction. Requests are handled by a single goroutine, so no locking
// is needed; a fresh cache is installed per request by the middleware.
type decisionCache struct {
	decisions map[decisionKey]models.Level
}

type decisionKey struct {
	userID     string
	resourceID string
}

// WithDecisionCache installs a fresh decision cache in the context. The same
// pattern as transactions-in-context: repositories and services lower in the
// stack pick it up transparently.
func WithDecisionCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, cacheKey, &decisionCache{
		decisions: make(map[decisionKey]models.Level),
	})
}

// cacheFrom retrieves the decision cache from the context.
// Returns nil if none is installed; evaluation still works, uncached.
func cacheFrom(ctx context.Context) *decisionCache {
	cache, ok := ctx.Value(cacheKey).(*decisionCache)
	if !ok {
		return nil
	}
	return cache
}

func (c *decisionCache) get(userID, resourceID string) (models.Level, bool) {
	level, ok := c.decisions[decisionKey{userID: userID, resourceID: resourceID}]
	return level, ok
}

func (c *decisionCache) put(userID, resourceID string, level models.Level) {
	c.decisions[decisionKey{userID: userID, resourceID: resourceID}] = level
}
