package session

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/loftysky/sgsession/core"
)

// RateLimitedRemote paces reads against the service's request budget.
// Every call waits for a limiter token before touching the wrapped Remote,
// so bulk operations spread out instead of bursting.
type RateLimitedRemote struct {
	remote  core.Remote
	limiter *rate.Limiter
}

var _ core.Remote = (*RateLimitedRemote)(nil)

// NewRateLimitedRemote allows rps requests per second with the given burst.
func NewRateLimitedRemote(remote core.Remote, rps float64, burst int) *RateLimitedRemote {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedRemote{remote: remote, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Read implements core.Remote.
func (r *RateLimitedRemote) Read(ctx context.Context, entityType string, ids []int64, fields []string) ([]core.Record, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.remote.Read(ctx, entityType, ids, fields)
}

// ReadLinked implements core.Remote.
func (r *RateLimitedRemote) ReadLinked(ctx context.Context, entityType, field string, targets []core.Ref, fields []string) ([]core.Record, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.remote.ReadLinked(ctx, entityType, field, targets, fields)
}
