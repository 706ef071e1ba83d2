package session

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/loftysky/sgsession/core"
)

// BreakerRemote wraps a Remote with a circuit breaker so a flapping service
// fails fast instead of stalling every accessor behind timeouts.
type BreakerRemote struct {
	remote core.Remote
	cb     *gobreaker.CircuitBreaker
}

var _ core.Remote = (*BreakerRemote)(nil)

// NewBreakerRemote decorates remote with a circuit breaker. By default the
// breaker opens after five consecutive failures and probes again after
// thirty seconds; override via optFns.
func NewBreakerRemote(remote core.Remote, optFns ...func(*gobreaker.Settings)) *BreakerRemote {
	settings := gobreaker.Settings{
		Name:    "sgsession-remote",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	for _, fn := range optFns {
		fn(&settings)
	}
	return &BreakerRemote{remote: remote, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Read implements core.Remote.
func (b *BreakerRemote) Read(ctx context.Context, entityType string, ids []int64, fields []string) ([]core.Record, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.remote.Read(ctx, entityType, ids, fields)
	})
	if err != nil {
		return nil, err
	}
	return res.([]core.Record), nil
}

// ReadLinked implements core.Remote.
func (b *BreakerRemote) ReadLinked(ctx context.Context, entityType, field string, targets []core.Ref, fields []string) ([]core.Record, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.remote.ReadLinked(ctx, entityType, field, targets, fields)
	})
	if err != nil {
		return nil, err
	}
	return res.([]core.Record), nil
}
