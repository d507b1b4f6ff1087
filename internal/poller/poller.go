package poller

import (
	"context"
	"time"

	"nowink/internal/constant"
	"nowink/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	// 超出轮询预算，铸造可能仍在服务端进行
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
)

// Result is the terminal observation of one watch.
type Result struct {
	Outcome     Outcome
	MintAddress string
	Stream      types.Stream
	Attempts    int
	// Failed 时为服务端报告的原因，Pending 时为最后一次查询错误（如有）
	Reason string
}

// StatusSource reads the current state of a stream.
type StatusSource interface {
	GetStream(ctx context.Context, id string) (types.Stream, error)
}

// Sleeper pauses between attempts. It returns early with ctx's error.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Option func(p *Poller)

// WithBudget overrides the fixed interval and attempt budget.
func WithBudget(interval time.Duration, maxAttempts int) Option {
	return func(p *Poller) {
		p.interval = interval
		p.maxAttempts = maxAttempts
	}
}

// WithClock replaces real sleeping and time, for tests.
func WithClock(sleep Sleeper, now func() time.Time) Option {
	return func(p *Poller) {
		p.sleep = sleep
		p.now = now
	}
}

// Poller watches a stream until a mint address appears or the budget runs out.
type Poller struct {
	source      StatusSource
	interval    time.Duration
	maxAttempts int
	sleep       Sleeper
	now         func() time.Time
}

func New(source StatusSource, opts ...Option) *Poller {
	p := &Poller{
		source:      source,
		interval:    constant.PollInterval,
		maxAttempts: constant.PollMaxAttempts,
		sleep:       sleepContext,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll waits one interval before each check. Failed checks count toward the
// budget. Cancelling ctx ends the watch with OutcomePending.
func (p *Poller) Poll(ctx context.Context, streamID string) Result {
	logger := logx.WithContext(ctx)
	pm := NewPendingMint(streamID, p.maxAttempts, p.now().Add(p.interval*time.Duration(p.maxAttempts)))
	logger.Infof("开始轮询铸造状态: stream=%s (最多 %d 次尝试)", streamID, p.maxAttempts)

	for {
		if err := p.sleep(ctx, p.interval); err != nil {
			logger.Infof("停止轮询: %v", err)
			return pm.Abandon(err)
		}

		stream, err := p.source.GetStream(ctx, streamID)
		if err != nil {
			logger.Errorf("查询状态失败 (尝试 %d/%d): %v", pm.Attempts+1, pm.MaxAttempts, err)
		}
		if res, done := pm.Observe(stream, err, p.now()); done {
			logger.Infof("轮询结束: stream=%s outcome=%s attempts=%d", streamID, res.Outcome, res.Attempts)
			return res
		}
	}
}
