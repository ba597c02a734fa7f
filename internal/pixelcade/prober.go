package pixelcade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marqueed/internal/retry"
	logx "marqueed/pkg/logx"
)

// ErrUnresponsive marks a controller that stayed down through the prober's
// whole retry budget. It is distinct from a single transient probe failure.
var ErrUnresponsive = errors.New("pixelcade: unresponsive")

// Prober issues a bounded-retry liveness check against the display
// controller. It never mutates cache or schedule state.
type Prober struct {
	client  *Client
	policy  retry.Policy
	timeout time.Duration
	log     logx.Logger
}

// NewProber wires the default probe policy: 3 attempts, 2s apart, each
// bounded by timeout.
func NewProber(c *Client, timeout time.Duration, log logx.Logger) *Prober {
	return &Prober{
		client:  c,
		policy:  retry.Policy{MaxAttempts: 3, Delay: 2 * time.Second},
		timeout: timeout,
		log:     log,
	}
}

// Probe returns nil when the controller responds. After exhausting retries it
// returns an error wrapping ErrUnresponsive; a canceled context surfaces as
// the context error.
func (p *Prober) Probe(ctx context.Context) error {
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		if err := p.client.health(ctx, p.timeout); err != nil {
			p.log.Warn("pixelcade not responding", logx.Err(err))
			return err
		}
		return nil
	})
	if err == nil {
		p.log.Debug("pixelcade is responsive")
		return nil
	}
	if errors.Is(err, retry.ErrExhausted) {
		return fmt.Errorf("%w: %v", ErrUnresponsive, err)
	}
	return err
}
