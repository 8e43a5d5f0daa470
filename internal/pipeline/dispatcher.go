package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/onsite-notifier/internal/domain"
)

// Sender delivers a notification to one destination channel.
type Sender interface {
	Send(ctx context.Context, dest domain.Destination, n domain.Notification) error
}

// Dispatcher fans a notification out to every destination concurrently.
// Delivery is at-most-once with no retry: each send is an independent unit of
// work, and one destination's failure never suppresses sibling sends.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher with a per-send timeout.
func NewDispatcher(sender Sender, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{sender: sender, timeout: timeout, logger: logger}
}

// Dispatch waits for every send to settle and never returns an error; callers
// read per-destination results from the outcomes.
func (d *Dispatcher) Dispatch(ctx context.Context, notification domain.Notification, destinations []domain.Destination) []domain.DispatchOutcome {
	outcomes := make([]domain.DispatchOutcome, len(destinations))

	var wg sync.WaitGroup
	for i, dest := range destinations {
		wg.Add(1)
		go func(i int, dest domain.Destination) {
			defer wg.Done()
			start := time.Now()
			err := d.send(ctx, dest, notification)
			elapsed := time.Since(start)
			outcomes[i] = domain.DispatchOutcome{Destination: dest, Err: err, Duration: elapsed}
			if err != nil {
				d.logger.Error("destination send failed",
					zap.String("destination", dest.Name),
					zap.String("channel_id", dest.ChannelID),
					zap.Duration("elapsed", elapsed),
					zap.Error(err))
				return
			}
			d.logger.Info("notification delivered",
				zap.String("destination", dest.Name),
				zap.Duration("elapsed", elapsed))
		}(i, dest)
	}
	wg.Wait()
	return outcomes
}

// send bounds a single delivery and converts panics into failed outcomes so a
// misbehaving sender cannot take down sibling sends.
func (d *Dispatcher) send(ctx context.Context, dest domain.Destination, n domain.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panic: %v", r)
		}
	}()
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.sender.Send(sendCtx, dest, n)
}
