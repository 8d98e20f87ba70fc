package events

import (
	"context"
	"math"
	"time"

	"github.com/giovaniif/vending/infra"
	protocols "github.com/giovaniif/vending/protocols"
)

var (
	MAX_RETRIES = 5
	BASE_DELAY  = 100 * time.Millisecond
)

// PublisherRetrying retries retriable publish errors with exponential backoff.
type PublisherRetrying struct {
	next    protocols.EventPublisher
	sleeper protocols.Sleeper
}

func NewPublisherRetrying(next protocols.EventPublisher, sleeper protocols.Sleeper) *PublisherRetrying {
	return &PublisherRetrying{next: next, sleeper: sleeper}
}

func (p *PublisherRetrying) Publish(ctx context.Context, receipt protocols.Receipt) error {
	var lastError error

	for i := 0; i < MAX_RETRIES; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := p.next.Publish(ctx, receipt)
		if err == nil {
			return nil
		}
		if !infra.IsRetriable(err) {
			return err
		}
		lastError = err

		if i < MAX_RETRIES-1 {
			delay := time.Duration(math.Pow(2, float64(i))) * BASE_DELAY
			if err := p.sleeper.Sleep(ctx, delay); err != nil {
				return err
			}
		}
	}

	return lastError
}
