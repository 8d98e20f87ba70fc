package events

import (
	"context"
	"sync"

	protocols "github.com/giovaniif/vending/protocols"
)

// PublisherMemory keeps published receipts in process. Used when no broker is configured.
type PublisherMemory struct {
	mutex     sync.RWMutex
	published []protocols.Receipt
}

func NewPublisherMemory() *PublisherMemory {
	return &PublisherMemory{}
}

func (p *PublisherMemory) Publish(ctx context.Context, receipt protocols.Receipt) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.published = append(p.published, receipt)
	return nil
}

func (p *PublisherMemory) Published() []protocols.Receipt {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return append([]protocols.Receipt(nil), p.published...)
}
