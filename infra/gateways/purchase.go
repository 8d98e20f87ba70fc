package gateways

import (
	"context"
	"sync"

	protocols "github.com/giovaniif/vending/protocols"
)

const (
	statusProcessing = "processing"
	statusSuccess    = "success"
)

type PurchaseGatewayMemory struct {
	mutex           sync.RWMutex
	idempotencyKeys map[string]*PurchaseState
}

type PurchaseState struct {
	Status string
	Result *protocols.PurchaseIdempotencyKeyResult
}

func NewPurchaseGatewayMemory() *PurchaseGatewayMemory {
	return &PurchaseGatewayMemory{
		idempotencyKeys: make(map[string]*PurchaseState),
	}
}

func (g *PurchaseGatewayMemory) ReserveIdempotencyKey(ctx context.Context, idempotencyKey string) (*protocols.PurchaseIdempotencyKeyResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	g.mutex.Lock()
	defer g.mutex.Unlock()
	state, exists := g.idempotencyKeys[idempotencyKey]
	if exists {
		if state.Status == statusSuccess {
			return state.Result, nil
		}

		if state.Status == statusProcessing {
			return nil, protocols.ErrIdempotencyKeyProcessing
		}

		delete(g.idempotencyKeys, idempotencyKey)
	}

	g.idempotencyKeys[idempotencyKey] = &PurchaseState{
		Status: statusProcessing,
	}
	return nil, nil
}

func (g *PurchaseGatewayMemory) MarkFailure(ctx context.Context, idempotencyKey string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	delete(g.idempotencyKeys, idempotencyKey)
	return nil
}

func (g *PurchaseGatewayMemory) MarkSuccess(ctx context.Context, idempotencyKey string, receipt protocols.Receipt) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if state, exists := g.idempotencyKeys[idempotencyKey]; exists {
		state.Status = statusSuccess
		state.Result = &protocols.PurchaseIdempotencyKeyResult{
			Success: true,
			Receipt: &receipt,
		}
	}

	return nil
}
