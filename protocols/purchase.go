package protocols

import (
	"context"
	"errors"
)

var ErrIdempotencyKeyProcessing = errors.New("idempotency key is already being processed")

type PurchaseIdempotencyKeyResult struct {
	Success bool     `json:"success"`
	Receipt *Receipt `json:"receipt,omitempty"`
}

type PurchaseGateway interface {
	ReserveIdempotencyKey(ctx context.Context, idempotencyKey string) (*PurchaseIdempotencyKeyResult, error)
	MarkFailure(ctx context.Context, idempotencyKey string) error
	MarkSuccess(ctx context.Context, idempotencyKey string, receipt Receipt) error
}
