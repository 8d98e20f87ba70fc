package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	protocols "github.com/giovaniif/vending/protocols"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idempotency:purchase:"
	idempotencyTTL       = 24 * time.Hour
)

type purchaseRedisState struct {
	Status string                                  `json:"status"`
	Result *protocols.PurchaseIdempotencyKeyResult `json:"result,omitempty"`
}

type PurchaseGatewayRedis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPurchaseGatewayRedis(client *redis.Client) *PurchaseGatewayRedis {
	return &PurchaseGatewayRedis{client: client, ttl: idempotencyTTL}
}

func (g *PurchaseGatewayRedis) key(idempotencyKey string) string {
	return idempotencyKeyPrefix + idempotencyKey
}

func (g *PurchaseGatewayRedis) ReserveIdempotencyKey(ctx context.Context, idempotencyKey string) (*protocols.PurchaseIdempotencyKeyResult, error) {
	k := g.key(idempotencyKey)

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		data, err := g.client.Get(ctx, k).Bytes()
		if err == redis.Nil {
			raw, _ := json.Marshal(purchaseRedisState{Status: statusProcessing})
			_, err := g.client.SetArgs(ctx, k, raw, redis.SetArgs{Mode: "NX", TTL: g.ttl}).Result()
			if err == redis.Nil {
				// lost the race to another request, read its state
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("redis set: %w", err)
			}
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("redis get: %w", err)
		}

		var state purchaseRedisState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("redis unmarshal: %w", err)
		}

		switch state.Status {
		case statusSuccess:
			return state.Result, nil
		case statusProcessing:
			return nil, protocols.ErrIdempotencyKeyProcessing
		default:
			err := g.takeOver(ctx, k, data)
			if errors.Is(err, redis.TxFailedErr) {
				// someone else changed the key first, read its state
				continue
			}
			if err != nil {
				return nil, err
			}
			return nil, nil
		}
	}
}

// takeOver reserves a key holding an unknown state, only if it still holds exactly stale.
func (g *PurchaseGatewayRedis) takeOver(ctx context.Context, k string, stale []byte) error {
	raw, _ := json.Marshal(purchaseRedisState{Status: statusProcessing})
	return g.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Bytes()
		if err == redis.Nil || (err == nil && !bytes.Equal(current, stale)) {
			return redis.TxFailedErr
		}
		if err != nil {
			return fmt.Errorf("redis get: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, raw, g.ttl)
			return nil
		})
		return err
	}, k)
}

func (g *PurchaseGatewayRedis) MarkFailure(ctx context.Context, idempotencyKey string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return g.client.Del(ctx, g.key(idempotencyKey)).Err()
}

func (g *PurchaseGatewayRedis) MarkSuccess(ctx context.Context, idempotencyKey string, receipt protocols.Receipt) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	state := purchaseRedisState{
		Status: statusSuccess,
		Result: &protocols.PurchaseIdempotencyKeyResult{Success: true, Receipt: &receipt},
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return g.client.Set(ctx, g.key(idempotencyKey), raw, g.ttl).Err()
}
