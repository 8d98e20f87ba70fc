package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giovaniif/vending/domain/bank"
	"github.com/giovaniif/vending/domain/item"
	"github.com/giovaniif/vending/domain/money"
	protocols "github.com/giovaniif/vending/protocols"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	settleTimeout  = 5 * time.Second
	publishTimeout = 3 * time.Second
)

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrPurchaseInProgress = protocols.ErrIdempotencyKeyProcessing
)

func NewPurchase(
	itemRepository item.Repository,
	register protocols.CashRegister,
	purchaseGateway protocols.PurchaseGateway,
	publisher protocols.EventPublisher,
	recorder protocols.Recorder,
	logger zerolog.Logger,
) *Purchase {
	return &Purchase{
		itemRepository:  itemRepository,
		register:        register,
		purchaseGateway: purchaseGateway,
		publisher:       publisher,
		recorder:        recorder,
		logger:          logger,
		now:             time.Now,
	}
}

// SelectItem sells one item for the tendered amount. Rejected purchases leave stock, ledger and
// running total untouched.
func (p *Purchase) SelectItem(ctx context.Context, input Input) (Output, error) {
	output, err := p.selectItem(ctx, input)
	p.recorder.RecordPurchase(outcome(output, err))
	return output, err
}

func (p *Purchase) selectItem(ctx context.Context, input Input) (Output, error) {
	if input.IdempotencyKey == "" {
		return p.sell(ctx, input)
	}

	result, err := p.purchaseGateway.ReserveIdempotencyKey(ctx, input.IdempotencyKey)
	if err != nil {
		return Output{}, err
	}
	if result != nil {
		output := Output{Replayed: true}
		if result.Receipt != nil {
			output.Receipt = *result.Receipt
		}
		return output, nil
	}

	var output Output
	success := false
	defer func() {
		// settled even when the caller is gone: coins may already have left the register
		settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
		defer cancel()
		var markErr error
		if success {
			markErr = p.purchaseGateway.MarkSuccess(settleCtx, input.IdempotencyKey, output.Receipt)
		} else {
			markErr = p.purchaseGateway.MarkFailure(settleCtx, input.IdempotencyKey)
		}
		if markErr != nil {
			p.logger.Error().Err(markErr).Str("idempotency_key", input.IdempotencyKey).Msg("failed to settle idempotency key")
		}
	}()

	output, err = p.sell(ctx, input)
	if err != nil {
		return Output{}, err
	}

	success = true
	return output, nil
}

func (p *Purchase) sell(ctx context.Context, input Input) (Output, error) {
	selected, found := p.itemRepository.Find(input.ItemId)
	if !found {
		return Output{}, fmt.Errorf("%w: id %d", item.ErrItemNotFound, input.ItemId)
	}

	if input.Tendered.IsNegative() {
		return Output{}, fmt.Errorf("%w: tendered %s is negative", money.ErrInvalidAmount, input.Tendered)
	}

	if !selected.Covers(input.Tendered) {
		return Output{}, fmt.Errorf("%w: %s costs %s, tendered %s", ErrInsufficientFunds, selected.Name, selected.Price, input.Tendered)
	}

	change := p.register.GiveChange(selected.Price, input.Tendered)
	p.recorder.RecordChange(change)

	dispensed := change.Dispensed
	if dispensed == nil {
		dispensed = []bank.Coin{}
	}
	receipt := protocols.Receipt{
		TransactionId: uuid.NewString(),
		ItemId:        selected.Id,
		ItemName:      selected.Name,
		Price:         selected.Price,
		Tendered:      input.Tendered,
		Change:        change.Amount,
		Dispensed:     dispensed,
		Undispensed:   change.Undispensed,
		CreatedAt:     p.now().UTC(),
	}

	event := p.logger.Info()
	if !change.Complete() {
		event = p.logger.Warn().Str("undispensed", change.Undispensed.StringFixed(2))
	}
	event.
		Str("transaction_id", receipt.TransactionId).
		Int32("item_id", selected.Id).
		Str("change", change.Amount.StringFixed(2)).
		Int("coins", change.Coins()).
		Msg("item sold")

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.publisher.Publish(publishCtx, receipt); err != nil {
		p.logger.Error().Err(err).Str("transaction_id", receipt.TransactionId).Msg("failed to publish purchase event")
	}

	return Output{Receipt: receipt}, nil
}

func outcome(output Output, err error) string {
	switch {
	case err == nil && output.Replayed:
		return protocols.OutcomeReplayed
	case err == nil:
		return protocols.OutcomeSucceeded
	case errors.Is(err, item.ErrItemNotFound):
		return protocols.OutcomeItemNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return protocols.OutcomeInsufficientFunds
	case errors.Is(err, money.ErrInvalidAmount):
		return protocols.OutcomeInvalidAmount
	case errors.Is(err, ErrPurchaseInProgress):
		return protocols.OutcomeInProgress
	default:
		return protocols.OutcomeError
	}
}

type Input struct {
	ItemId         int32
	Tendered       decimal.Decimal
	IdempotencyKey string
}

type Output struct {
	Receipt  protocols.Receipt
	Replayed bool
}

type Purchase struct {
	itemRepository  item.Repository
	register        protocols.CashRegister
	purchaseGateway protocols.PurchaseGateway
	publisher       protocols.EventPublisher
	recorder        protocols.Recorder
	logger          zerolog.Logger
	now             func() time.Time
}
