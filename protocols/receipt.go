package protocols

import (
	"time"

	"github.com/giovaniif/vending/domain/bank"
	"github.com/shopspring/decimal"
)

// Receipt records one completed sale. It is what idempotency stores replay and what events carry.
type Receipt struct {
	TransactionId string          `json:"transactionId"`
	ItemId        int32           `json:"itemId"`
	ItemName      string          `json:"itemName"`
	Price         decimal.Decimal `json:"price"`
	Tendered      decimal.Decimal `json:"tendered"`
	Change        decimal.Decimal `json:"change"`
	Dispensed     []bank.Coin     `json:"dispensed"`
	Undispensed   decimal.Decimal `json:"undispensed"`
	CreatedAt     time.Time       `json:"createdAt"`
}
