package bank

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

var ErrInvalidLedger = errors.New("invalid coin ledger")

// Coin is one ledger slot: a face value and how many coins of it are in stock (or were dispensed).
type Coin struct {
	Denomination decimal.Decimal `json:"denomination"`
	Count        int             `json:"count"`
}

// Change is the outcome of a sale. Amount is always tendered minus price; Undispensed is the part
// of it the ledger could not cover with the greedy strategy.
type Change struct {
	Amount      decimal.Decimal
	Dispensed   []Coin
	Undispensed decimal.Decimal
}

func (c Change) Complete() bool {
	return c.Undispensed.IsZero()
}

func (c Change) Coins() int {
	total := 0
	for _, coin := range c.Dispensed {
		total += coin.Count
	}
	return total
}

// Bank is the machine's cash register. The ledger is kept sorted by strictly descending face value.
type Bank struct {
	mutex  sync.Mutex
	total  decimal.Decimal
	ledger []Coin
}

// DefaultCoins is the sterling coin set with ten of each coin.
func DefaultCoins() []Coin {
	faces := []string{"2.00", "1.00", "0.50", "0.20", "0.10", "0.05", "0.02", "0.01"}
	coins := make([]Coin, 0, len(faces))
	for _, face := range faces {
		coins = append(coins, Coin{Denomination: decimal.RequireFromString(face), Count: 10})
	}
	return coins
}

func New(initialTotal decimal.Decimal, coins []Coin) (*Bank, error) {
	if initialTotal.IsNegative() {
		return nil, fmt.Errorf("%w: initial total %s is negative", ErrInvalidLedger, initialTotal)
	}
	ledger := make([]Coin, len(coins))
	copy(ledger, coins)
	sort.Slice(ledger, func(i, j int) bool {
		return ledger[i].Denomination.GreaterThan(ledger[j].Denomination)
	})
	for i, coin := range ledger {
		if !coin.Denomination.IsPositive() {
			return nil, fmt.Errorf("%w: denomination %s must be positive", ErrInvalidLedger, coin.Denomination)
		}
		if coin.Count < 0 {
			return nil, fmt.Errorf("%w: count for %s is negative", ErrInvalidLedger, coin.Denomination)
		}
		if i > 0 && ledger[i-1].Denomination.Equal(coin.Denomination) {
			return nil, fmt.Errorf("%w: denomination %s listed twice", ErrInvalidLedger, coin.Denomination)
		}
	}
	return &Bank{total: initialTotal, ledger: ledger}, nil
}

// GiveChange collects the price and dispenses tendered minus price from the ledger.
// The caller guarantees tendered >= price.
func (b *Bank) GiveChange(price decimal.Decimal, tendered decimal.Decimal) Change {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	change := Change{Amount: tendered.Sub(price), Undispensed: decimal.Zero}
	if change.Amount.IsPositive() {
		change.Dispensed, change.Undispensed = b.dispense(change.Amount)
	}

	b.total = b.total.Add(price)
	return change
}

// dispense takes coins largest first. A tier is used only when it can supply every coin the
// remainder asks of it; otherwise it is skipped whole and the remainder moves to the next tier.
func (b *Bank) dispense(amount decimal.Decimal) ([]Coin, decimal.Decimal) {
	var dispensed []Coin
	remaining := amount
	for i := range b.ledger {
		slot := &b.ledger[i]
		quotient, _ := remaining.QuoRem(slot.Denomination, 0)
		needed := quotient.IntPart()
		if needed <= 0 || int64(slot.Count) < needed {
			continue
		}
		slot.Count -= int(needed)
		remaining = remaining.Sub(slot.Denomination.Mul(decimal.NewFromInt(needed)))
		dispensed = append(dispensed, Coin{Denomination: slot.Denomination, Count: int(needed)})
	}
	return dispensed, remaining
}

func (b *Bank) Total() decimal.Decimal {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.total
}

// Ledger returns a copy of the coin stock in descending face value.
func (b *Bank) Ledger() []Coin {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	ledger := make([]Coin, len(b.ledger))
	copy(ledger, b.ledger)
	return ledger
}

func (b *Bank) Count(denomination decimal.Decimal) (int, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, coin := range b.ledger {
		if coin.Denomination.Equal(denomination) {
			return coin.Count, true
		}
	}
	return 0, false
}
