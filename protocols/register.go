package protocols

import (
	"github.com/giovaniif/vending/domain/bank"
	"github.com/shopspring/decimal"
)

type CashRegister interface {
	GiveChange(price decimal.Decimal, tendered decimal.Decimal) bank.Change
}
