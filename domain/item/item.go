package item

import (
	"fmt"
	"strings"

	"github.com/giovaniif/vending/domain/money"
	"github.com/shopspring/decimal"
)

// Item is a purchasable product. It is passed by value so holders cannot change a stocked entry.
type Item struct {
	Id    int32
	Name  string
	Price decimal.Decimal
}

func NewItem(id int32, name string, price decimal.Decimal) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, ErrInvalidName
	}
	if price.IsNegative() {
		return Item{}, fmt.Errorf("%w: %s", ErrInvalidPrice, price.String())
	}
	return Item{Id: id, Name: name, Price: price}, nil
}

// Covers reports whether the tendered amount pays for the item.
func (i Item) Covers(tendered decimal.Decimal) bool {
	return tendered.GreaterThanOrEqual(i.Price)
}

func (i Item) Display(currency money.Currency) string {
	return fmt.Sprintf("%d. %s - %s", i.Id, i.Name, currency.Format(i.Price))
}
