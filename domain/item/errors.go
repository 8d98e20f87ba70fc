package item

import (
	"errors"
	"fmt"

	"github.com/giovaniif/vending/domain/money"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrDuplicateId  = errors.New("item id already in stock")
	ErrInvalidName  = errors.New("item name must not be empty")
	ErrInvalidPrice = fmt.Errorf("%w: item price must not be negative", money.ErrInvalidAmount)
)
