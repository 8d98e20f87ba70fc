package stock

import (
	"fmt"

	"github.com/giovaniif/vending/domain/item"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Stock struct {
	itemRepository item.Repository
	logger         zerolog.Logger
}

func NewStock(itemRepository item.Repository, logger zerolog.Logger) *Stock {
	return &Stock{
		itemRepository: itemRepository,
		logger:         logger,
	}
}

func (s *Stock) AddStockItem(input Input) (item.Item, error) {
	newItem, err := item.NewItem(input.Id, input.Name, input.Price)
	if err != nil {
		return item.Item{}, err
	}

	if err := s.itemRepository.Add(newItem); err != nil {
		return item.Item{}, err
	}

	s.logger.Info().
		Int32("item_id", newItem.Id).
		Str("name", newItem.Name).
		Str("price", newItem.Price.StringFixed(2)).
		Msg("added stock item")
	return newItem, nil
}

func (s *Stock) RemoveStockItem(itemId int32) error {
	if !s.itemRepository.Remove(itemId) {
		return fmt.Errorf("%w: id %d", item.ErrItemNotFound, itemId)
	}

	s.logger.Info().Int32("item_id", itemId).Msg("removed stock item")
	return nil
}

func (s *Stock) ListItems() []item.Item {
	return s.itemRepository.List()
}

type Input struct {
	Id    int32
	Name  string
	Price decimal.Decimal
}
