package config

import (
	"fmt"
	"os"

	"github.com/giovaniif/vending/domain/bank"
	"github.com/giovaniif/vending/domain/item"
	"github.com/giovaniif/vending/domain/money"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Machine is the construction-time setup of a vending machine.
type Machine struct {
	Currency     money.Currency
	InitialTotal decimal.Decimal
	Coins        []bank.Coin
	Catalog      []item.Item
}

type machineFile struct {
	Currency     *string      `yaml:"currency"`
	InitialTotal string       `yaml:"initialTotal"`
	Coins        *[]coinEntry `yaml:"coins"`
	Catalog      *[]itemEntry `yaml:"catalog"`
}

type coinEntry struct {
	Denomination string `yaml:"denomination"`
	Count        int    `yaml:"count"`
}

type itemEntry struct {
	Id    int32  `yaml:"id"`
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
}

// DefaultMachine mirrors the factory setup: sterling, an empty register, ten of each coin and
// three drinks and snacks.
func DefaultMachine() Machine {
	return Machine{
		Currency:     money.NewCurrency("£"),
		InitialTotal: decimal.Zero,
		Coins:        bank.DefaultCoins(),
		Catalog: []item.Item{
			{Id: 1, Name: "Cola", Price: decimal.RequireFromString("1.50")},
			{Id: 2, Name: "Crisps", Price: decimal.RequireFromString("1.25")},
			{Id: 3, Name: "Sprite", Price: decimal.RequireFromString("1.00")},
		},
	}
}

// LoadMachine reads a machine file; an empty path yields DefaultMachine.
func LoadMachine(path string) (Machine, error) {
	if path == "" {
		return DefaultMachine(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Machine{}, fmt.Errorf("read machine config: %w", err)
	}
	machine, err := ParseMachine(data)
	if err != nil {
		return Machine{}, fmt.Errorf("machine config %s: %w", path, err)
	}
	return machine, nil
}

// ParseMachine decodes a machine file. Sections left out of the file keep their defaults.
func ParseMachine(data []byte) (Machine, error) {
	var file machineFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Machine{}, fmt.Errorf("decode yaml: %w", err)
	}

	machine := DefaultMachine()
	if file.Currency != nil {
		machine.Currency = money.NewCurrency(*file.Currency)
	}

	if file.InitialTotal != "" {
		total, err := machine.Currency.Parse(file.InitialTotal)
		if err != nil {
			return Machine{}, fmt.Errorf("initialTotal: %w", err)
		}
		machine.InitialTotal = total
	}

	if file.Coins != nil {
		machine.Coins = make([]bank.Coin, 0, len(*file.Coins))
		for _, entry := range *file.Coins {
			denomination, err := machine.Currency.Parse(entry.Denomination)
			if err != nil {
				return Machine{}, fmt.Errorf("coin %q: %w", entry.Denomination, err)
			}
			machine.Coins = append(machine.Coins, bank.Coin{Denomination: denomination, Count: entry.Count})
		}
	}
	if _, err := bank.New(machine.InitialTotal, machine.Coins); err != nil {
		return Machine{}, err
	}

	if file.Catalog != nil {
		machine.Catalog = make([]item.Item, 0, len(*file.Catalog))
		seen := make(map[int32]bool, len(*file.Catalog))
		for _, entry := range *file.Catalog {
			price, err := machine.Currency.Parse(entry.Price)
			if err != nil {
				return Machine{}, fmt.Errorf("item %d price: %w", entry.Id, err)
			}
			it, err := item.NewItem(entry.Id, entry.Name, price)
			if err != nil {
				return Machine{}, fmt.Errorf("item %d: %w", entry.Id, err)
			}
			if seen[it.Id] {
				return Machine{}, fmt.Errorf("%w: id %d", item.ErrDuplicateId, it.Id)
			}
			seen[it.Id] = true
			machine.Catalog = append(machine.Catalog, it)
		}
	}

	return machine, nil
}
