package main

import (
	"fmt"
	"io"

	"github.com/giovaniif/vending/domain/bank"
	"github.com/giovaniif/vending/infra/config"
	"github.com/giovaniif/vending/infra/repositories"
	"github.com/giovaniif/vending/use_cases/stock"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Print the catalog and coin ledger the machine would start with",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		machine, err := loadMachine(cmd, cfg)
		if err != nil {
			return fmt.Errorf("load machine: %w", err)
		}
		return printStock(cmd.OutOrStdout(), machine)
	},
}

func init() {
	rootCmd.AddCommand(stockCmd)
}

func printStock(out io.Writer, machine config.Machine) error {
	itemRepository, err := repositories.NewItemRepositoryMemoryWith(machine.Catalog)
	if err != nil {
		return err
	}
	register, err := bank.New(machine.InitialTotal, machine.Coins)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Items:")
	for _, it := range stock.NewStock(itemRepository, zerolog.Nop()).ListItems() {
		fmt.Fprintln(out, "  "+it.Display(machine.Currency))
	}
	fmt.Fprintln(out, "Coins:")
	for _, coin := range register.Ledger() {
		fmt.Fprintf(out, "  %s x %d\n", machine.Currency.Format(coin.Denomination), coin.Count)
	}
	fmt.Fprintf(out, "Collected: %s\n", machine.Currency.Format(register.Total()))
	return nil
}
