package main

import (
	"fmt"
	"os"

	"github.com/giovaniif/vending/infra/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vending",
	Short: "Vending is a coin-operated vending machine service",
	Long:  `Vending sells catalog items for tendered cash and returns change greedily from a finite coin ledger.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Machine YAML file (defaults to MACHINE_CONFIG, then the built-in machine)")
}

// loadMachine resolves the machine file from the --config flag, falling back to cfg.MachineConfig.
func loadMachine(cmd *cobra.Command, cfg *config.Config) (config.Machine, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = cfg.MachineConfig
	}
	if path == "" {
		return config.DefaultMachine(), nil
	}
	return config.LoadMachine(path)
}
