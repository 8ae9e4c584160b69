package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/michaelpento.lv/flasharb/utils"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "flasharb",
	Short: "A flash-loan arbitrage executor",
	Long: `A flash-loan arbitrage executor: borrows the base asset from a
lending pool, routes it through a two-leg swap, and repays the loan plus
premium from the proceeds, keeping the surplus.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.flasharb.json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	utils.InitLogger(debug)
}
