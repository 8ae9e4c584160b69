package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/flasharb/utils"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <token>",
	Short: "Show the engine's held balance of a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()

		a, err := newApp(log)
		if err != nil {
			return err
		}
		defer a.Close()

		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("token must be a hex address")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.NetworkTimeout)
		defer cancel()

		balance, err := a.treasury.Balance(ctx, common.HexToAddress(args[0]))
		if err != nil {
			return err
		}

		fmt.Println(balance.String())
		return nil
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <token>",
	Short: "Withdraw the engine's full balance of a token to the owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()

		a, err := newApp(log)
		if err != nil {
			return err
		}
		defer a.Close()

		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("token must be a hex address")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.NetworkTimeout)
		defer cancel()

		if err := a.treasury.Withdraw(ctx, a.tx.From(), common.HexToAddress(args[0])); err != nil {
			return err
		}

		log.Info("Withdrawal submitted", zap.String("token", args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(withdrawCmd)
}
