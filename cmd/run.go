package cmd

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/flasharb/flashloan"
	"github.com/michaelpento.lv/flasharb/utils"
)

var (
	runTarget   string
	runAmount   string
	runFeeTier  uint32
	runMinOut   string
	runDeadline time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Request a flash loan and execute one arbitrage attempt",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()

		a, err := newApp(log)
		if err != nil {
			return err
		}
		defer a.Close()

		if !common.IsHexAddress(runTarget) {
			return fmt.Errorf("--target must be a hex address")
		}

		amount, ok := new(big.Int).SetString(runAmount, 10)
		if !ok || amount.Sign() <= 0 {
			return fmt.Errorf("--amount must be a positive integer in wei")
		}

		var minOut *big.Int
		if runMinOut != "" {
			minOut, ok = new(big.Int).SetString(runMinOut, 10)
			if !ok {
				return fmt.Errorf("--min-out must be an integer in wei")
			}
		}

		var deadline *big.Int
		if runDeadline > 0 {
			deadline = big.NewInt(time.Now().Add(runDeadline).Unix())
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.NetworkTimeout)
		defer cancel()

		err = a.initiator.RequestLoan(ctx, a.tx.From(), common.HexToAddress(runTarget), amount, flashloan.RequestOpts{
			FeeTier:   runFeeTier,
			MinOutBuy: minOut,
			Deadline:  deadline,
		})
		if err != nil {
			return err
		}

		log.Info("Arbitrage requested",
			zap.String("target", runTarget),
			zap.String("amount", amount.String()))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runTarget, "target", "", "target token address")
	runCmd.Flags().StringVar(&runAmount, "amount", "", "loan principal in base asset wei")
	runCmd.Flags().Uint32Var(&runFeeTier, "fee-tier", 3000, "pool fee tier (fixed-fee strategy)")
	runCmd.Flags().StringVar(&runMinOut, "min-out", "", "minimum buy leg output in target token units")
	runCmd.Flags().DurationVar(&runDeadline, "deadline", 0, "execution deadline window (path strategy)")
	_ = runCmd.MarkFlagRequired("target")
	_ = runCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(runCmd)
}
