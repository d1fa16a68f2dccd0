package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsc-eco/vsc-amm/exchange"
	"github.com/vsc-eco/vsc-amm/ledger"
	"github.com/vsc-eco/vsc-amm/schemas"
	vscamm "github.com/vsc-eco/vsc-amm/sdk"
	"github.com/vsc-eco/vsc-amm/services/gateway"
)

var (
	endpoint   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "vsc-amm",
	Short: "CLI for the constant-product AMM",
	Long:  `Run the AMM gateway, create exchanges, quote prices, and execute swaps`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the AMM gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := gateway.LoadConfig(configPath)
		if err != nil {
			return err
		}
		logger, err := gateway.BuildLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		hub := gateway.NewHub(logger)
		clock := exchange.NewIntervalClock(0, cfg.BlockInterval)
		node := gateway.NewNode(ledger.Address(cfg.RegistryAddr), clock, hub)
		srv := gateway.NewServer(node, hub, logger, cfg.ListenAddr)

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		go func() {
			logger.Info("starting gateway", zap.String("listen_addr", cfg.ListenAddr))
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("gateway failed", zap.Error(err))
			}
		}()

		<-c
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(ctx)
	},
}

var createCmd = &cobra.Command{
	Use:   "create <token>",
	Short: "Create the exchange for a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := vscamm.NewClient(vscamm.Config{Endpoint: endpoint})
		info, err := client.CreateExchange(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("created exchange %s for %s\n", info.Address, info.Token)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List exchanges and their reserves",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := vscamm.NewClient(vscamm.Config{Endpoint: endpoint})
		infos, err := client.Exchanges(cmd.Context())
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Printf("%s  base=%s token=%s shares=%s\n",
				info.Token, info.ReserveBase, info.ReserveToken, info.TotalShares)
		}
		return nil
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote <token> <amount>",
	Short: "Price a trade without executing it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		side, _ := cmd.Flags().GetString("side")
		mode, _ := cmd.Flags().GetString("mode")

		client := vscamm.NewClient(vscamm.Config{Endpoint: endpoint})
		result, err := client.Quote(cmd.Context(), args[0], side, mode, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s %s of %s: %s\n", result.Side, result.Mode, result.Amount, result.Quote)
		return nil
	},
}

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Execute a swap",
	RunE: func(cmd *cobra.Command, args []string) error {
		inst := &schemas.SwapInstruction{
			InstructionType: "swap",
			SchemaVersion:   "1.0.0",
		}
		inst.Sender, _ = cmd.Flags().GetString("sender")
		inst.Recipient, _ = cmd.Flags().GetString("recipient")
		inst.TokenIn, _ = cmd.Flags().GetString("token-in")
		inst.TokenOut, _ = cmd.Flags().GetString("token-out")
		inst.Mode, _ = cmd.Flags().GetString("mode")
		inst.Amount, _ = cmd.Flags().GetString("amount")
		inst.Limit, _ = cmd.Flags().GetString("limit")
		inst.NativeLimit, _ = cmd.Flags().GetString("native-limit")
		inst.Deadline, _ = cmd.Flags().GetUint64("deadline")

		client := vscamm.NewClient(vscamm.Config{Endpoint: endpoint})
		result, err := client.Swap(cmd.Context(), inst)
		if err != nil {
			return err
		}
		if result.AmountOut != "" {
			fmt.Printf("bought %s\n", result.AmountOut)
		} else {
			fmt.Printf("spent %s\n", result.AmountIn)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check gateway health",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := vscamm.NewClient(vscamm.Config{Endpoint: endpoint})
		if err := client.Health(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("gateway healthy")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "http://localhost:8080", "gateway endpoint")
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to a gateway config file")

	quoteCmd.Flags().String("side", "native_to_token", "native_to_token or token_to_native")
	quoteCmd.Flags().String("mode", schemas.ModeExactInput, "exact_input or exact_output")

	swapCmd.Flags().String("sender", "", "account paying for the swap")
	swapCmd.Flags().String("recipient", "", "account receiving the proceeds (defaults to sender)")
	swapCmd.Flags().String("token-in", "", "asset sold, token identity or \"native\"")
	swapCmd.Flags().String("token-out", "", "asset bought, token identity or \"native\"")
	swapCmd.Flags().String("mode", schemas.ModeExactInput, "exact_input or exact_output")
	swapCmd.Flags().String("amount", "", "exact amount, in the asset the mode fixes")
	swapCmd.Flags().String("limit", "", "slippage bound on the non-fixed side")
	swapCmd.Flags().String("native-limit", "", "bound on the intermediate native leg of routed swaps")
	swapCmd.Flags().Uint64("deadline", 0, "last acceptable height")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(swapCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
