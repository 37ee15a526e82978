package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/logger"
	"github.com/lohiavardhan/bitcoin-strats/internal/paper"
	"github.com/lohiavardhan/bitcoin-strats/internal/reporter"
	"github.com/lohiavardhan/bitcoin-strats/pkg/blackscholes"
	"github.com/lohiavardhan/bitcoin-strats/pkg/feed"
)

// runAction wires config, feed, engine, and reporter together and blocks
// until the feed ends or the process is signalled.
func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	engine, err := paper.NewEngine(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	provider, err := feed.New(cfg.Feed, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create feed provider: %w", err)
	}

	appLogger.Info("starting paper trading session",
		zap.String("product", cfg.Product),
		zap.String("feed", provider.Name()),
		zap.String("strategy", string(cfg.Strategy.Name)),
	)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	statusReporter := reporter.New(appLogger, cfg.Report.Interval.Std(), engine.Snapshot)
	go statusReporter.Run(runCtx)

	if err := engine.Run(runCtx, provider.Stream(runCtx, cfg.Product)); err != nil && runCtx.Err() == nil {
		return fmt.Errorf("engine stopped: %w", err)
	}

	return nil
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")

	cfg := config.Default()

	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}

		cfg = loaded
	}

	if product := cmd.String("product"); product != "" {
		cfg.Product = product
	}

	if strategy := cmd.String("strategy"); strategy != "" {
		cfg.Strategy.Name = config.StrategyName(strategy)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// priceAction prices a perpetual-style call from flag inputs.
func priceAction(_ context.Context, cmd *cli.Command) error {
	price, err := blackscholes.CallPrice(blackscholes.Inputs{
		Spot:     cmd.Float64("spot"),
		Strike:   cmd.Float64("strike"),
		RiskFree: cmd.Float64("rate"),
		Sigma:    cmd.Float64("sigma"),
		Funding:  cmd.Float64("funding"),
		Horizon:  cmd.Float64("horizon-days") / 365.0,
	})
	if err != nil {
		return err
	}

	fmt.Printf("call price: %.2f\n", price)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "papertrade",
		Usage: "Paper trade crypto strategies against a live price feed",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the paper trading engine",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the YAML config file",
					},
					&cli.StringFlag{
						Name:    "product",
						Aliases: []string{"p"},
						Usage:   "Product id, e.g. BTC-USD",
					},
					&cli.StringFlag{
						Name:    "strategy",
						Aliases: []string{"s"},
						Usage:   "Strategy override: bollinger, zscore, breakout, trend, or restinglimit",
					},
				},
				Action: runAction,
			},
			{
				Name:  "price",
				Usage: "Price a perpetual-style call option",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:     "spot",
						Usage:    "Underlying spot price",
						Required: true,
					},
					&cli.Float64Flag{
						Name:     "strike",
						Usage:    "Strike price",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "rate",
						Usage: "Annualized risk-free rate",
						Value: 0.01,
					},
					&cli.Float64Flag{
						Name:     "sigma",
						Usage:    "Annualized volatility",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "funding",
						Usage: "Annualized funding rate",
					},
					&cli.Float64Flag{
						Name:  "horizon-days",
						Usage: "Approximation horizon in days",
						Value: 1,
					},
				},
				Action: priceAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
