package feed

import (
	"context"
	"iter"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/logger"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

// Binance polls the Binance spot price endpoint. Public data, no API key.
type Binance struct {
	cfg    config.FeedConfig
	log    *logger.Logger
	client *binance.Client
}

// NewBinance creates a polling Binance provider.
func NewBinance(cfg config.FeedConfig, log *logger.Logger) *Binance {
	return &Binance{
		cfg:    cfg,
		log:    log,
		client: binance.NewClient("", ""),
	}
}

func (b *Binance) Name() string {
	return string(config.FeedBinance)
}

func (b *Binance) Stream(ctx context.Context, product string) iter.Seq2[types.PriceTick, error] {
	symbol := binanceSymbol(product)

	return func(yield func(types.PriceTick, error) bool) {
		ticker := time.NewTicker(b.cfg.PollInterval.Std())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !yield(b.fetch(ctx, symbol)) {
					return
				}
			}
		}
	}
}

func (b *Binance) fetch(ctx context.Context, symbol string) (types.PriceTick, error) {
	reqCtx := ctx
	if b.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, b.cfg.RequestTimeout.Std())
		defer cancel()
	}

	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(reqCtx)
	if err != nil {
		return types.PriceTick{}, errors.Wrap(errors.ErrCodeFeedConnectionFailed, "price request failed", err)
	}

	if len(prices) == 0 {
		return types.PriceTick{}, errors.Newf(errors.ErrCodeFeedParseFailed, "no price returned for %s", symbol)
	}

	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return types.PriceTick{}, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "unparseable price %q", prices[0].Price)
	}

	if price <= 0 {
		return types.PriceTick{}, errors.Newf(errors.ErrCodeInvalidPrice, "non-positive price %f", price)
	}

	return types.PriceTick{Time: time.Now().UTC(), Price: price}, nil
}

// binanceSymbol converts a Coinbase-style product id to a Binance symbol:
// BTC-USD becomes BTCUSDT, since Binance quotes dollars as USDT.
func binanceSymbol(product string) string {
	symbol := strings.ToUpper(strings.ReplaceAll(product, "-", ""))

	if strings.HasSuffix(symbol, "USD") {
		symbol += "T"
	}

	return symbol
}
