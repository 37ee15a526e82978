package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strconv"
	"time"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/logger"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

const coinbaseBaseURL = "https://api.exchange.coinbase.com"

// Coinbase polls the public Coinbase Exchange ticker endpoint at a fixed
// interval. No API key is required.
type Coinbase struct {
	cfg     config.FeedConfig
	log     *logger.Logger
	client  *http.Client
	baseURL string
}

// NewCoinbase creates a polling Coinbase provider.
func NewCoinbase(cfg config.FeedConfig, log *logger.Logger) *Coinbase {
	return &Coinbase{
		cfg:     cfg,
		log:     log,
		client:  &http.Client{Timeout: cfg.RequestTimeout.Std()},
		baseURL: coinbaseBaseURL,
	}
}

func (c *Coinbase) Name() string {
	return string(config.FeedCoinbase)
}

func (c *Coinbase) Stream(ctx context.Context, product string) iter.Seq2[types.PriceTick, error] {
	return func(yield func(types.PriceTick, error) bool) {
		ticker := time.NewTicker(c.cfg.PollInterval.Std())
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !yield(c.fetch(ctx, product)) {
					return
				}
			}
		}
	}
}

func (c *Coinbase) fetch(ctx context.Context, product string) (types.PriceTick, error) {
	url := fmt.Sprintf("%s/products/%s/ticker", c.baseURL, product)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.PriceTick{}, errors.Wrap(errors.ErrCodeFeedConnectionFailed, "failed to build ticker request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return types.PriceTick{}, errors.Wrap(errors.ErrCodeFeedConnectionFailed, "ticker request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.PriceTick{}, errors.Newf(errors.ErrCodeFeedConnectionFailed,
			"ticker request for %s returned status %d", product, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.PriceTick{}, errors.Wrap(errors.ErrCodeFeedConnectionFailed, "failed to read ticker response", err)
	}

	return parseCoinbaseRESTTicker(body)
}

type coinbaseRESTTicker struct {
	Price string    `json:"price"`
	Time  time.Time `json:"time"`
}

func parseCoinbaseRESTTicker(body []byte) (types.PriceTick, error) {
	var payload coinbaseRESTTicker
	if err := json.Unmarshal(body, &payload); err != nil {
		return types.PriceTick{}, errors.Wrap(errors.ErrCodeFeedParseFailed, "failed to decode ticker response", err)
	}

	price, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil {
		return types.PriceTick{}, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "unparseable price %q", payload.Price)
	}

	if price <= 0 {
		return types.PriceTick{}, errors.Newf(errors.ErrCodeInvalidPrice, "non-positive price %f", price)
	}

	ts := payload.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return types.PriceTick{Time: ts, Price: price}, nil
}
