package feed

import (
	"context"
	"encoding/json"
	"iter"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/logger"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

const coinbaseWebsocketURL = "wss://ws-feed.exchange.coinbase.com"

// CoinbaseWebsocket subscribes to the Coinbase Exchange ticker channel. A
// reader goroutine pushes parsed ticks into a bounded channel; the stream
// side drains it, so a slow consumer backpressures the socket instead of
// growing memory. Dropped connections reconnect with exponential backoff.
type CoinbaseWebsocket struct {
	cfg config.FeedConfig
	log *logger.Logger
	url string
}

// NewCoinbaseWebsocket creates a websocket Coinbase provider.
func NewCoinbaseWebsocket(cfg config.FeedConfig, log *logger.Logger) *CoinbaseWebsocket {
	return &CoinbaseWebsocket{
		cfg: cfg,
		log: log,
		url: coinbaseWebsocketURL,
	}
}

func (c *CoinbaseWebsocket) Name() string {
	return string(config.FeedCoinbaseWebsocket)
}

func (c *CoinbaseWebsocket) Stream(ctx context.Context, product string) iter.Seq2[types.PriceTick, error] {
	return func(yield func(types.PriceTick, error) bool) {
		bo := backoff.NewExponentialBackOff()
		bo.MaxInterval = c.cfg.MaxReconnectWait.Std()
		bo.MaxElapsedTime = 0 // retry forever, the context bounds us

		for ctx.Err() == nil {
			conn, err := c.connect(ctx, product)
			if err != nil {
				if !yield(types.PriceTick{}, err) {
					return
				}

				if !sleepCtx(ctx, bo.NextBackOff()) {
					return
				}

				continue
			}

			bo.Reset()

			if !c.pump(ctx, conn, yield) {
				conn.Close()

				return
			}

			conn.Close()

			if !sleepCtx(ctx, bo.NextBackOff()) {
				return
			}
		}
	}
}

type coinbaseSubscribe struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

func (c *CoinbaseWebsocket) connect(ctx context.Context, product string) (*websocket.Conn, error) {
	dialCtx := ctx
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout.Std())
		defer cancel()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedConnectionFailed, "websocket dial failed", err)
	}

	sub := coinbaseSubscribe{
		Type:       "subscribe",
		ProductIDs: []string{product},
		Channels:   []string{"ticker"},
	}

	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()

		return nil, errors.Wrap(errors.ErrCodeFeedConnectionFailed, "ticker subscribe failed", err)
	}

	c.log.Info("websocket connected", zap.String("product", product))

	return conn, nil
}

// pump drains one connection until it breaks or the consumer stops. Returns
// false when the consumer stopped; true means reconnect.
func (c *CoinbaseWebsocket) pump(ctx context.Context, conn *websocket.Conn, yield func(types.PriceTick, error) bool) bool {
	ticks := make(chan types.PriceTick, 64)
	readErr := make(chan error, 1)

	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				readErr <- err

				return
			}

			tick, ok, err := parseCoinbaseWSMessage(raw)
			if err != nil {
				c.log.Warn("skipping malformed websocket message", zap.Error(err))

				continue
			}

			if !ok {
				continue
			}

			select {
			case ticks <- tick:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return false
		case err := <-readErr:
			c.log.Warn("websocket read failed, reconnecting", zap.Error(err))

			return yield(types.PriceTick{}, errors.Wrap(errors.ErrCodeFeedConnectionFailed, "websocket read failed", err))
		case tick := <-ticks:
			if !yield(tick, nil) {
				return false
			}
		}
	}
}

type coinbaseWSTicker struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	Price     string    `json:"price"`
	Time      time.Time `json:"time"`
}

// parseCoinbaseWSMessage parses one frame. The second return is false for
// non-ticker frames (subscription acks, heartbeats), which are not errors.
func parseCoinbaseWSMessage(raw []byte) (types.PriceTick, bool, error) {
	var payload coinbaseWSTicker
	if err := json.Unmarshal(raw, &payload); err != nil {
		return types.PriceTick{}, false, errors.Wrap(errors.ErrCodeFeedParseFailed, "failed to decode websocket frame", err)
	}

	if payload.Type != "ticker" {
		return types.PriceTick{}, false, nil
	}

	price, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil {
		return types.PriceTick{}, false, errors.Wrapf(errors.ErrCodeFeedParseFailed, err, "unparseable price %q", payload.Price)
	}

	if price <= 0 {
		return types.PriceTick{}, false, errors.Newf(errors.ErrCodeInvalidPrice, "non-positive price %f", price)
	}

	ts := payload.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return types.PriceTick{Time: ts, Price: price}, true, nil
}

// sleepCtx waits for d or until the context is cancelled. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
