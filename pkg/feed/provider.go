// Package feed streams live price ticks from public exchange APIs. A
// provider produces a pull-based tick sequence; the consumer drives the
// pace, and the provider owns connection management and reconnects.
package feed

import (
	"context"
	"iter"

	"github.com/lohiavardhan/bitcoin-strats/internal/config"
	"github.com/lohiavardhan/bitcoin-strats/internal/logger"
	"github.com/lohiavardhan/bitcoin-strats/internal/types"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

// Provider is a source of live price ticks for one product.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string
	// Stream yields ticks until the context is cancelled. Transient failures
	// are yielded as errors and the stream continues; the consumer decides
	// what to skip.
	Stream(ctx context.Context, product string) iter.Seq2[types.PriceTick, error]
}

// New builds the provider selected by cfg.
func New(cfg config.FeedConfig, log *logger.Logger) (Provider, error) {
	switch cfg.Provider {
	case config.FeedCoinbase:
		return NewCoinbase(cfg, log), nil
	case config.FeedCoinbaseWebsocket:
		return NewCoinbaseWebsocket(cfg, log), nil
	case config.FeedBinance:
		return NewBinance(cfg, log), nil
	default:
		return nil, errors.Newf(errors.ErrCodeFeedUnsupported, "unsupported feed provider: %s", cfg.Provider)
	}
}
