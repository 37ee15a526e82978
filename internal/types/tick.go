package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

// PriceTick is a single timestamped price observation from the feed.
type PriceTick struct {
	Time  time.Time `yaml:"time" json:"time" validate:"required"`
	Price float64   `yaml:"price" json:"price" validate:"required,gt=0"`
}

// Validate validates the PriceTick struct.
func (t *PriceTick) Validate() error {
	validate := validator.New()
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPrice, "invalid price tick", err)
	}

	return nil
}

// WindowStats holds statistics derived from a rolling window of price ticks.
// Std is the sample standard deviation (Bessel-corrected, divisor n-1).
type WindowStats struct {
	Mean    float64
	Std     float64
	Min     float64
	Max     float64
	Range   float64
	Samples int
}

// ZScore returns the normalized deviation of price from the window mean.
// Returns false when the standard deviation is zero, in which case no
// z-score exists and callers must not trade on it.
func (s WindowStats) ZScore(price float64) (float64, bool) {
	if s.Std == 0 {
		return 0, false
	}

	return (price - s.Mean) / s.Std, true
}

// PriceAtZ returns the price level corresponding to a given z-score.
func (s WindowStats) PriceAtZ(z float64) float64 {
	return s.Mean + z*s.Std
}
