package currency

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

type Converter struct {
	rates  RateProvider
	logger *slog.Logger
}

func NewConverter(rates RateProvider, logger *slog.Logger) *Converter {
	return &Converter{
		rates:  rates,
		logger: logger,
	}
}

// Convert snapshots amount in the target currency. It never fails: when the
// rate cannot be fetched the original amount is returned unchanged.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) decimal.Decimal {
	if strings.EqualFold(from, to) {
		return amount
	}

	rate, err := c.rates.Rate(ctx, from, to)
	if err != nil {
		c.logger.Warn("currency conversion failed, keeping original amount",
			"from", from,
			"to", to,
			"amount", amount.String(),
			"error", err)
		return amount
	}

	return amount.Mul(rate).Round(2)
}
