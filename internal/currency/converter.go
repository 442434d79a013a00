package currency

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"weddingplan/internal/domain"
	"weddingplan/internal/logger"
	"weddingplan/internal/port"
)

// Converter fills amount_converted on unpaid payments. Paid payments are historical
// fact and are never touched. When no rate can be fetched the amount is copied 1:1.
type Converter struct {
	rates port.RateProvider
	log   *zap.Logger
}

// NewConverter creates a converter. A nil provider converts everything 1:1.
func NewConverter(rates port.RateProvider, log *zap.Logger) *Converter {
	return &Converter{rates: rates, log: logger.OrNop(log)}
}

// FillUnpaid converts every unpaid payment that has no converted amount yet, or whose
// converted amount is in a currency other than the vendor's display currency.
func (c *Converter) FillUnpaid(ctx context.Context, v *domain.VendorRecord) {
	target := targetCurrency(v)
	if target == "" {
		return
	}
	rates := map[string]float64{}
	for i := range v.Payments {
		p := &v.Payments[i]
		if p.Paid {
			continue
		}
		if p.AmountConverted != nil && strings.EqualFold(p.AmountConvertedCurrency, target) {
			continue
		}
		c.convert(ctx, v, p, target, rates)
	}
}

// Reconvert recomputes the converted amount of payment idx after its raw amount changed.
// It reports false, leaving the payment untouched, when the payment is paid.
func (c *Converter) Reconvert(ctx context.Context, v *domain.VendorRecord, idx int) bool {
	if idx < 0 || idx >= len(v.Payments) || v.Payments[idx].Paid {
		return false
	}
	target := targetCurrency(v)
	if target == "" {
		return false
	}
	c.convert(ctx, v, &v.Payments[idx], target, map[string]float64{})
	return true
}

func (c *Converter) convert(ctx context.Context, v *domain.VendorRecord, p *domain.PaymentRecord, target string, rates map[string]float64) {
	from := p.AmountCurrency
	if from == "" {
		from = v.VendorCurrency
	}
	from = strings.ToUpper(from)

	r, ok := rates[from]
	if !ok {
		r = c.rate(ctx, from, target)
		rates[from] = r
	}
	converted := round2(p.Amount * r)
	p.AmountConverted = &converted
	p.AmountConvertedCurrency = target
}

func (c *Converter) rate(ctx context.Context, from, to string) float64 {
	if from == "" || strings.EqualFold(from, to) || c.rates == nil {
		return 1
	}
	r, err := c.rates.Rate(ctx, from, to)
	if err != nil {
		c.log.Warn("currency.Converter: rate unavailable, using 1:1",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		return 1
	}
	return r
}

func targetCurrency(v *domain.VendorRecord) string {
	if v.CostConvertedCurrency != "" {
		return strings.ToUpper(v.CostConvertedCurrency)
	}
	return strings.ToUpper(v.VendorCurrency)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
