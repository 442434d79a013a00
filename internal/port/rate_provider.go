package port

import "context"

// RateProvider returns the exchange rate that converts one unit of from into to.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}
