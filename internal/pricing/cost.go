package pricing

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeCost  = errors.New("cost must be >= 0")
	ErrNonFiniteCost = errors.New("cost must be a finite number")
)

// CostModel prices a search linearly.
// AttemptCost is paid for every enhancement run; RetryCost is paid for each
// reset (a carrier) between a failed run and the next one.
type CostModel struct {
	AttemptCost decimal.Decimal `json:"attemptCost" yaml:"attempt_cost"`
	RetryCost   decimal.Decimal `json:"retryCost" yaml:"retry_cost"`
}

// NewCostModel builds a model from float inputs, e.g. parsed flags.
func NewCostModel(attempt, retry float64) (CostModel, error) {
	for _, c := range []float64{attempt, retry} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return CostModel{}, ErrNonFiniteCost
		}
	}
	if attempt < 0 || retry < 0 {
		return CostModel{}, ErrNegativeCost
	}
	return CostModel{
		AttemptCost: decimal.NewFromFloat(attempt),
		RetryCost:   decimal.NewFromFloat(retry),
	}, nil
}

// SessionCost returns the cost of n attempts:
// n*AttemptCost + max(0, n-1)*RetryCost.
func (m CostModel) SessionCost(attempts int) decimal.Decimal {
	if attempts <= 0 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(attempts))
	retries := decimal.NewFromInt(int64(attempts - 1))
	return m.AttemptCost.Mul(n).Add(m.RetryCost.Mul(retries))
}

// CarrierCost prices carriers already spent in a manual session.
func (m CostModel) CarrierCost(carriers int) decimal.Decimal {
	if carriers <= 0 {
		return decimal.Zero
	}
	return m.RetryCost.Mul(decimal.NewFromInt(int64(carriers)))
}

// Mean averages costs; ok is false for an empty input.
func Mean(costs []decimal.Decimal) (decimal.Decimal, bool) {
	if len(costs) == 0 {
		return decimal.Zero, false
	}
	return decimal.Sum(decimal.Zero, costs...).Div(decimal.NewFromInt(int64(len(costs)))), true
}
