// Package fee resolves the fee and net amount of a withdrawal per channel.
package fee

import (
	"fmt"

	"payout/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	RuleBlank        = "blank"
	RuleNotPositive  = "not_positive"
	RuleTooLow       = "too_low"
	RulePrecision    = "precision"
	RuleFeeExceedSum = "fee_exceeds_sum"
)

// Policy is the per-channel pair of sum check and fee computation.
// ValidateSum returns the violated rule or "" when the sum is acceptable.
type Policy struct {
	ValidateSum func(sum decimal.Decimal) string
	FixFee      func(sum decimal.Decimal) decimal.Decimal
}

type Quote struct {
	Sum    decimal.Decimal
	Fee    decimal.Decimal
	Amount decimal.Decimal
}

type ChannelConfig struct {
	MinSum    decimal.Decimal
	FixedFee  decimal.Decimal
	FeeRate   decimal.Decimal
	Precision int32
}

// BankPolicy charges FixedFee plus FeeRate of the sum, rounded to Precision.
func BankPolicy(cfg ChannelConfig) Policy {
	return Policy{
		ValidateSum: minAndPrecision(cfg),
		FixFee: func(sum decimal.Decimal) decimal.Decimal {
			return cfg.FixedFee.Add(sum.Mul(cfg.FeeRate)).Round(cfg.Precision)
		},
	}
}

// CoinPolicy charges a flat network fee.
func CoinPolicy(cfg ChannelConfig) Policy {
	return Policy{
		ValidateSum: minAndPrecision(cfg),
		FixFee: func(decimal.Decimal) decimal.Decimal {
			return cfg.FixedFee
		},
	}
}

func minAndPrecision(cfg ChannelConfig) func(decimal.Decimal) string {
	return func(sum decimal.Decimal) string {
		if sum.LessThan(cfg.MinSum) {
			return RuleTooLow
		}
		if !sum.Equal(sum.Truncate(cfg.Precision)) {
			return RulePrecision
		}
		return ""
	}
}

type Registry struct {
	policies map[domain.ChannelType]Policy
}

func NewRegistry(policies map[domain.ChannelType]Policy) *Registry {
	return &Registry{policies: policies}
}

// DefaultRegistry wires bank to BankPolicy and both coin channels to CoinPolicy.
func DefaultRegistry(channels map[domain.ChannelType]ChannelConfig) *Registry {
	policies := make(map[domain.ChannelType]Policy, len(channels))
	for ch, cfg := range channels {
		if ch.IsCoin() {
			policies[ch] = CoinPolicy(cfg)
		} else {
			policies[ch] = BankPolicy(cfg)
		}
	}
	return NewRegistry(policies)
}

// Resolve validates requestedSum for channel and splits it into fee and amount.
// Every violated rule is reported in the returned *domain.ValidationError.
func (r *Registry) Resolve(channel domain.ChannelType, requestedSum decimal.Decimal) (Quote, error) {
	verr := &domain.ValidationError{}

	if !requestedSum.IsPositive() {
		rule := RuleNotPositive
		if requestedSum.IsZero() {
			rule = RuleBlank
		}
		verr.Add(violation(channel, rule))
		return Quote{}, verr
	}

	q := Quote{Sum: requestedSum, Fee: decimal.Zero}
	if p, ok := r.policies[channel]; ok {
		if p.ValidateSum != nil {
			if rule := p.ValidateSum(requestedSum); rule != "" {
				verr.Add(violation(channel, rule))
			}
		}
		if p.FixFee != nil {
			q.Fee = p.FixFee(requestedSum)
		}
	}
	q.Amount = q.Sum.Sub(q.Fee)

	if q.Fee.IsNegative() {
		return Quote{}, fmt.Errorf("%s policy produced negative fee %s", channel, q.Fee)
	}
	if !q.Amount.IsPositive() {
		verr.Add(violation(channel, RuleFeeExceedSum))
	}
	if !verr.Empty() {
		return Quote{}, verr
	}
	return q, nil
}

func violation(channel domain.ChannelType, rule string) domain.FieldError {
	return domain.FieldError{Field: "sum", Rule: rule, Channel: channel, Err: domain.ErrChannelPolicy}
}
