package fee

import (
	"fmt"

	"payout/internal/config"
	"payout/internal/domain"

	"github.com/shopspring/decimal"
)

// ChannelsFromConfig parses the decimal strings of the fees section.
func ChannelsFromConfig(cfg config.FeesConfig) (map[domain.ChannelType]ChannelConfig, error) {
	raw := map[domain.ChannelType]config.ChannelFee{
		domain.ChannelBank:        cfg.Bank,
		domain.ChannelSatoshi:     cfg.Satoshi,
		domain.ChannelProtoshares: cfg.Protoshares,
	}

	out := make(map[domain.ChannelType]ChannelConfig, len(raw))
	for ch, c := range raw {
		minSum, err := parseDecimal(c.MinSum)
		if err != nil {
			return nil, fmt.Errorf("fees.%s.min_sum: %w", ch, err)
		}
		fixed, err := parseDecimal(c.FixedFee)
		if err != nil {
			return nil, fmt.Errorf("fees.%s.fixed_fee: %w", ch, err)
		}
		rate, err := parseDecimal(c.FeeRate)
		if err != nil {
			return nil, fmt.Errorf("fees.%s.fee_rate: %w", ch, err)
		}
		if fixed.IsNegative() || rate.IsNegative() {
			return nil, fmt.Errorf("fees.%s: negative fee", ch)
		}
		out[ch] = ChannelConfig{MinSum: minSum, FixedFee: fixed, FeeRate: rate, Precision: c.Precision}
	}
	return out, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
