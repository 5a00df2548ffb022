package fee

import (
	"errors"
	"testing"

	"payout/internal/config"
	"payout/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testRegistry() *Registry {
	return DefaultRegistry(map[domain.ChannelType]ChannelConfig{
		domain.ChannelBank:    {MinSum: d("10"), FixedFee: d("1"), Precision: 2},
		domain.ChannelSatoshi: {MinSum: d("0.001"), FixedFee: d("0.0005"), Precision: 8},
	})
}

func TestResolve_FlatFee(t *testing.T) {
	q, err := testRegistry().Resolve(domain.ChannelBank, d("60.00"))
	require.NoError(t, err)

	assert.True(t, q.Fee.Equal(d("1.00")), "fee %s", q.Fee)
	assert.True(t, q.Amount.Equal(d("59.00")), "amount %s", q.Amount)
	assert.True(t, q.Amount.Add(q.Fee).Equal(q.Sum))
}

func TestResolve_RateFeeRounded(t *testing.T) {
	r := DefaultRegistry(map[domain.ChannelType]ChannelConfig{
		domain.ChannelBank: {MinSum: d("1"), FixedFee: d("0.5"), FeeRate: d("0.003"), Precision: 2},
	})

	q, err := r.Resolve(domain.ChannelBank, d("123.45"))
	require.NoError(t, err)

	// 0.5 + 0.37035 -> 0.87
	assert.True(t, q.Fee.Equal(d("0.87")), "fee %s", q.Fee)
	assert.True(t, q.Amount.Equal(d("122.58")), "amount %s", q.Amount)
}

func TestResolve_Violations(t *testing.T) {
	tests := []struct {
		name    string
		channel domain.ChannelType
		sum     string
		rules   []string
	}{
		{"below minimum", domain.ChannelBank, "5", []string{RuleTooLow}},
		{"too many decimals", domain.ChannelBank, "50.001", []string{RulePrecision}},
		{"zero", domain.ChannelSatoshi, "0", []string{RuleBlank}},
		{"negative", domain.ChannelSatoshi, "-1", []string{RuleNotPositive}},
		{"coin below minimum", domain.ChannelSatoshi, "0.0004", []string{RuleTooLow, RuleFeeExceedSum}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testRegistry().Resolve(tt.channel, d(tt.sum))

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, len(tt.rules))
			for i, rule := range tt.rules {
				assert.Equal(t, "sum", verr.Fields[i].Field)
				assert.Equal(t, rule, verr.Fields[i].Rule)
				assert.Equal(t, tt.channel, verr.Fields[i].Channel)
			}
			assert.ErrorIs(t, err, domain.ErrChannelPolicy)
		})
	}
}

func TestResolve_ChannelWithoutPolicyDefaultsToZeroFee(t *testing.T) {
	q, err := testRegistry().Resolve(domain.ChannelProtoshares, d("3.5"))
	require.NoError(t, err)

	assert.True(t, q.Fee.IsZero())
	assert.True(t, q.Amount.Equal(d("3.5")))
}

func TestChannelsFromConfig(t *testing.T) {
	channels, err := ChannelsFromConfig(config.FeesConfig{
		Bank:    config.ChannelFee{MinSum: "100", FixedFee: "2", Precision: 2},
		Satoshi: config.ChannelFee{MinSum: "0.001", FixedFee: "0.0005", Precision: 8},
	})
	require.NoError(t, err)

	assert.True(t, channels[domain.ChannelBank].FixedFee.Equal(d("2")))
	assert.True(t, channels[domain.ChannelBank].FeeRate.IsZero())
	assert.Equal(t, int32(8), channels[domain.ChannelSatoshi].Precision)
	assert.Contains(t, channels, domain.ChannelProtoshares)
}

func TestChannelsFromConfig_Invalid(t *testing.T) {
	_, err := ChannelsFromConfig(config.FeesConfig{Bank: config.ChannelFee{MinSum: "abc"}})
	assert.Error(t, err)

	_, err = ChannelsFromConfig(config.FeesConfig{Satoshi: config.ChannelFee{FixedFee: "-1"}})
	assert.Error(t, err)
}
