package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRR(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.5, RR(150.00, 149.90, 150.15), 1e-9)
	assert.InDelta(t, 2.0, RR(1.1000, 1.1010, 1.0980), 1e-9)
	assert.Zero(t, RR(150, 150, 151))
}

func TestSizePosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		balance      float64
		entry, stop  float64
		min, max     float64
		wantLots     float64
		wantStopPips float64
	}{
		{"exact", 10_000_000, 150, 149.50, 0.1, 100, 0.2, 5000},
		{"floored", 10_000_000, 150, 149.30, 0.1, 100, 0.1, 7000},
		{"min clamp", 10_000, 150, 149.95, 0.1, 100, 0.1, 500},
		{"max clamp", 10_000_000, 150, 149.99, 0.1, 1.5, 1.5, 100},
		{"eurusd", 100_000, 1.1000, 1.0990, 0.1, 100, 1, 10},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			acct := AccountConfig{Balance: tt.balance, Leverage: 25, RiskPerTradePct: 1}
			s, v := SizePosition(acct, tt.entry, tt.stop, 100, tt.min, tt.max)
			require.Nil(t, v)
			assert.InDelta(t, tt.wantLots, s.Lots, 1e-9)
			assert.InDelta(t, tt.wantStopPips, s.StopPips, 1e-6)
			assert.InDelta(t, tt.balance/100, s.RiskAmount, 1e-9)
		})
	}
}

func TestSizePositionInvalidStop(t *testing.T) {
	t.Parallel()

	_, v := SizePosition(DefaultAccount(), 150, 150, 100, 0.1, 100)
	require.NotNil(t, v)
	assert.Equal(t, CodeInvalidStop, v.Code)
	assert.Contains(t, v.Error(), "INVALID_STOP")
}

func TestCheckMargin(t *testing.T) {
	t.Parallel()

	acct := AccountConfig{Balance: 10_000, Leverage: 10, MarginRequirementPct: 4}

	mc := CheckMargin(0.1, 150, 0, acct)
	assert.Equal(t, 600.0, mc.Required)
	assert.True(t, mc.OK)

	// 95% is still allowed
	mc = CheckMargin(1, 95, 100, AccountConfig{Balance: 1_000_000, Leverage: 1})
	assert.InDelta(t, 0.95, mc.Usage, 1e-12)
	assert.True(t, mc.OK)

	mc = CheckMargin(1, 96, 100, AccountConfig{Balance: 1_000_000, Leverage: 1})
	assert.False(t, mc.OK)
}

func TestRound(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2979.99, Round(2979.994))
	assert.Equal(t, 20.0, Round(1*0.2*100))
	assert.Equal(t, -2020.0, Round(-2019.9999999997))
}

func TestAccountValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultAccount().Validate())

	err := AccountConfig{Leverage: 5}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "balance")
	assert.Contains(t, err.Error(), "leverage")
	assert.Contains(t, err.Error(), "currency")
}
