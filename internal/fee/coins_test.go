package fee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/namereg/internal/ir"
)

func TestParseCoin(t *testing.T) {
	tests := []struct {
		in      string
		want    ir.Coin
		wantErr bool
	}{
		{in: "1juno", want: ir.Coin{Denom: "juno", Amount: 1}},
		{in: " 250 ujuno ", want: ir.Coin{Denom: "ujuno", Amount: 250}},
		{in: "0atom", want: ir.Coin{Denom: "atom", Amount: 0}},
		{in: "7ibc/27394FB0", want: ir.Coin{Denom: "ibc/27394FB0", Amount: 7}},
		{in: "18446744073709551615juno", want: ir.Coin{Denom: "juno", Amount: 18446744073709551615}},
		{in: "18446744073709551616juno", wantErr: true},
		{in: "juno", wantErr: true},
		{in: "1", wantErr: true},
		{in: "-1juno", wantErr: true},
		{in: "1ju", wantErr: true},
		{in: "1.5juno", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCoin(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCoins(t *testing.T) {
	coins, err := ParseCoins("1juno,5atom")
	require.NoError(t, err)
	assert.Equal(t, []ir.Coin{{Denom: "juno", Amount: 1}, {Denom: "atom", Amount: 5}}, coins)
	assert.Equal(t, "1juno,5atom", FormatCoins(coins))

	coins, err = ParseCoins("  ")
	require.NoError(t, err)
	assert.Empty(t, coins)

	_, err = ParseCoins("1juno,2juno")
	assert.ErrorContains(t, err, "duplicate denom")

	_, err = ParseCoins("1juno,,2atom")
	assert.Error(t, err)
}

func TestFindPayment(t *testing.T) {
	price := ir.Coin{Denom: "juno", Amount: 1}

	tests := []struct {
		name  string
		funds []ir.Coin
		ok    bool
	}{
		{"no funds", nil, false},
		{"zero of denom", []ir.Coin{{Denom: "juno", Amount: 0}}, false},
		{"other denom only", []ir.Coin{{Denom: "atom", Amount: 100}}, false},
		{"exact", []ir.Coin{{Denom: "juno", Amount: 1}}, true},
		{"overpay", []ir.Coin{{Denom: "juno", Amount: 9}}, true},
		{"mixed", []ir.Coin{{Denom: "atom", Amount: 5}, {Denom: "juno", Amount: 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindPayment(tt.funds, price)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, "juno", got.Denom)
				assert.GreaterOrEqual(t, got.Amount, price.Amount)
			}
		})
	}
}

func TestFindPayment_SubUnitPrice(t *testing.T) {
	price := ir.Coin{Denom: "ujuno", Amount: 1_000_000}
	_, ok := FindPayment([]ir.Coin{{Denom: "ujuno", Amount: 999_999}}, price)
	assert.False(t, ok)
}

func TestNativeGateway_Transfer(t *testing.T) {
	var gw Gateway = NativeGateway{}
	d := gw.Transfer("juno1fee", ir.Coin{Denom: "juno", Amount: 1})
	assert.Equal(t, TransferDirective{Recipient: "juno1fee", Amount: ir.Coin{Denom: "juno", Amount: 1}}, d)

	eff := NewTransferEffect("op-1", d, "register example")
	assert.Equal(t, EffectTransfer, eff.Kind)
	assert.Equal(t, "op-1", eff.ID)
}
