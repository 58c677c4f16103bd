package limits

import (
	"testing"

	"github.com/amirasaad/exchange/pkg/currency"
	"github.com/stretchr/testify/assert"
)

func TestLimit_Weight(t *testing.T) {
	cases := []struct {
		name  string
		limit Limit
		want  int
	}{
		{"all wildcards", Limit{KYCLevel: Any, Group: Any, CurrencyID: currency.Any}, 0},
		{"currency only", Limit{KYCLevel: Any, Group: Any, CurrencyID: "btc"}, 1},
		{"group only", Limit{KYCLevel: Any, Group: "vip", CurrencyID: currency.Any}, 10},
		{"kyc only", Limit{KYCLevel: "2", Group: Any, CurrencyID: currency.Any}, 100},
		{"kyc and currency", Limit{KYCLevel: "2", Group: Any, CurrencyID: "btc"}, 101},
		{"fully exact", Limit{KYCLevel: "2", Group: "vip", CurrencyID: "btc"}, 111},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.limit.Weight())
		})
	}
}

func TestLimit_Matches(t *testing.T) {
	l := Limit{KYCLevel: "2", Group: Any, CurrencyID: "btc"}
	assert.True(t, l.Matches("2", "vip", "btc"))
	assert.True(t, l.Matches("2", "standard", "btc"))
	assert.False(t, l.Matches("1", "vip", "btc"))
	assert.False(t, l.Matches("2", "vip", "eth"))

	wildcard := Limit{KYCLevel: Any, Group: Any, CurrencyID: currency.Any}
	assert.True(t, wildcard.Matches("anything", "at", "all"))
}

func TestNormalizeGroup(t *testing.T) {
	assert.Equal(t, "vip-1", NormalizeGroup("  VIP-1  "))
	assert.Equal(t, Any, NormalizeGroup(""))
	assert.Equal(t, Any, NormalizeGroup("   "))
	assert.Equal(t, Any, NormalizeGroup("any"))
}
