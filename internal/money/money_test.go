package money_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/store-insights/internal/money"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want money.Amount
	}{
		{"199.00", 19900},
		{"0.5", 50},
		{"12", 1200},
		{"", 0},
		{"-5.25", -525},
		{"3.999", 399},
		{".75", 75},
	}
	for _, tt := range tests {
		got, err := money.Parse(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}

	_, err := money.Parse("abc")
	require.Error(t, err)
	_, err = money.Parse("1.x0")
	require.Error(t, err)

	for _, bad := range []string{"-", ".", "+.", "1.+5", "1.-5", "--1", "1.2.3", "92233720368547758.07"} {
		_, err := money.Parse(bad)
		require.Error(t, err, bad)
	}
	largest, err := money.Parse("92233720368547757.99")
	require.NoError(t, err)
	require.Equal(t, money.Amount(9223372036854775799), largest)
}

func TestAmount_String(t *testing.T) {
	require.Equal(t, "199.00", money.Amount(19900).String())
	require.Equal(t, "0.05", money.Amount(5).String())
	require.Equal(t, "-1.50", money.Amount(-150).String())
}

func TestAmount_JSON(t *testing.T) {
	var payload struct {
		Quoted money.Amount `json:"quoted"`
		Number money.Amount `json:"number"`
		Null   money.Amount `json:"null"`
	}
	err := json.Unmarshal([]byte(`{"quoted":"42.10","number":7.5,"null":null}`), &payload)
	require.NoError(t, err)
	require.Equal(t, money.Amount(4210), payload.Quoted)
	require.Equal(t, money.Amount(750), payload.Number)
	require.Equal(t, money.Amount(0), payload.Null)

	out, err := json.Marshal(payload.Quoted)
	require.NoError(t, err)
	require.Equal(t, `"42.10"`, string(out))
}
