package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Cents
		wantErr error
	}{
		{name: "whole amount", input: "12", want: 1200},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "0.5", want: 50},
		{name: "zero", input: "0", want: 0},
		{name: "negative", input: "-3.25", want: -325},
		{name: "three decimals rejected", input: "1.005", wantErr: ErrTooManyDecimal},
		{name: "not a number", input: "abc", wantErr: ErrInvalidAmount},
		{name: "empty", input: "", wantErr: ErrInvalidAmount},
		{name: "over maximum", input: "99999999999999999", wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCentsString(t *testing.T) {
	assert.Equal(t, "12.34", Cents(1234).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "-0.05", Cents(-5).String())
	assert.Equal(t, "0.00", Cents(0).String())
	assert.Equal(t, "100.00", Cents(10000).String())
}

func TestCentsJSON(t *testing.T) {
	b, err := json.Marshal(Cents(1234))
	require.NoError(t, err)
	assert.Equal(t, `"12.34"`, string(b))

	var c Cents
	require.NoError(t, json.Unmarshal([]byte(`"-3.25"`), &c))
	assert.Equal(t, Cents(-325), c)

	assert.Error(t, json.Unmarshal([]byte(`12.34`), &c), "bare numbers are rejected")
	assert.Error(t, json.Unmarshal([]byte(`"1.005"`), &c))
}
