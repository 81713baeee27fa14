package currency

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse(" usd ")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	_, err = Parse("GBP")
	assert.Error(t, err)
}

func TestAllIsIndexedByValue(t *testing.T) {
	for i, c := range All {
		assert.Equal(t, i, int(c))
		assert.True(t, c.Valid())
		assert.NotEmpty(t, c.Name())
	}
	assert.False(t, Currency(Count).Valid())
	assert.Equal(t, "Currency(4)", Currency(Count).String())
}

func TestReference(t *testing.T) {
	assert.True(t, EUR.IsReference())
	assert.False(t, USD.IsReference())
}

func TestSymbols(t *testing.T) {
	assert.Equal(t, "HUF,ILS,EUR,USD", Symbols())
}

func TestTextEncodingAsMapKey(t *testing.T) {
	b, err := json.Marshal(map[Currency]int{ILS: 2, HUF: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"HUF":1,"ILS":2}`, string(b))

	var back map[Currency]int
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, 2, back[ILS])

	assert.Error(t, json.Unmarshal([]byte(`{"XAU":1}`), &back))
}
