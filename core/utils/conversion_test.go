package utils

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInt(t *testing.T) {
	assert.Equal(t, 12, ToInt("12"))
	assert.Equal(t, 12, ToInt(" 12 "))
	assert.Equal(t, 3, ToInt(3.9))
	assert.Equal(t, 7, ToInt(json.Number("7")))
	assert.Equal(t, 0, ToInt("abc"))
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool("1"))
	assert.True(t, ToBool("TRUE"))
	assert.True(t, ToBool(1))
	assert.False(t, ToBool("0"))
	assert.False(t, ToBool(nil))
}

func TestToDecimal(t *testing.T) {
	d, err := ToDecimal("12,50")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))

	d, err = ToDecimal(json.Number("5.5"))
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("5.5")))

	_, err = ToDecimal("")
	assert.Error(t, err)

	_, err = ToDecimal(true)
	assert.Error(t, err)
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x1","b":123,"c":null}`), &v))

	assert.Equal(t, "x1", v.A.String())
	assert.Equal(t, "123", v.B.String())
	assert.Equal(t, "", v.C.String())

	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}
