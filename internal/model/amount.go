package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Amount is a money or quantity value entered by a user. Anything that is not a
// finite number (missing, null, empty, garbage, NaN, Inf) is read as zero.
type Amount float64

// UnmarshalJSON accepts numbers, numeric strings (dot or comma decimal) and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*a = 0
		return nil
	}

	if s, ok := raw.(string); ok {
		raw = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	}

	f, err := cast.ToFloat64E(raw)
	if err != nil {
		*a = 0
		return nil
	}
	*a = Amount(f).Normalize()
	return nil
}

// Normalize maps NaN and infinities to zero.
func (a Amount) Normalize() Amount {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return a
}

func (a Amount) Float64() float64 {
	return float64(a)
}
