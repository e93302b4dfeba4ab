// Package money holds currency amounts as integer minor units.
package money

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a currency amount in minor units (cents).
type Amount int64

// Parse reads a decimal string such as "199.00" or "-5.5". An empty string is zero.
func Parse(s string) (Amount, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return 0, nil
	}
	s = in
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("parse amount %q: no digits", in)
	}
	if !digits(whole) || !digits(frac) {
		return 0, fmt.Errorf("parse amount %q: invalid digits", in)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		// Shopify never sends more than two places; anything past cents is truncated.
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", in, err)
	}
	if units > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("parse amount %q: out of range", in)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: invalid fraction", in)
	}
	a := Amount(units*100 + cents)
	if neg {
		a = -a
	}
	return a, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String renders the amount with two decimal places.
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Float returns the amount in major units.
func (a Amount) Float() float64 {
	return float64(a) / 100
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a quoted decimal string, a bare number or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
