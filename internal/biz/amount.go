package biz

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountUnit tags which currency unit an Amount is expressed in.
type AmountUnit string

const (
	// UnitMajor 主币种单位 (元, dollar)
	UnitMajor AmountUnit = "major"
	// UnitMinor 最小币种单位 (分, cent)
	UnitMinor AmountUnit = "minor"
)

// Amount is a monetary value that always carries its unit, so adapters never
// receive a bare number.
type Amount struct {
	Value    decimal.Decimal
	Currency string
	Unit     AmountUnit
}

// MajorAmount builds an Amount in major units.
func MajorAmount(v decimal.Decimal, currency string) Amount {
	return Amount{Value: v, Currency: strings.ToUpper(currency), Unit: UnitMajor}
}

// zero-decimal currencies
var minorExponents = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
}

func minorExponent(currency string) int32 {
	if exp, ok := minorExponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// In converts the amount into the requested unit. Converting to minor units
// fails when the value has more precision than the currency allows.
func (a Amount) In(unit AmountUnit) (Amount, error) {
	if a.Unit == unit {
		return a, nil
	}
	exp := minorExponent(a.Currency)
	switch unit {
	case UnitMinor:
		v := a.Value.Shift(exp)
		if !v.IsInteger() {
			return Amount{}, fmt.Errorf("amount %s has sub-minor precision", a)
		}
		return Amount{Value: v, Currency: a.Currency, Unit: UnitMinor}, nil
	case UnitMajor:
		return Amount{Value: a.Value.Shift(-exp), Currency: a.Currency, Unit: UnitMajor}, nil
	default:
		return Amount{}, fmt.Errorf("unknown amount unit %q", unit)
	}
}

// Equal compares two amounts after bringing other into a's unit.
func (a Amount) Equal(other Amount) bool {
	if !strings.EqualFold(a.Currency, other.Currency) {
		return false
	}
	o, err := other.In(a.Unit)
	if err != nil {
		return false
	}
	return a.Value.Equal(o.Value)
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s (%s)", a.Value.String(), a.Currency, a.Unit)
}
