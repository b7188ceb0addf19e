package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// MaxPrecision is the largest token precision that still maps onto wei.
const MaxPrecision = 18

// ErrInvalidAsset is returned when an asset string can't be parsed.
var ErrInvalidAsset = errors.New("invalid asset")

// Symbol describes a native token: its precision and ticker.
type Symbol struct {
	Precision uint8
	Code      string
}

func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// UnitScale is the number of wei in one minor unit of the token.
func (s Symbol) UnitScale() *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(MaxPrecision-s.Precision)))
}

// Asset is an amount of native token in minor units, e.g. "97.53210000 GAS".
type Asset struct {
	Amount uint64
	Symbol Symbol
}

// ParseAsset parses an asset string. Precision is the number of digits after the decimal point.
func ParseAsset(s string) (Asset, error) {
	amount, code, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok || code == "" || strings.ContainsAny(code, " \t") {
		return Asset{}, fmt.Errorf("%w: %q must be '<amount> <symbol>'", ErrInvalidAsset, s)
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return Asset{}, fmt.Errorf("%w: symbol %q must be upper case letters", ErrInvalidAsset, code)
		}
	}
	precision := 0
	if _, frac, found := strings.Cut(amount, "."); found {
		precision = len(frac)
	}
	if precision > MaxPrecision {
		return Asset{}, fmt.Errorf("%w: precision %d exceeds %d", ErrInvalidAsset, precision, MaxPrecision)
	}
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %w", ErrInvalidAsset, err)
	}
	if v.IsNegative() {
		return Asset{}, fmt.Errorf("%w: negative amount %s", ErrInvalidAsset, amount)
	}
	units := v.Shift(int32(precision))
	if !units.BigInt().IsUint64() {
		return Asset{}, fmt.Errorf("%w: amount %s overflows", ErrInvalidAsset, amount)
	}
	return Asset{
		Amount: units.BigInt().Uint64(),
		Symbol: Symbol{Precision: uint8(precision), Code: code},
	}, nil
}

// MustAsset is ParseAsset that panics on invalid input.
func MustAsset(s string) Asset {
	a, err := ParseAsset(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Asset) String() string {
	d := decimal.NewFromBigInt(new(uint256.Int).SetUint64(a.Amount).ToBig(), -int32(a.Symbol.Precision))
	return d.StringFixed(int32(a.Symbol.Precision)) + " " + a.Symbol.Code
}

// Wei converts the amount to wei.
func (a Asset) Wei() *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(a.Amount), a.Symbol.UnitScale())
}

// MarshalText implements encoding.TextMarshaler.
func (a Asset) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Asset) UnmarshalText(text []byte) error {
	parsed, err := ParseAsset(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// FormatWei renders a wei amount in the token's denomination, dropping sub-unit dust.
func FormatWei(wei *uint256.Int, symbol Symbol) string {
	units, _ := SplitWei(wei, symbol)
	return Asset{Amount: units.Uint64(), Symbol: symbol}.String()
}

// SplitWei returns the amount of whole minor units and the remaining dust.
func SplitWei(wei *uint256.Int, symbol Symbol) (*uint256.Int, *uint256.Int) {
	units, dust := new(uint256.Int), new(uint256.Int)
	units.DivMod(wei, symbol.UnitScale(), dust)
	return units, dust
}
