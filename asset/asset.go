// Package asset implements GRAEL's fixed-precision signed amount type.
//
// An Asset is an int64 count of 10^-Precision GRAEL. All arithmetic is
// checked: overflow is returned as an error rather than wrapping or
// saturating, matching the teacher's convention of surfacing failures as
// plain error values instead of panicking on bad input.
package asset

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Precision is the number of decimal digits kept after the point.
const Precision = 5

// Symbol is GRAEL's sole ticker; the type carries no other symbol.
const Symbol = "GRAEL"

// scale is 10^Precision, the number of raw units per whole GRAEL.
const scale = 100000

// Asset is a fixed-precision signed amount, stored as raw units of
// 10^-Precision GRAEL.
type Asset int64

// Zero is the additive identity.
const Zero Asset = 0

// ErrOverflow is returned by any arithmetic operation whose result cannot be
// represented in an int64.
var ErrOverflow = errors.New("asset: arithmetic overflow")

// ErrInvalidFormat is returned by FromString when the input is not a valid
// decimal amount.
var ErrInvalidFormat = errors.New("asset: invalid amount format")

// New constructs an Asset directly from its raw unit representation.
func New(raw int64) Asset {
	return Asset(raw)
}

// FromString parses a decimal string such as "123.45000" into an Asset. A
// bare ticker suffix ("123.45000 GRAEL") is also accepted.
func FromString(s string) (Asset, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutSuffix(s, " "+Symbol); ok {
		s = rest
	}
	if s == "" {
		return 0, ErrInvalidFormat
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" || (hasFrac && fracPart == "") {
		return 0, ErrInvalidFormat
	}
	if len(fracPart) > Precision {
		return 0, errors.Wrapf(ErrInvalidFormat, "too many decimal digits in %q", s)
	}
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidFormat
		}
	}
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidFormat
		}
	}
	fracPart += strings.Repeat("0", Precision-len(fracPart))

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidFormat, "%s", err)
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidFormat, "%s", err)
	}

	whole, ok := checkedMul64(whole, scale)
	if !ok {
		return 0, ErrOverflow
	}
	raw, ok := checkedAdd64(whole, frac)
	if !ok {
		return 0, ErrOverflow
	}
	if neg {
		raw = -raw
	}
	return Asset(raw), nil
}

// MustFromString is FromString, panicking on error. Intended for
// initializing package-level constants from literals, never for parsing
// untrusted input.
func MustFromString(s string) Asset {
	a, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Raw returns the underlying int64 unit count.
func (a Asset) Raw() int64 {
	return int64(a)
}

// String renders the asset as a decimal amount suffixed with its symbol.
func (a Asset) String() string {
	raw := int64(a)
	neg := raw < 0
	if neg {
		raw = -raw
	}
	whole := raw / scale
	frac := raw % scale
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%0*d %s", sign, whole, Precision, frac, Symbol)
}

// Sign returns -1, 0 or 1.
func (a Asset) Sign() int {
	switch {
	case a < 0:
		return -1
	case a > 0:
		return 1
	default:
		return 0
	}
}

// Add returns a+b, or ErrOverflow if the result does not fit in an int64.
func (a Asset) Add(b Asset) (Asset, error) {
	r, ok := checkedAdd64(int64(a), int64(b))
	if !ok {
		return 0, ErrOverflow
	}
	return Asset(r), nil
}

// Sub returns a-b, or ErrOverflow if the result does not fit in an int64.
func (a Asset) Sub(b Asset) (Asset, error) {
	r, ok := checkedSub64(int64(a), int64(b))
	if !ok {
		return 0, ErrOverflow
	}
	return Asset(r), nil
}

// Mul returns the fixed-point product a*b (i.e. (a*b)/10^Precision,
// truncated towards zero), or ErrOverflow if the mathematical result does
// not fit in an int64.
func (a Asset) Mul(b Asset) (Asset, error) {
	prod := new(big.Int).Mul(big.NewInt(int64(a)), big.NewInt(int64(b)))
	prod.Quo(prod, big.NewInt(scale))
	if !prod.IsInt64() {
		return 0, ErrOverflow
	}
	return Asset(prod.Int64()), nil
}

// Pow returns a raised to the n-th power under fixed-point multiplication
// (a*a*...*a, n times), used by the dynamic fee curves in §4.2.4. Pow(0)
// is 1.00000 GRAEL, the multiplicative identity.
func (a Asset) Pow(n uint) (Asset, error) {
	result := Asset(scale) // 1.00000
	for i := uint(0); i < n; i++ {
		var err error
		result, err = result.Mul(a)
		if err != nil {
			return 0, err
		}
	}
	return result, nil
}

// Cmp returns -1, 0 or 1 as a is less than, equal to, or greater than b.
func (a Asset) Cmp(b Asset) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func checkedAdd64(a, b int64) (int64, bool) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, false
	}
	return r, true
}

func checkedSub64(a, b int64) (int64, bool) {
	r := a - b
	if (b < 0 && r < a) || (b > 0 && r > a) {
		return 0, false
	}
	return r, true
}

func checkedMul64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}
