package rational

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Rational is an exact fraction of unbounded size, kept in lowest terms
// with a positive denominator. The zero value is 0/1.
//
// Values whose numerator and denominator fit in an int64 are stored inline
// so that equal values compare equal with ==; larger ones live in a big.Rat
// that is never mutated after construction.
type Rational struct {
	num int64
	den int64
	big *big.Rat
}

var (
	Zero = Rational{0, 1, nil}
	One  = Rational{1, 1, nil}
)

// fromBig takes ownership of r.
func fromBig(r *big.Rat) Rational {
	if r.Num().IsInt64() && r.Denom().IsInt64() {
		return Rational{num: r.Num().Int64(), den: r.Denom().Int64()}
	}
	return Rational{big: r}
}

// rat returns r as a big.Rat. Callers must not modify the result.
func (r Rational) rat() *big.Rat {
	if r.big != nil {
		return r.big
	}
	return big.NewRat(r.num, r.Den())
}

// New panics on a zero denominator. Grid lengths are validated before they
// get here, so a zero denominator is a programming error.
func New(num, den int64) Rational {
	if den == 0 {
		panic("rational: zero denominator")
	}
	return fromBig(big.NewRat(num, den))
}

func Int(n int64) Rational {
	return Rational{n, 1, nil}
}

func (r Rational) Den() int64 {
	if r.den == 0 {
		return 1
	}
	return r.den
}

func (r Rational) Add(o Rational) Rational {
	return fromBig(new(big.Rat).Add(r.rat(), o.rat()))
}

func (r Rational) Sub(o Rational) Rational {
	return fromBig(new(big.Rat).Sub(r.rat(), o.rat()))
}

func (r Rational) Mul(o Rational) Rational {
	return fromBig(new(big.Rat).Mul(r.rat(), o.rat()))
}

func (r Rational) MulInt(n int64) Rational {
	return r.Mul(Int(n))
}

// Div panics when o is zero.
func (r Rational) Div(o Rational) Rational {
	if o.Sign() == 0 {
		panic("rational: division by zero")
	}
	return fromBig(new(big.Rat).Quo(r.rat(), o.rat()))
}

// small reports whether a cross multiplication of r stays inside int64.
func (r Rational) small() bool {
	const limit = 1 << 31
	return r.big == nil && r.num > -limit && r.num < limit && r.Den() < limit
}

func (r Rational) Cmp(o Rational) int {
	if !r.small() || !o.small() {
		return r.rat().Cmp(o.rat())
	}
	a := r.num * o.Den()
	b := o.num * r.Den()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (r Rational) Less(o Rational) bool {
	return r.Cmp(o) < 0
}

func (r Rational) Equal(o Rational) bool {
	return r.Cmp(o) == 0
}

func (r Rational) IsZero() bool {
	return r.Sign() == 0
}

func (r Rational) Sign() int {
	if r.big != nil {
		return r.big.Sign()
	}
	switch {
	case r.num < 0:
		return -1
	case r.num > 0:
		return 1
	}
	return 0
}

// Floor returns the largest integer not greater than r.
func (r Rational) Floor() int64 {
	if r.big == nil {
		q := r.num / r.Den()
		if r.num%r.Den() != 0 && r.num < 0 {
			q--
		}
		return q
	}
	// Euclidean division by a positive denominator rounds down.
	return new(big.Int).Div(r.big.Num(), r.big.Denom()).Int64()
}

// Float64 is only meant for the final millisecond step.
func (r Rational) Float64() float64 {
	if r.big == nil {
		return float64(r.num) / float64(r.Den())
	}
	f, _ := r.big.Float64()
	return f
}

// CarryInto subtracts length from r as long as r is at or past it and
// reports how many times it did. lengthOf is asked for each successive
// length, starting with index 0, so bars of different lengths can be
// walked through.
func (r Rational) CarryInto(lengthOf func(i int) Rational) (Rational, int) {
	carried := 0
	for {
		l := lengthOf(carried)
		if l.Sign() <= 0 || r.Less(l) {
			return r, carried
		}
		r = r.Sub(l)
		carried++
	}
}

// String renders "n" for integers and "n/d" otherwise.
func (r Rational) String() string {
	if r.big != nil {
		return r.big.RatString()
	}
	if r.Den() == 1 {
		return strconv.FormatInt(r.num, 10)
	}
	return fmt.Sprintf("%d/%d", r.num, r.den)
}

func (r Rational) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rational) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Parse reads "n", "n/d" or a decimal such as "0.75".
func Parse(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		n, ok := new(big.Int).SetString(s[:i], 10)
		if !ok {
			return Zero, errors.Errorf("bad numerator in %q", s)
		}
		d, ok := new(big.Int).SetString(s[i+1:], 10)
		if !ok {
			return Zero, errors.Errorf("bad denominator in %q", s)
		}
		if d.Sign() == 0 {
			return Zero, errors.Errorf("zero denominator in %q", s)
		}
		return fromBig(new(big.Rat).SetFrac(n, d)), nil
	}
	return ParseDecimal(s)
}

// ParseDecimal reads a plain decimal exactly, without going through
// float64. Any number of digits is kept.
func ParseDecimal(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, errors.New("empty decimal")
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return Zero, errors.Errorf("no digits in %q", s)
	}
	digits := intPart + fracPart
	for _, c := range digits {
		if c < '0' || c > '9' {
			return Zero, errors.Errorf("invalid decimal %q", s)
		}
	}
	n, _ := new(big.Int).SetString(digits, 10)
	if neg {
		n.Neg(n)
	}
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(len(fracPart))), nil)
	return fromBig(new(big.Rat).SetFrac(n, den)), nil
}

// FromFloat converts f through its shortest decimal rendering, so a tempo
// read as "133.3333333" becomes exactly 1333333333/10000000.
func FromFloat(f float64) Rational {
	r, err := ParseDecimal(strconv.FormatFloat(f, 'f', -1, 64))
	if err != nil {
		panic(err)
	}
	return r
}
