package crossrate

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Armin-kho/fx-crossrates/internal/currency"
	"github.com/Armin-kho/fx-crossrates/internal/utils"
)

// DefaultPrecision is the minimum number of decimal places kept by every
// division. Quotients below one get extra places so small rates keep their
// significant digits.
const DefaultPrecision int32 = 20

var one = decimal.NewFromInt(1)

// Calculator derives the full cross-rate bundle from reference-relative rates.
// It performs no I/O and is safe for concurrent use.
type Calculator struct {
	Clock     utils.Clock
	Location  *time.Location
	Precision int32
}

func NewCalculator(clock utils.Clock, loc *time.Location, precision int32) *Calculator {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &Calculator{Clock: clock, Location: loc, Precision: precision}
}

// Compute stamps the bundle with the calculator's clock.
func (c *Calculator) Compute(in RateMap) (Bundle, error) {
	return c.ComputeAt(in, c.Clock.Now())
}

// ComputeAt builds the bundle for the given generation instant. Date and
// timestamp of every entry are derived from at.
func (c *Calculator) ComputeAt(in RateMap, at time.Time) (Bundle, error) {
	rates, err := ParseRates(in)
	if err != nil {
		return Bundle{}, err
	}

	date := utils.DateString(at, c.Location)
	ts := at.Unix()

	var out Bundle
	for _, base := range currency.All {
		out[base] = BaseRates{
			Date:      date,
			Success:   true,
			Timestamp: ts,
			Base:      base,
			Rates:     c.table(rates, base),
		}
	}
	return out, nil
}

func (c *Calculator) table(rates Rates, base currency.Currency) Table {
	var t Table
	for _, target := range currency.All {
		if target == base {
			t[target] = one
			continue
		}
		t[target] = rates[target].DivRound(rates[base], c.places(rates[target], rates[base]))
	}
	return t
}

// places widens Precision by how many orders of magnitude the quotient sits
// below one, so the result never rounds to zero.
func (c *Calculator) places(num, den decimal.Decimal) int32 {
	shift := magnitude(den) - magnitude(num)
	if shift < 0 {
		shift = 0
	}
	return c.Precision + shift
}

// magnitude is the power of ten of the leading digit of a non-zero d.
func magnitude(d decimal.Decimal) int32 {
	return int32(d.NumDigits()) + d.Exponent() - 1
}

// ParseRates validates the provider map and converts each value to an exact
// decimal straight from its text. Any reference entry in the map is ignored.
func ParseRates(in RateMap) (Rates, error) {
	var out Rates
	for _, cur := range currency.All {
		if cur.IsReference() {
			out[cur] = one
			continue
		}
		raw, ok := in[cur.String()]
		if !ok {
			return Rates{}, &InputError{Currency: cur, Reason: "is missing"}
		}
		v, err := parseRate(cur, raw)
		if err != nil {
			return Rates{}, err
		}
		out[cur] = v
	}
	return out, nil
}

func parseRate(cur currency.Currency, raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, &InputError{Currency: cur, Reason: "is empty"}
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &InputError{Currency: cur, Value: raw, Reason: "is not a number"}
	}
	if !v.IsPositive() {
		return decimal.Decimal{}, &InputError{Currency: cur, Value: raw, Reason: "must be positive"}
	}
	return v, nil
}
