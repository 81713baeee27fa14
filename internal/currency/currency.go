package currency

import (
	"fmt"
	"strings"
)

// Currency is one member of the fixed currency set.
type Currency uint8

const (
	HUF Currency = iota
	ILS
	EUR
	USD
)

// Count is the size of the fixed set. Arrays of this length are indexed by Currency.
const Count = int(USD) + 1

// Reference is the currency every provider rate is quoted against.
const Reference = EUR

type info struct {
	Code  string
	Name  string
	Emoji string
}

var infos = [Count]info{
	HUF: {Code: "HUF", Name: "Hungarian Forint", Emoji: "🇭🇺"},
	ILS: {Code: "ILS", Name: "Israeli New Shekel", Emoji: "🇮🇱"},
	EUR: {Code: "EUR", Name: "Euro", Emoji: "🇪🇺"},
	USD: {Code: "USD", Name: "US Dollar", Emoji: "🇺🇸"},
}

// All lists the set in canonical order.
var All = [Count]Currency{HUF, ILS, EUR, USD}

var byCode map[string]Currency

func init() {
	byCode = map[string]Currency{}
	for _, c := range All {
		byCode[infos[c].Code] = c
	}
}

func (c Currency) Valid() bool { return int(c) < Count }

func (c Currency) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Currency(%d)", uint8(c))
	}
	return infos[c].Code
}

func (c Currency) Name() string {
	if !c.Valid() {
		return ""
	}
	return infos[c].Name
}

func (c Currency) Emoji() string {
	if !c.Valid() {
		return ""
	}
	return infos[c].Emoji
}

func (c Currency) IsReference() bool { return c == Reference }

// Parse accepts an ISO code in any case.
func Parse(code string) (Currency, error) {
	c, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return 0, fmt.Errorf("unknown currency %q", code)
	}
	return c, nil
}

// Symbols returns the comma separated code list used in provider queries.
func Symbols() string {
	codes := make([]string, 0, Count)
	for _, c := range All {
		codes = append(codes, c.String())
	}
	return strings.Join(codes, ",")
}

func (c Currency) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid currency %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Currency) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
