package crossrate

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Armin-kho/fx-crossrates/internal/currency"
)

// RateMap is the provider payload: currency code -> amount of that currency
// per 1 unit of the reference currency, kept in its original textual form.
type RateMap map[string]string

// Rates holds parsed reference-relative rates; Rates[currency.Reference] is 1.
type Rates [currency.Count]decimal.Decimal

// Table maps every target currency to the amount of it per 1 unit of a base.
type Table [currency.Count]decimal.Decimal

func (t Table) MarshalJSON() ([]byte, error) {
	m := make(map[currency.Currency]decimal.Decimal, currency.Count)
	for _, c := range currency.All {
		m[c] = t[c]
	}
	return json.Marshal(m)
}

func (t *Table) UnmarshalJSON(b []byte) error {
	var m map[currency.Currency]decimal.Decimal
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if len(m) != currency.Count {
		return fmt.Errorf("rate table has %d entries, want %d", len(m), currency.Count)
	}
	for c, v := range m {
		t[c] = v
	}
	return nil
}

// BaseRates is the per-base entry of a Bundle.
type BaseRates struct {
	Date      string            `json:"date"`
	Success   bool              `json:"success"`
	Timestamp int64             `json:"timestamp"`
	Base      currency.Currency `json:"base"`
	Rates     Table             `json:"rates"`
}

// Bundle holds one BaseRates per currency, indexed by the base.
type Bundle [currency.Count]BaseRates

// Rate returns the amount of quote per 1 unit of base.
func (b Bundle) Rate(base, quote currency.Currency) decimal.Decimal {
	return b[base].Rates[quote]
}

func (b Bundle) MarshalJSON() ([]byte, error) {
	m := make(map[currency.Currency]BaseRates, currency.Count)
	for _, c := range currency.All {
		m[c] = b[c]
	}
	return json.Marshal(m)
}

func (b *Bundle) UnmarshalJSON(data []byte) error {
	var m map[currency.Currency]BaseRates
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != currency.Count {
		return fmt.Errorf("bundle has %d bases, want %d", len(m), currency.Count)
	}
	for c, r := range m {
		if r.Base != c {
			return fmt.Errorf("bundle entry %s carries base %s", c, r.Base)
		}
		b[c] = r
	}
	return nil
}
