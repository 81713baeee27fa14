package crossrate

import (
	"errors"
	"fmt"

	"github.com/Armin-kho/fx-crossrates/internal/currency"
)

// ErrInvalidInput is matched by every error Compute returns for bad provider data.
var ErrInvalidInput = errors.New("invalid rate input")

// InputError describes the first rejected entry of a RateMap.
type InputError struct {
	Currency currency.Currency
	Value    string
	Reason   string
}

func (e *InputError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: rate for %s %s", ErrInvalidInput, e.Currency, e.Reason)
	}
	return fmt.Sprintf("%s: rate for %s %s (got %q)", ErrInvalidInput, e.Currency, e.Reason, e.Value)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }
