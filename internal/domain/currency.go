package domain

import (
	"fmt"
	"strings"
)

// Currency is the closed set of currencies a wallet can hold. The integer
// value is what gets persisted.
type Currency int16

const (
	CurrencyUnspecified Currency = iota
	CurrencyBRL
	CurrencyUSD
	CurrencyEUR
	CurrencyGBP
	CurrencyJPY
)

var currencyCodes = map[Currency]string{
	CurrencyBRL: "BRL",
	CurrencyUSD: "USD",
	CurrencyEUR: "EUR",
	CurrencyGBP: "GBP",
	CurrencyJPY: "JPY",
}

// Currencies returns every supported currency in code order.
func Currencies() []Currency {
	return []Currency{CurrencyBRL, CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyJPY}
}

// IsValid reports whether c is one of the supported currencies.
func (c Currency) IsValid() bool {
	_, ok := currencyCodes[c]
	return ok
}

func (c Currency) String() string {
	if code, ok := currencyCodes[c]; ok {
		return code
	}
	return fmt.Sprintf("Currency(%d)", int16(c))
}

// ParseCurrency resolves an ISO code such as "brl" or "BRL".
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for c, v := range currencyCodes {
		if v == code {
			return c, nil
		}
	}
	return CurrencyUnspecified, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
}

func (c Currency) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCurrency, int16(c))
	}
	return []byte(c.String()), nil
}

func (c *Currency) UnmarshalText(text []byte) error {
	parsed, err := ParseCurrency(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
