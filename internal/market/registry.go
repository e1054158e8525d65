package market

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alareot-bit/coex-voltrally/internal/domain"
)

//go:embed countries.yaml
var packYAML []byte

// Country describes one served market.
type Country struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Port     string `yaml:"port"`
	Currency string `yaml:"currency"`
}

// Currency describes a display currency with its USD multiplier.
type Currency struct {
	Code   string  `yaml:"code"`
	Symbol string  `yaml:"symbol"`
	Rate   float64 `yaml:"rate"`
}

// Registry resolves country codes to market defaults and currency codes
// to display parameters. Lookups fall back to the USD defaults so a
// Locale is always fully populated.
type Registry struct {
	countries  map[string]Country
	currencies map[string]Currency
	order      []string
	curOrder   []string
}

type pack struct {
	Countries  []Country  `yaml:"countries"`
	Currencies []Currency `yaml:"currencies"`
}

// DefaultLocale is the locale applied before any stored preference or
// geo detection: Mexico batch, prices shown in USD.
var DefaultLocale = domain.Locale{
	Country:      "MX",
	Language:     "EN",
	Currency:     "USD",
	ExchangeRate: 1,
	Symbol:       "$",
	Port:         "Manzanillo",
}

// Load parses the embedded market pack.
func Load() (*Registry, error) {
	var p pack
	if err := yaml.Unmarshal(packYAML, &p); err != nil {
		return nil, fmt.Errorf("market: parse pack: %w", err)
	}
	if len(p.Countries) == 0 || len(p.Currencies) == 0 {
		return nil, fmt.Errorf("market: pack is empty")
	}
	r := &Registry{
		countries:  make(map[string]Country, len(p.Countries)),
		currencies: make(map[string]Currency, len(p.Currencies)),
	}
	for _, c := range p.Countries {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" {
			continue
		}
		c.Code = code
		r.countries[code] = c
		r.order = append(r.order, code)
	}
	for _, c := range p.Currencies {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" || c.Rate <= 0 {
			continue
		}
		c.Code = code
		r.currencies[code] = c
		r.curOrder = append(r.curOrder, code)
	}
	if _, ok := r.currencies["USD"]; !ok {
		return nil, fmt.Errorf("market: pack is missing the USD base currency")
	}
	return r, nil
}

// Countries returns the served markets in pack order.
func (r *Registry) Countries() []Country {
	out := make([]Country, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.countries[code])
	}
	return out
}

// Currencies returns the display currencies in pack order.
func (r *Registry) Currencies() []Currency {
	out := make([]Currency, 0, len(r.curOrder))
	for _, code := range r.curOrder {
		out = append(out, r.currencies[code])
	}
	return out
}

// Country resolves a country code; ok is false for unknown markets.
func (r *Registry) Country(code string) (Country, bool) {
	c, ok := r.countries[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// CountryName returns the display name, or the code itself when unknown.
func (r *Registry) CountryName(code string) string {
	if c, ok := r.Country(code); ok {
		return c.Name
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// Currency resolves a currency code, falling back to USD.
func (r *Registry) Currency(code string) Currency {
	if c, ok := r.currencies[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return c
	}
	return r.currencies["USD"]
}

// LocaleFor builds the fully populated locale defaults for a country
// switch: the market's port and currency with its symbol and rate.
// Unknown countries keep the USD defaults with the code carried through.
func (r *Registry) LocaleFor(countryCode, language string) domain.Locale {
	loc := DefaultLocale
	loc.Country = strings.ToUpper(strings.TrimSpace(countryCode))
	if language != "" {
		loc.Language = strings.ToUpper(strings.TrimSpace(language))
	}
	c, ok := r.Country(countryCode)
	if !ok {
		return loc
	}
	cur := r.Currency(c.Currency)
	loc.Port = c.Port
	loc.Currency = cur.Code
	loc.ExchangeRate = cur.Rate
	loc.Symbol = cur.Symbol
	return loc
}

// PatchForCurrency completes a currency-only locale change with the
// matching symbol and exchange rate.
func (r *Registry) PatchForCurrency(code string) domain.LocalePatch {
	cur := r.Currency(code)
	return domain.LocalePatch{
		Currency:     &cur.Code,
		Symbol:       &cur.Symbol,
		ExchangeRate: &cur.Rate,
	}
}
