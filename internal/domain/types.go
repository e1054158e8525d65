package domain

import (
	"math"
	"strings"
	"time"
)

// Mode selects between the discounted group-purchase rate and the
// standalone rate for a displayed price.
type Mode string

const (
	// ModeGroup shows the discounted collective-purchase price.
	ModeGroup Mode = "group"
	// ModeSolo shows the standalone price.
	ModeSolo Mode = "solo"
)

// ParseMode normalises a raw mode value, defaulting to group.
func ParseMode(v string) Mode {
	if strings.EqualFold(strings.TrimSpace(v), string(ModeSolo)) {
		return ModeSolo
	}
	return ModeGroup
}

// Locale is the combination of country, language, currency, and exchange
// rate governing displayed content and pricing. A Locale is always fully
// populated; partial updates are merged over the previous value.
type Locale struct {
	Country      string  `json:"country"`
	Language     string  `json:"language"`
	Currency     string  `json:"currency"`
	ExchangeRate float64 `json:"exchangeRate"`
	Symbol       string  `json:"symbol"`
	Port         string  `json:"port"`
}

// LocalePatch carries the subset of locale fields a caller wants to
// change. Nil fields keep their previous values.
type LocalePatch struct {
	Country      *string
	Language     *string
	Currency     *string
	ExchangeRate *float64
	Symbol       *string
	Port         *string
}

// Merge applies the patch on top of the receiver and returns the result.
// Unset fields are carried over unchanged.
func (l Locale) Merge(p LocalePatch) Locale {
	out := l
	if p.Country != nil && *p.Country != "" {
		out.Country = strings.ToUpper(strings.TrimSpace(*p.Country))
	}
	if p.Language != nil && *p.Language != "" {
		out.Language = strings.ToUpper(strings.TrimSpace(*p.Language))
	}
	if p.Currency != nil && *p.Currency != "" {
		out.Currency = strings.ToUpper(strings.TrimSpace(*p.Currency))
	}
	if p.ExchangeRate != nil && *p.ExchangeRate > 0 {
		out.ExchangeRate = *p.ExchangeRate
	}
	if p.Symbol != nil && *p.Symbol != "" {
		out.Symbol = *p.Symbol
	}
	if p.Port != nil && *p.Port != "" {
		out.Port = *p.Port
	}
	return out
}

// IsZero reports whether the patch changes nothing.
func (p LocalePatch) IsZero() bool {
	return p.Country == nil && p.Language == nil && p.Currency == nil &&
		p.ExchangeRate == nil && p.Symbol == nil && p.Port == nil
}

// Batch is a time-boxed group-purchase cohort for a shipping container.
type Batch struct {
	ID                  string    `json:"id"`
	Country             string    `json:"country"`
	Container           string    `json:"container"`
	Seats               int       `json:"seats"`
	Joined              int       `json:"joined"`
	OpenAt              time.Time `json:"openAt"`
	LockAt              time.Time `json:"lockAt"`
	ShipAt              time.Time `json:"shipAt"`
	ArriveAt            time.Time `json:"arriveAt"`
	AvgSavingPerUnit    int64     `json:"avgSavingPerUnit"`
	TotalCommunitySaved int64     `json:"totalCommunitySaved"`
}

// Normalize clamps joined into [0, seats]. The upstream feed never
// validates this, so every ingest path runs it.
func (b *Batch) Normalize() {
	if b.Seats < 0 {
		b.Seats = 0
	}
	if b.Joined < 0 {
		b.Joined = 0
	}
	if b.Joined > b.Seats {
		b.Joined = b.Seats
	}
}

// SeatsLeft returns the remaining open seats.
func (b Batch) SeatsLeft() int {
	left := b.Seats - b.Joined
	if left < 0 {
		return 0
	}
	return left
}

// Progress returns the fill percentage rounded to the nearest integer.
func (b Batch) Progress() int {
	if b.Seats <= 0 {
		return 0
	}
	return int(math.Round(float64(b.Joined) / float64(b.Seats) * 100))
}

// ProductPricing holds both price points for a product in base currency.
type ProductPricing struct {
	Solo     int64  `json:"solo"`
	Group    int64  `json:"group"`
	Currency string `json:"currency"`
	Symbol   string `json:"symbol"`
	Saving   int64  `json:"saving"`
}

// BatchProgress is the per-product snapshot of its batch fill state.
type BatchProgress struct {
	BatchID          string `json:"id"`
	Target           int    `json:"target"`
	Joined           int    `json:"joined"`
	Need             int    `json:"need"`
	Progress         int    `json:"progress"`
	EligibleForGroup bool   `json:"eligibleForGroup"`
}

// Normalize clamps joined into [0, target] and recomputes the derived
// fields so that need+joined == target, progress == round(100*joined/target)
// and eligibility reflects remaining capacity.
func (p *BatchProgress) Normalize() {
	if p.Target < 0 {
		p.Target = 0
	}
	if p.Joined < 0 {
		p.Joined = 0
	}
	if p.Joined > p.Target {
		p.Joined = p.Target
	}
	p.Need = p.Target - p.Joined
	if p.Target > 0 {
		p.Progress = int(math.Round(float64(p.Joined) / float64(p.Target) * 100))
	} else {
		p.Progress = 0
	}
	p.EligibleForGroup = p.Joined < p.Target
}

// Product is a catalog entry scoped to the current locale.
type Product struct {
	ID       string         `json:"id"`
	SKU      string         `json:"sku"`
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Image    string         `json:"image"`
	Specs    string         `json:"specs"`
	Pricing  ProductPricing `json:"pricing"`
	Batch    BatchProgress  `json:"batch"`
	Badges   []string       `json:"badges"`
	InStock  bool           `json:"inStock"`
	Featured bool           `json:"featured"`
}

// Category is a navigable product grouping.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CategoryFeatured is the pseudo-category selecting all featured products.
const CategoryFeatured = "featured"

// Session carries the opaque user handle and order count for the header.
type Session struct {
	User       any `json:"user"`
	OrderCount int `json:"orderCount"`
}

// TickerEntry is one synthetic line in the cosmetic recent-activity feed.
type TickerEntry struct {
	Country string `json:"country"`
	Name    string `json:"name"`
	Action  string `json:"action"`
	Product string `json:"product"`
	Time    string `json:"time"`
}

// Countdown is the time remaining until a batch locks.
type Countdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Total returns the countdown collapsed to seconds.
func (c Countdown) Total() int {
	return c.Days*86400 + c.Hours*3600 + c.Minutes*60 + c.Seconds
}

// ShareResult reports the outcome of a share attempt. Copied is true
// when the result came from the copy-link fallback path.
type ShareResult struct {
	Success bool   `json:"success"`
	Copied  bool   `json:"copied,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}
